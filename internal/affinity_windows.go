// Count the CPUs in the affinity mask of the current process

//go:build windows

package numcpus_internal

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                           = windows.NewLazySystemDLL("kernel32.dll")
	procGetProcessAffinityMask         = kernel32.NewProc("GetProcessAffinityMask")
	procGetActiveProcessorGroupCount   = kernel32.NewProc("GetActiveProcessorGroupCount")
	procGetLogicalProcessorInformation = kernel32.NewProc("GetLogicalProcessorInformation")
)

// Windows has no API for querying the mask of a thread, the process mask is
// used instead. The mask covers only the primary group of the process (64 CPUs
// max), so it is disregarded on hosts w/ more than one group.
func AffinityCPUCount() (int, error) {
	// WORD GetActiveProcessorGroupCount(void), 0 on failure:
	groupCount, _, _ := procGetActiveProcessorGroupCount.Call()
	var processMask, systemMask uintptr
	process, err := windows.GetCurrentProcess()
	if err != nil {
		return 0, fmt.Errorf("GetCurrentProcess: %v", err)
	}
	ret, _, err := procGetProcessAffinityMask.Call(
		uintptr(process),
		uintptr(unsafe.Pointer(&processMask)),
		uintptr(unsafe.Pointer(&systemMask)),
	)
	if ret == 0 {
		return 0, fmt.Errorf("GetProcessAffinityMask: %v", err)
	}
	return processAffinityCount(int(uint16(groupCount)), uint64(processMask))
}
