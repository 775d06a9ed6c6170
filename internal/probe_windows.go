// Windows probe, kernel32 based.

//go:build windows

package numcpus_internal

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// LOGICAL_PROCESSOR_RELATIONSHIP:
const RELATION_PROCESSOR_CORE = 0

// SYSTEM_LOGICAL_PROCESSOR_INFORMATION; only the relationship is used, the
// union is sized and aligned via Reserved (2 x ULONGLONG), for a total of 32
// bytes on 64 bit and 24 on 32 bit platforms.
type systemLogicalProcessorInformation struct {
	ProcessorMask uintptr
	Relationship  uint32
	Reserved      [2]uint64
}

type WindowsProbe struct{}

func newPlatformProbe(maxReadSize int64) TopologyProbe {
	return WindowsProbe{}
}

func (WindowsProbe) Name() string { return "windows" }

func (WindowsProbe) OsCPUCount() (int, error) {
	return firstCount(
		"os",
		countSource{"GetActiveProcessorCount", func() (int, error) {
			return int(windows.GetActiveProcessorCount(windows.ALL_PROCESSOR_GROUPS)), nil
		}},
		countSource{"runtime", GenericProbe{}.OsCPUCount},
	)
}

func (WindowsProbe) AffinityCPUCount() (int, error) {
	return AffinityCPUCount()
}

// Job object CPU rate control is not covered:
func (WindowsProbe) QuotaCPUCount() (int, error) { return 0, ErrUnsupported }

func (WindowsProbe) PhysicalCoreCount() (int, error) {
	infoSize := unsafe.Sizeof(systemLogicalProcessorInformation{})
	// 1st call w/ no buffer to find out the needed length:
	length := uint32(0)
	ret, _, err := procGetLogicalProcessorInformation.Call(0, uintptr(unsafe.Pointer(&length)))
	if ret != 0 || !errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) || length == 0 {
		return 0, fmt.Errorf("GetLogicalProcessorInformation: %v", err)
	}
	infos := make([]systemLogicalProcessorInformation, (uintptr(length)+infoSize-1)/infoSize)
	ret, _, err = procGetLogicalProcessorInformation.Call(
		uintptr(unsafe.Pointer(&infos[0])),
		uintptr(unsafe.Pointer(&length)),
	)
	if ret == 0 {
		return 0, fmt.Errorf("GetLogicalProcessorInformation: %v", err)
	}
	count := 0
	for _, info := range infos[:uintptr(length)/infoSize] {
		if info.Relationship == RELATION_PROCESSOR_CORE {
			count++
		}
	}
	if count == 0 {
		return 0, fmt.Errorf("GetLogicalProcessorInformation: %w", ErrNoTopology)
	}
	return count, nil
}
