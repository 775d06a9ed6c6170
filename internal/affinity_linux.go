// Count the CPUs in the affinity mask of the calling thread

//go:build linux

package numcpus_internal

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pid 0 stands for the calling thread, which may differ from the rest of the
// process if it was pinned individually:
func AffinityCPUCount() (int, error) {
	cpuSet := unix.CPUSet{}
	if err := unix.SchedGetaffinity(0, &cpuSet); err != nil {
		return 0, fmt.Errorf("unix.SchedGetaffinity: %v", err)
	}
	count := 0
	for _, cpuMask := range cpuSet {
		for cpuMask != 0 {
			count++
			cpuMask &= (cpuMask - 1)
		}
	}
	return count, nil
}
