// Parse CPU lists, the format used by the kernel for sysfs CPU sets, e.g.
// /sys/devices/system/cpu/online: 0-3,6,8-11

package numcpus_internal

import (
	"fmt"
	"strconv"
	"strings"
)

// The upper bound for the CPU number, guarding against malformed ranges
// leading to huge allocations; it matches the largest NR_CPUS kernel config.
const CPU_LIST_MAX_CPU = 8192

func ParseCPUList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	cpus := make([]int, 0)
	if s == "" {
		return cpus, nil
	}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		first, last := item, item
		if i := strings.IndexByte(item, '-'); i >= 0 {
			first, last = item[:i], item[i+1:]
		}
		from, err := strconv.Atoi(first)
		if err != nil {
			return nil, fmt.Errorf("cpu list %q: %v", s, err)
		}
		to, err := strconv.Atoi(last)
		if err != nil {
			return nil, fmt.Errorf("cpu list %q: %v", s, err)
		}
		if from < 0 || to < from || to >= CPU_LIST_MAX_CPU {
			return nil, fmt.Errorf("cpu list %q: invalid range %q", s, item)
		}
		for cpu := from; cpu <= to; cpu++ {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
