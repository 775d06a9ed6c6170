package numcpus_internal

import (
	"fmt"
	"math/bits"
)

// Count the CPUs in a process affinity mask which covers a single processor
// group. When there are more groups, the process may be scheduled on any of
// them, so the mask is not a limit and the count is unsupported.
func processAffinityCount(groupCount int, mask uint64) (int, error) {
	if groupCount > 1 {
		return 0, fmt.Errorf("%d processor groups: %w", groupCount, ErrUnsupported)
	}
	return bits.OnesCount64(mask), nil
}
