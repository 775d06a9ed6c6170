package main

import (
	libnumcpus "github.com/thechampagne/libnumcpus"
)

// The exported functions cannot fail, hence the clamping; the counts are
// already >= 1 so it should never apply.
func clampCount(n int) uint {
	if n < 1 {
		return 1
	}
	return uint(n)
}

func logicalCount() uint { return clampCount(libnumcpus.Get()) }

func physicalCount() uint { return clampCount(libnumcpus.GetPhysical()) }
