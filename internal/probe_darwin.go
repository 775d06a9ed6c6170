// macOS probe, sysctl based.

//go:build darwin

package numcpus_internal

import (
	"github.com/tklauser/go-sysconf"
	"golang.org/x/sys/unix"
)

const (
	SYSCTL_LOGICAL_CPU  = "hw.logicalcpu"
	SYSCTL_PHYSICAL_CPU = "hw.physicalcpu"
)

type DarwinProbe struct{}

func newPlatformProbe(maxReadSize int64) TopologyProbe {
	return DarwinProbe{}
}

func (DarwinProbe) Name() string { return "darwin" }

func sysctlCount(name string) countSource {
	return countSource{
		name: name,
		get: func() (int, error) {
			n, err := unix.SysctlUint32(name)
			return int(n), err
		},
	}
}

func (DarwinProbe) OsCPUCount() (int, error) {
	return firstCount(
		"os",
		int64Source("sysconf(SC_NPROCESSORS_ONLN)", func() (int64, error) {
			return sysconf.Sysconf(sysconf.SC_NPROCESSORS_ONLN)
		}),
		sysctlCount(SYSCTL_LOGICAL_CPU),
		countSource{"runtime", GenericProbe{}.OsCPUCount},
	)
}

func (DarwinProbe) AffinityCPUCount() (int, error) {
	return AffinityCPUCount()
}

// No container quota mechanism:
func (DarwinProbe) QuotaCPUCount() (int, error) { return 0, ErrUnsupported }

// hw.physicalcpu reflects the current power management mode; not cached.
func (DarwinProbe) PhysicalCoreCount() (int, error) {
	return firstCount("physical", sysctlCount(SYSCTL_PHYSICAL_CPU))
}
