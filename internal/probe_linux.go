// Linux probe, cgroup aware.

//go:build linux

package numcpus_internal

import (
	"github.com/containerd/cgroups/v3"
	"github.com/mackerelio/go-osstat/cpu"
	"github.com/tklauser/numcpus"
)

type LinuxProbe struct {
	// procfs, sysfs and cgroupfs root, "/" except for testing:
	rootDir string
	// Max size for reading a single file:
	maxReadSize int64
	// cgroup mode detection, it can be overridden for testing:
	cgroupMode func() cgroups.CGMode
	// OS count sources, they can be overridden for testing:
	osCountSources []countSource
}

func newPlatformProbe(maxReadSize int64) TopologyProbe {
	return NewLinuxProbe(SYSFILE_READER_ROOT_DIR_DEFAULT, maxReadSize)
}

func NewLinuxProbe(rootDir string, maxReadSize int64) *LinuxProbe {
	return &LinuxProbe{
		rootDir:        rootDir,
		maxReadSize:    maxReadSize,
		cgroupMode:     cgroups.Mode,
		osCountSources: linuxOsCountSources(),
	}
}

func (p *LinuxProbe) Name() string { return "linux" }

// A reader per query, no state shared between concurrent callers:
func (p *LinuxProbe) newReader() *SysFileReader {
	return NewSysFileReader(p.rootDir, p.maxReadSize)
}

// The OS count sources, in order of preference. sysconf is not among them since
// on Linux it is built on the same sources and it never fails.
func linuxOsCountSources() []countSource {
	return []countSource{
		{"numcpus.GetOnline", numcpus.GetOnline},
		{"/proc/stat", procStatCPUCount},
		{"runtime", GenericProbe{}.OsCPUCount},
	}
}

func procStatCPUCount() (int, error) {
	stats, err := cpu.Get()
	if err != nil {
		return 0, err
	}
	return stats.CPUCount, nil
}

func (p *LinuxProbe) OsCPUCount() (int, error) {
	return firstCount("os", p.osCountSources...)
}

func (p *LinuxProbe) AffinityCPUCount() (int, error) {
	return AffinityCPUCount()
}

func (p *LinuxProbe) QuotaCPUCount() (int, error) {
	return CgroupQuotaCPUCount(p.newReader(), p.cgroupMode())
}

func (p *LinuxProbe) PhysicalCoreCount() (int, error) {
	return PhysicalCoreCount(p.newReader())
}
