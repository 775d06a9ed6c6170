// Platform probes for the CPU count signals.
//
// Each supported platform provides its own TopologyProbe, selected at build
// time via NewPlatformProbe. The signals are queried independently by the
// resolver; a probe never combines them.

package numcpus_internal

import (
	"fmt"
	"runtime"

	"github.com/docker/go-units"
)

const (
	PROBE_CONFIG_MAX_READ_SIZE_DEFAULT = "64k"
)

var probeLog = NewCompLogger("probe")

type TopologyProbe interface {
	// The probe name, for reporting purposes:
	Name() string
	// The number of logical CPUs on the machine, as reported by the OS:
	OsCPUCount() (int, error)
	// The number of CPUs in the affinity mask of the calling thread (or process,
	// if the platform has no thread level mask):
	AffinityCPUCount() (int, error)
	// The container CPU quota, as ceil(quota / period); ErrNoQuota if there is
	// no limit in effect:
	QuotaCPUCount() (int, error)
	// The number of distinct physical cores:
	PhysicalCoreCount() (int, error)
}

type ProbeConfig struct {
	// The max size for reading a single system file (procfs, sysfs, cgroupfs),
	// in units.RAMInBytes format. 0 stands for unlimited.
	MaxReadSize string `yaml:"max_read_size"`
}

func DefaultProbeConfig() *ProbeConfig {
	return &ProbeConfig{
		MaxReadSize: PROBE_CONFIG_MAX_READ_SIZE_DEFAULT,
	}
}

func (cfg *ProbeConfig) GetMaxReadSize() (int64, error) {
	if cfg == nil || cfg.MaxReadSize == "" {
		return SYSFILE_READER_MAX_READ_SIZE_DEFAULT, nil
	}
	maxReadSize, err := units.RAMInBytes(cfg.MaxReadSize)
	if err != nil {
		return 0, fmt.Errorf("max_read_size: %q: %v", cfg.MaxReadSize, err)
	}
	if maxReadSize < 0 {
		return 0, fmt.Errorf("max_read_size: %q: negative value", cfg.MaxReadSize)
	}
	return maxReadSize, nil
}

// The platform probe w/ the default config; it cannot fail.
func DefaultPlatformProbe() TopologyProbe {
	return newPlatformProbe(SYSFILE_READER_MAX_READ_SIZE_DEFAULT)
}

// The platform probe w/ a given config (nil for default):
func NewPlatformProbe(cfg *ProbeConfig) (TopologyProbe, error) {
	maxReadSize, err := cfg.GetMaxReadSize()
	if err != nil {
		return nil, err
	}
	return newPlatformProbe(maxReadSize), nil
}

// The generic probe, relying on the Go runtime only. It is the fallback for
// platforms w/o a specific probe and the last resort for the OS count on
// those with one.
type GenericProbe struct{}

func (GenericProbe) Name() string { return "generic" }

// The runtime determines the count at startup, based on the affinity mask where
// supported, so it is not quite the raw OS count; it is however always >= 1.
func (GenericProbe) OsCPUCount() (int, error) { return runtime.NumCPU(), nil }

func (GenericProbe) AffinityCPUCount() (int, error) { return 0, ErrUnsupported }

func (GenericProbe) QuotaCPUCount() (int, error) { return 0, ErrUnsupported }

func (GenericProbe) PhysicalCoreCount() (int, error) { return 0, ErrUnsupported }

// Return the 1st successful positive count from a list of named sources,
// logging the failures at debug level:
type countSource struct {
	name string
	get  func() (int, error)
}

func firstCount(signal string, sources ...countSource) (int, error) {
	var err error
	for _, src := range sources {
		var n int
		n, err = src.get()
		if err == nil && n > 0 {
			return n, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: invalid count %d", src.name, n)
		} else {
			err = fmt.Errorf("%s: %w", src.name, err)
		}
		probeLog.Debugf("%s: %v", signal, err)
	}
	if err == nil {
		err = fmt.Errorf("%s: no source", signal)
	}
	return 0, err
}

// Build a count source from an int64 returning function, such as sysconf:
func int64Source(name string, get func() (int64, error)) countSource {
	return countSource{
		name: name,
		get: func() (int, error) {
			n, err := get()
			return int(n), err
		},
	}
}
