// CPU topology resolver: reconcile the platform signals into the logical and
// physical counts.
//
// Logical count: the minimum of the available, positive signals among:
//   - the OS count
//   - the affinity mask count
//   - the container quota, ceil(quota/period)
//
// Physical count: the physical core count if supported and successful,
// otherwise the logical count.
//
// Both are >= 1 and neither query returns an error; failures are absorbed and
// they degrade to the next fallback. Nothing is cached, each query reflects the
// live constraints.

package numcpus_internal

import (
	"errors"
	"runtime"
)

const (
	SIGNAL_OS       = "os"
	SIGNAL_AFFINITY = "affinity"
	SIGNAL_QUOTA    = "quota"
	SIGNAL_PHYSICAL = "physical"
)

var resolverLog = NewCompLogger("resolver")

type Resolver struct {
	probe TopologyProbe
}

// The outcome of querying a signal:
type SignalReport struct {
	Name  string `yaml:"name"`
	Value int    `yaml:"value"`
	// Whether the signal was used in the final count:
	Used bool `yaml:"used"`
	// The reason for not being available, if any:
	Error string `yaml:"error,omitempty"`
	// Not available on this platform, as opposed to failed:
	Unsupported bool `yaml:"unsupported,omitempty"`
}

type CpuCountReport struct {
	Probe    string            `yaml:"probe"`
	Platform string            `yaml:"platform"`
	OsInfo   map[string]string `yaml:"os_info,omitempty"`
	Logical  int               `yaml:"logical"`
	Physical int               `yaml:"physical"`
	// Whether the physical count is in fact the logical one:
	PhysicalFallback bool            `yaml:"physical_fallback"`
	Signals          []*SignalReport `yaml:"signals"`
}

func NewResolver(probe TopologyProbe) *Resolver {
	if probe == nil {
		probe = DefaultPlatformProbe()
	}
	return &Resolver{probe: probe}
}

func (r *Resolver) Probe() TopologyProbe {
	return r.probe
}

func newSignalReport(name string, value int, err error) *SignalReport {
	sr := &SignalReport{Name: name, Value: value}
	if err != nil {
		sr.Error = err.Error()
		sr.Unsupported = errors.Is(err, ErrUnsupported)
	}
	return sr
}

func (r *Resolver) querySignal(name string, get func() (int, error)) *SignalReport {
	n, err := get()
	if err == nil && n <= 0 {
		err = errors.New("non-positive count")
	}
	if err != nil {
		resolverLog.Debugf("%s: %v", name, err)
		return newSignalReport(name, 0, err)
	}
	return newSignalReport(name, n, nil)
}

// Resolve the logical count, also returning the signals it was based on:
func (r *Resolver) logicalCount() (int, []*SignalReport) {
	signals := []*SignalReport{
		r.querySignal(SIGNAL_OS, r.probe.OsCPUCount),
		r.querySignal(SIGNAL_AFFINITY, r.probe.AffinityCPUCount),
		r.querySignal(SIGNAL_QUOTA, r.probe.QuotaCPUCount),
	}

	var minSignal *SignalReport
	for _, sr := range signals {
		if sr.Error == "" && (minSignal == nil || sr.Value < minSignal.Value) {
			minSignal = sr
		}
	}
	if minSignal == nil {
		return 1, signals
	}
	minSignal.Used = true
	return minSignal.Value, signals
}

func (r *Resolver) physicalCount() (int, *SignalReport) {
	sr := r.querySignal(SIGNAL_PHYSICAL, r.probe.PhysicalCoreCount)
	if sr.Error != "" {
		return 0, sr
	}
	sr.Used = true
	return sr.Value, sr
}

func (r *Resolver) LogicalCount() int {
	count, _ := r.logicalCount()
	return count
}

// Note that the physical count is not narrowed by affinity or quota, so it is
// not guaranteed to be <= logical count.
func (r *Resolver) PhysicalCount() int {
	if count, _ := r.physicalCount(); count > 0 {
		return count
	}
	// A fresh logical query, independent from the failed physical one:
	return r.LogicalCount()
}

func (r *Resolver) Report() *CpuCountReport {
	report := &CpuCountReport{
		Probe:    r.probe.Name(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if osInfo, err := GetOsInfo(); err == nil {
		report.OsInfo = osInfo
	} else {
		resolverLog.Debugf("GetOsInfo: %v", err)
	}

	logical, signals := r.logicalCount()
	physical, physicalSignal := r.physicalCount()
	report.Logical = logical
	if physical > 0 {
		report.Physical = physical
	} else {
		report.Physical = logical
		report.PhysicalFallback = true
	}
	report.Signals = append(signals, physicalSignal)
	return report
}

// Convenience functions w/ the default platform probe:
func LogicalCount() int {
	return NewResolver(DefaultPlatformProbe()).LogicalCount()
}

func PhysicalCount() int {
	return NewResolver(DefaultPlatformProbe()).PhysicalCount()
}
