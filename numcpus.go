// The public face of the CPU count library for the Go users of this package;
// the C users go through capi.

package libnumcpus

import (
	"flag"

	"github.com/sirupsen/logrus"

	numcpus_internal "github.com/thechampagne/libnumcpus/internal"
)

type TopologyProbe = numcpus_internal.TopologyProbe
type CpuCountReport = numcpus_internal.CpuCountReport
type SignalReport = numcpus_internal.SignalReport
type RunArgs = numcpus_internal.RunArgs

// The number of logical CPUs usable by the calling thread, narrowed by the
// affinity mask and by the container CPU quota where applicable. It never
// fails, the result is >= 1.
func Get() int { return numcpus_internal.LogicalCount() }

// The number of physical cores of the machine. If that cannot be determined,
// then it falls back to Get(). The result is >= 1 but, unlike Get(), it is not
// narrowed by affinity or quota.
func GetPhysical() int { return numcpus_internal.PhysicalCount() }

// The counts together w/ the signals they were based upon, for diagnostics.
func GetReport() *CpuCountReport {
	return numcpus_internal.NewResolver(nil).Report()
}

// The root logger. Needed only for tests where the logger is captured (see
// testutils/log_collector.go), its actual type is obscured:
//
//	func TestSomethingWithLogger() {
//		tlc := numcpus_testutils.NewTestLogCollect(t, libnumcpus.GetRootLogger(), nil)
//		defer tlc.RestoreLog()
//		...
//	}
func GetRootLogger() any { return numcpus_internal.RootLogger }

// Create new component logger w/ comp=compName field:
func NewCompLogger(comp string) *logrus.Entry {
	return numcpus_internal.NewCompLogger(comp)
}

// Update build info: version (semver) and git info. This function should be
// called *before* the runner is invoked, typically from an init() function.
func UpdateBuildInfo(version, gitInfo string) {
	numcpus_internal.Version = version
	numcpus_internal.GitInfo = gitInfo
}

// Register the diagnostic CLI args w/ the flag set, normally flag.CommandLine
// from the executable's main package. Nothing is registered by merely
// importing this package.
func RegisterRunArgs(fs *flag.FlagSet) *RunArgs {
	return numcpus_internal.RegisterRunArgs(fs)
}

// Format a flag usage message, wrapping it around at a fixed width:
func FormatFlagUsage(usage string) string {
	return numcpus_internal.FormatFlagUsage(usage)
}

// The entry point for the diagnostic CLI, w/ already parsed args (nil for
// defaults); its return value should be used as process exit status.
func Run(args *RunArgs) int { return numcpus_internal.Run(args) }
