// OS identification, for the diagnostic report.

package numcpus_internal

const (
	OS_INFO_NAME    = "name"
	OS_INFO_RELEASE = "release"
	OS_INFO_VERSION = "version"
	OS_INFO_MACHINE = "machine"
	// The number of CPUs configured, online or not, where available:
	OS_INFO_CONFIGURED_CPUS = "configured_cpus"
)
