//go:build !linux && !windows

package numcpus_internal

// macOS has only affinity tags (hints), other platforms are not covered:
func AffinityCPUCount() (int, error) {
	return 0, ErrUnsupported
}
