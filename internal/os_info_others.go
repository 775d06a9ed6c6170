//go:build !unix && !windows

package numcpus_internal

func GetOsInfo() (map[string]string, error) {
	return nil, ErrUnsupported
}
