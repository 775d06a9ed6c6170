package numcpus_internal

import "errors"

var (
	// The signal cannot be queried on this platform:
	ErrUnsupported = errors.New("not supported on this platform")
	// No container CPU quota is in effect:
	ErrNoQuota = errors.New("no CPU quota")
	// The topology data was readable but yielded no physical core:
	ErrNoTopology = errors.New("no physical core found")
)
