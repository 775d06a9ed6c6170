//go:build unix

package numcpus_internal

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/tklauser/go-sysconf"
	"golang.org/x/sys/unix"
)

func GetOsInfo() (map[string]string, error) {
	zeroSuffixBufToString := func(buf []byte) string {
		i := bytes.IndexByte(buf, 0)
		if i < 0 {
			i = len(buf)
		}
		return string(buf[:i])
	}

	uname := unix.Utsname{}
	if err := unix.Uname(&uname); err != nil {
		return nil, fmt.Errorf("unix.Uname(): %v", err)
	}

	release := zeroSuffixBufToString(uname.Release[:])
	// The numerical prefix, e.g. 5.4.0 for 5.4.0-42-generic:
	i := 0
	for ; i < len(release); i++ {
		if c := release[i]; c != '.' && (c < '0' || '9' < c) {
			break
		}
	}
	osInfo := map[string]string{
		OS_INFO_NAME:    zeroSuffixBufToString(uname.Sysname[:]),
		OS_INFO_RELEASE: release,
		OS_INFO_VERSION: release[:i],
		OS_INFO_MACHINE: zeroSuffixBufToString(uname.Machine[:]),
	}
	if n, err := sysconf.Sysconf(sysconf.SC_NPROCESSORS_CONF); err == nil && n > 0 {
		osInfo[OS_INFO_CONFIGURED_CPUS] = strconv.FormatInt(n, 10)
	}
	return osInfo, nil
}
