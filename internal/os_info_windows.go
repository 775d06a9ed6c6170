//go:build windows

package numcpus_internal

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/windows"
)

func GetOsInfo() (map[string]string, error) {
	info := windows.RtlGetVersion()
	version := fmt.Sprintf("%d.%d.%d", info.MajorVersion, info.MinorVersion, info.BuildNumber)
	return map[string]string{
		OS_INFO_NAME:    "Windows",
		OS_INFO_RELEASE: version,
		OS_INFO_VERSION: version,
		OS_INFO_MACHINE: runtime.GOARCH,
	}, nil
}
