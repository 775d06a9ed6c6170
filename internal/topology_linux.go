// Physical core count, based on the CPU topology.
//
// The primary source is sysfs, w/ a (physical_package_id, core_id) pair for
// every online CPU. /proc/cpuinfo provides the same info via "physical id" and
// "core id" on x86, but not on every architecture, hence it is used only as a
// fallback.

//go:build linux

package numcpus_internal

import (
	"bufio"
	"fmt"
	"strings"
)

const (
	SYSFS_CPU_DIR             = "/sys/devices/system/cpu"
	SYSFS_CPU_ONLINE_FILE     = SYSFS_CPU_DIR + "/online"
	SYSFS_CPU_PACKAGE_ID_FILE = "topology/physical_package_id"
	SYSFS_CPU_CORE_ID_FILE    = "topology/core_id"

	PROC_CPUINFO_FILE          = "/proc/cpuinfo"
	PROC_CPUINFO_PHYSICAL_ID   = "physical id"
	PROC_CPUINFO_CORE_ID       = "core id"
	PROC_CPUINFO_PROCESSOR_KEY = "processor"
)

var topologyLog = NewCompLogger("topology")

// Core identity, unique across packages:
type coreKey struct {
	packageId string
	coreId    string
}

func PhysicalCoreCount(r *SysFileReader) (int, error) {
	count, sysfsErr := SysfsPhysicalCoreCount(r)
	if sysfsErr == nil {
		return count, nil
	}
	topologyLog.Debugf("sysfs: %v", sysfsErr)
	count, err := CpuinfoPhysicalCoreCount(r)
	if err == nil {
		return count, nil
	}
	topologyLog.Debugf("cpuinfo: %v", err)
	return 0, fmt.Errorf("sysfs: %v, cpuinfo: %w", sysfsErr, err)
}

func SysfsPhysicalCoreCount(r *SysFileReader) (int, error) {
	online, err := r.ReadString(SYSFS_CPU_ONLINE_FILE)
	if err != nil {
		return 0, err
	}
	cpus, err := ParseCPUList(online)
	if err != nil {
		return 0, fmt.Errorf("file: %q: %v", SYSFS_CPU_ONLINE_FILE, err)
	}

	cores := make(map[coreKey]bool)
	for _, cpu := range cpus {
		cpuDir := fmt.Sprintf("%s/cpu%d", SYSFS_CPU_DIR, cpu)
		packageId, err := r.ReadString(cpuDir + "/" + SYSFS_CPU_PACKAGE_ID_FILE)
		if err != nil {
			return 0, err
		}
		coreId, err := r.ReadString(cpuDir + "/" + SYSFS_CPU_CORE_ID_FILE)
		if err != nil {
			return 0, err
		}
		if packageId == "" || coreId == "" {
			return 0, fmt.Errorf("%s: empty topology ids", cpuDir)
		}
		cores[coreKey{packageId, coreId}] = true
	}
	if len(cores) == 0 {
		return 0, fmt.Errorf("file: %q: %w", SYSFS_CPU_ONLINE_FILE, ErrNoTopology)
	}
	return len(cores), nil
}

func CpuinfoPhysicalCoreCount(r *SysFileReader) (int, error) {
	b, err := r.ReadFile(PROC_CPUINFO_FILE)
	if b != nil {
		defer r.ReturnBuf(b)
	}
	if err != nil {
		// A truncated cpuinfo would undercount:
		return 0, err
	}

	cores := make(map[coreKey]bool)
	// The current processor block; the package defaults to 0 for single
	// socket systems which may omit it.
	packageId, coreId, inBlock := "0", "", false
	addCore := func() error {
		if !inBlock {
			return nil
		}
		if coreId == "" {
			return fmt.Errorf("file: %q: processor w/o %q", PROC_CPUINFO_FILE, PROC_CPUINFO_CORE_ID)
		}
		cores[coreKey{packageId, coreId}] = true
		packageId, coreId, inBlock = "0", "", false
		return nil
	}

	scanner := bufio.NewScanner(b)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if err := addCore(); err != nil {
				return 0, err
			}
			continue
		}
		key, value, ok := SplitKeyValue(line)
		if !ok {
			continue
		}
		switch key {
		case PROC_CPUINFO_PROCESSOR_KEY:
			// Some kernels omit the blank line separator before the last block:
			if err := addCore(); err != nil {
				return 0, err
			}
			inBlock = true
		case PROC_CPUINFO_PHYSICAL_ID:
			packageId = value
		case PROC_CPUINFO_CORE_ID:
			coreId = value
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("file: %q: %v", PROC_CPUINFO_FILE, err)
	}
	if err := addCore(); err != nil {
		return 0, err
	}
	if len(cores) == 0 {
		return 0, fmt.Errorf("file: %q: %w", PROC_CPUINFO_FILE, ErrNoTopology)
	}
	return len(cores), nil
}
