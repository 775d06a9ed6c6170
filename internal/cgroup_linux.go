// Container CPU quota, based on cgroups.
//
// The process cgroup path is determined from /proc/self/cgroup and it is mapped
// to a dir under the matching mount point from /proc/self/mountinfo. The quota
// is read from the process cgroup dir and all its ancestors up to the mount
// point, since a limit set for a parent applies to the children as well; the
// most restrictive one wins.
//
// cgroup v2 (unified):
//   /proc/self/cgroup:     0::<path>
//   <dir>/cpu.max:         <max|QUOTA> PERIOD
//
// cgroup v1 (legacy or hybrid, the cpu controller is v1 in the latter):
//   /proc/self/cgroup:     ID:<...,cpu,...>:<path>
//   <dir>/cpu.cfs_quota_us:  -1|QUOTA
//   <dir>/cpu.cfs_period_us: PERIOD

//go:build linux

package numcpus_internal

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/containerd/cgroups/v3"
)

const (
	CGROUP_PROC_SELF_CGROUP    = "/proc/self/cgroup"
	CGROUP_PROC_SELF_MOUNTINFO = "/proc/self/mountinfo"

	CGROUP_V2_FS_TYPE      = "cgroup2"
	CGROUP_V2_CPU_MAX_FILE = "cpu.max"
	CGROUP_V2_CPU_MAX_NONE = "max"
	// The kernel default, used if cpu.max has no period:
	CGROUP_V2_CPU_PERIOD_DEFAULT = 100000

	CGROUP_V1_FS_TYPE         = "cgroup"
	CGROUP_V1_CPU_CONTROLLER  = "cpu"
	CGROUP_V1_CPU_QUOTA_FILE  = "cpu.cfs_quota_us"
	CGROUP_V1_CPU_PERIOD_FILE = "cpu.cfs_period_us"
)

var cgroupLog = NewCompLogger("cgroup")

type CgroupMount struct {
	// The root of the mount within the hierarchy, field 4 in mountinfo:
	Root string
	// The mount point, field 5 in mountinfo:
	MountPoint string
}

// The quota CPU count for the given cgroup mode:
func CgroupQuotaCPUCount(r *SysFileReader, mode cgroups.CGMode) (int, error) {
	switch mode {
	case cgroups.Unified:
		return cgroupQuotaCPUCount(r, true)
	case cgroups.Legacy, cgroups.Hybrid:
		return cgroupQuotaCPUCount(r, false)
	}
	return 0, fmt.Errorf("cgroups unavailable: %w", ErrNoQuota)
}

func cgroupQuotaCPUCount(r *SysFileReader, v2 bool) (int, error) {
	cgroupPath, err := GetCgroupPath(r, v2)
	if err != nil {
		return 0, err
	}
	mount, err := GetCgroupMount(r, v2)
	if err != nil {
		return 0, err
	}

	dirQuotaCPUCount := cgroupV1DirQuotaCPUCount
	if v2 {
		dirQuotaCPUCount = cgroupV2DirQuotaCPUCount
	}

	count, lastErr := 0, error(ErrNoQuota)
	for _, dir := range CgroupDirs(mount, cgroupPath) {
		n, err := dirQuotaCPUCount(r, dir)
		if err != nil {
			if !errors.Is(err, ErrNoQuota) {
				cgroupLog.Debugf("%s: %v", dir, err)
				lastErr = err
			}
			continue
		}
		if count == 0 || n < count {
			count = n
		}
	}
	if count == 0 {
		return 0, lastErr
	}
	return count, nil
}

// Locate the process cgroup path in /proc/self/cgroup:
func GetCgroupPath(r *SysFileReader, v2 bool) (string, error) {
	b, err := r.ReadFile(CGROUP_PROC_SELF_CGROUP)
	if b != nil {
		defer r.ReturnBuf(b)
	}
	if err != nil {
		return "", err
	}

	scanner := bufio.NewScanner(b)
	for scanner.Scan() {
		// ID:CONTROLLER_LIST:PATH, note that the path may contain ':'
		fields := strings.SplitN(scanner.Text(), ":", 3)
		if len(fields) != 3 {
			continue
		}
		if v2 {
			if fields[0] == "0" && fields[1] == "" {
				return fields[2], nil
			}
			continue
		}
		for _, controller := range strings.Split(fields[1], ",") {
			if controller == CGROUP_V1_CPU_CONTROLLER {
				return fields[2], nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("file: %q: %v", CGROUP_PROC_SELF_CGROUP, err)
	}
	return "", fmt.Errorf("file: %q: no cgroup entry (v2: %v): %w", CGROUP_PROC_SELF_CGROUP, v2, ErrNoQuota)
}

// Locate the cgroup mount in /proc/self/mountinfo:
func GetCgroupMount(r *SysFileReader, v2 bool) (*CgroupMount, error) {
	b, err := r.ReadFile(CGROUP_PROC_SELF_MOUNTINFO)
	if err == ErrReadFilePotentialTruncation {
		// The cgroup mount may be past the cap on hosts w/ many mounts; the
		// file is generated by the kernel so it is safe to read in full:
		cgroupLog.Debugf(
			"file: %q: %v at %d bytes, re-read w/o limit",
			CGROUP_PROC_SELF_MOUNTINFO, err, r.MaxReadSize(),
		)
		r.ReturnBuf(b)
		b, err = NewSysFileReader(r.RootDir(), SYSFILE_READER_MAX_READ_SIZE_UNBOUND).ReadFile(CGROUP_PROC_SELF_MOUNTINFO)
	}
	if err != nil {
		return nil, err
	}
	defer r.ReturnBuf(b)

	wantFsType := CGROUP_V1_FS_TYPE
	if v2 {
		wantFsType = CGROUP_V2_FS_TYPE
	}

	scanner := bufio.NewScanner(b)
	for scanner.Scan() {
		// ID PARENT_ID MAJ:MIN ROOT MOUNT_POINT OPTIONS [OPTIONAL...] - FS_TYPE SOURCE SUPER_OPTIONS
		fields := SplitWords(scanner.Text())
		sep := -1
		for i := 6; i < len(fields); i++ {
			if fields[i] == "-" {
				sep = i
				break
			}
		}
		if sep < 0 || sep+1 >= len(fields) || fields[sep+1] != wantFsType {
			continue
		}
		if !v2 {
			if sep+3 >= len(fields) {
				continue
			}
			hasCpu := false
			for _, opt := range strings.Split(fields[sep+3], ",") {
				if opt == CGROUP_V1_CPU_CONTROLLER {
					hasCpu = true
					break
				}
			}
			if !hasCpu {
				continue
			}
		}
		return &CgroupMount{
			Root:       unescapeMountInfoPath(fields[3]),
			MountPoint: unescapeMountInfoPath(fields[4]),
		}, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("file: %q: %v", CGROUP_PROC_SELF_MOUNTINFO, err)
	}
	return nil, fmt.Errorf("file: %q: no %s mount: %w", CGROUP_PROC_SELF_MOUNTINFO, wantFsType, ErrNoQuota)
}

// The kernel escapes white space and '\' in mountinfo paths as \OOO:
func unescapeMountInfoPath(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	sb := strings.Builder{}
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if c, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				sb.WriteByte(byte(c))
				i += 3
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// The list of system dirs to check for quota, from the process cgroup up to
// the mount point:
func CgroupDirs(mount *CgroupMount, cgroupPath string) []string {
	rel := cgroupPath
	if root := path.Clean(mount.Root); root != "/" {
		switch {
		case cgroupPath == root:
			rel = "/"
		case strings.HasPrefix(cgroupPath, root+"/"):
			rel = cgroupPath[len(root):]
		default:
			// Outside of the mounted subtree, e.g. the process was moved after
			// the mount; the mount point is all there is to check.
			rel = "/"
		}
	}
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}

	dirs := make([]string, 0)
	for dir := path.Clean(rel); ; dir = path.Dir(dir) {
		dirs = append(dirs, path.Join(mount.MountPoint, dir))
		if dir == "/" {
			break
		}
	}
	return dirs
}

func cgroupV2DirQuotaCPUCount(r *SysFileReader, dir string) (int, error) {
	cpuMaxFile := path.Join(dir, CGROUP_V2_CPU_MAX_FILE)
	cpuMax, err := r.ReadString(cpuMaxFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// The root cgroup has no cpu.max and neither do the cgroups w/o
			// the cpu controller enabled.
			return 0, ErrNoQuota
		}
		return 0, err
	}
	fields := SplitWords(cpuMax)
	if fields[0] == CGROUP_V2_CPU_MAX_NONE {
		return 0, ErrNoQuota
	}
	quota, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("file: %q: quota: %v", cpuMaxFile, err)
	}
	period := int64(CGROUP_V2_CPU_PERIOD_DEFAULT)
	if len(fields) > 1 {
		if period, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
			return 0, fmt.Errorf("file: %q: period: %v", cpuMaxFile, err)
		}
	}
	return QuotaCPUCount(quota, period)
}

func cgroupV1DirQuotaCPUCount(r *SysFileReader, dir string) (int, error) {
	quota, err := r.ReadInt(path.Join(dir, CGROUP_V1_CPU_QUOTA_FILE))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNoQuota
		}
		return 0, err
	}
	if quota < 0 {
		// -1, no limit:
		return 0, ErrNoQuota
	}
	period, err := r.ReadInt(path.Join(dir, CGROUP_V1_CPU_PERIOD_FILE))
	if err != nil {
		return 0, err
	}
	return QuotaCPUCount(quota, period)
}

// ceil(quota / period):
func QuotaCPUCount(quota, period int64) (int, error) {
	if quota <= 0 || period <= 0 {
		return 0, fmt.Errorf("invalid quota: %d, period: %d", quota, period)
	}
	n := quota / period
	if quota%period != 0 {
		n++
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return int(n), nil
}
