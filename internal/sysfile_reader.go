// Read procfs, sysfs and cgroupfs files into reusable buffers.
//
// A reader is created for the duration of a single query and it is not meant
// to be shared between goroutines, hence no locking. Reading the topology of a
// machine means reading a couple of small files for each CPU, so recycling the
// buffers still pays off within the query.

package numcpus_internal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

const (
	SYSFILE_READER_MAX_READ_SIZE_UNBOUND = 0
	SYSFILE_READER_MAX_READ_SIZE_DEFAULT = 64 * 1024
	SYSFILE_READER_ROOT_DIR_DEFAULT      = "/"
)

// Reading a file may be limited by a max size; if the cap is reached then it is
// possible that the file was truncated (note that stat system will report size
// 0 for /proc and /sys files, so it cannot be used to determine the actual
// size). Such a condition is reported to the caller, who may decide to use the
// partial content.
var ErrReadFilePotentialTruncation = errors.New("potential truncation")

type SysFileReader struct {
	// All paths are resolved relative to this dir; "/" for the real system, a
	// fake tree for testing:
	rootDir string
	// Recycled buffers:
	pool []*bytes.Buffer
	// Max read size, if > 0, unlimited otherwise:
	maxReadSize int64
}

func NewSysFileReader(rootDir string, maxReadSize int64) *SysFileReader {
	if rootDir == "" {
		rootDir = SYSFILE_READER_ROOT_DIR_DEFAULT
	}
	return &SysFileReader{
		rootDir:     rootDir,
		pool:        make([]*bytes.Buffer, 0, 2),
		maxReadSize: maxReadSize,
	}
}

// Map a system path to the actual path, based on root dir:
func (r *SysFileReader) Path(path string) string {
	if r.rootDir == SYSFILE_READER_ROOT_DIR_DEFAULT {
		return path
	}
	return filepath.Join(r.rootDir, path)
}

func (r *SysFileReader) RootDir() string {
	return r.rootDir
}

func (r *SysFileReader) MaxReadSize() int64 {
	return r.maxReadSize
}

func (r *SysFileReader) GetBuf() *bytes.Buffer {
	if n := len(r.pool); n > 0 {
		buf := r.pool[n-1]
		r.pool = r.pool[:n-1]
		buf.Reset()
		return buf
	}
	return &bytes.Buffer{}
}

func (r *SysFileReader) ReturnBuf(b *bytes.Buffer) {
	if b != nil {
		r.pool = append(r.pool, b)
	}
}

// Read the file (path relative to root dir) into a buffer, which should be
// returned via ReturnBuf when no longer needed. The buffer is returned for
// ErrReadFilePotentialTruncation as well.
func (r *SysFileReader) ReadFile(path string) (*bytes.Buffer, error) {
	f, err := os.Open(r.Path(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b := r.GetBuf()
	if r.maxReadSize > 0 {
		_, err = io.CopyN(b, f, r.maxReadSize)
		if err == io.EOF {
			// File fully read within max size, i.e. no error:
			err = nil
		} else if err == nil {
			err = ErrReadFilePotentialTruncation
		}
	} else {
		_, err = b.ReadFrom(f)
	}
	if err == nil || err == ErrReadFilePotentialTruncation {
		return b, err
	}
	r.ReturnBuf(b)
	return nil, err
}

// Read the whole file as a string, leading and trailing white space stripped.
// Potential truncation is an error since the content would be unreliable.
func (r *SysFileReader) ReadString(path string) (string, error) {
	b, err := r.ReadFile(path)
	if b != nil {
		defer r.ReturnBuf(b)
	}
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(b.Bytes())), nil
}

// Read a file containing a single signed integer:
func (r *SysFileReader) ReadInt(path string) (int64, error) {
	s, err := r.ReadString(path)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("file: %q: %v", path, err)
	}
	return val, nil
}
