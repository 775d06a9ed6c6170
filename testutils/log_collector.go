// Collectable log, (*testing.T).Log style.

// The app logger's output is redirected to the test log, so it is displayed
// only if the test fails or if it runs in verbose mode. The lines are also
// retained, for tests checking what was (or wasn't) logged.

package numcpus_testutils

import (
	"io"
	"strings"
	"sync"
	"testing"
)

// The interface expected from a collectable log:
type CollectableLog interface {
	GetLevel() any
	SetLevel(level any)
	GetOutput() io.Writer
	SetOutput(out io.Writer)
}

type TestLogCollect struct {
	log        CollectableLog
	savedOut   io.Writer
	savedLevel any
	t          *testing.T
	lines      []string
	mu         sync.Mutex
}

// Redirect log, which should implement CollectableLog, to the test log; if
// level is not nil then it is applied for the duration of the test.
func NewTestLogCollect(t *testing.T, log any, level any) *TestLogCollect {
	tlc := &TestLogCollect{
		t:     t,
		lines: make([]string, 0),
	}
	if log, ok := log.(CollectableLog); ok && log != nil {
		tlc.log = log
		tlc.savedOut = log.GetOutput()
		log.SetOutput(tlc)
		if level != nil {
			tlc.savedLevel = log.GetLevel()
			log.SetLevel(level)
		}
	}
	return tlc
}

func (tlc *TestLogCollect) Write(buf []byte) (int, error) {
	n := len(buf)
	line := strings.TrimSuffix(string(buf), "\n")
	tlc.mu.Lock()
	tlc.lines = append(tlc.lines, line)
	tlc.mu.Unlock()
	tlc.t.Log(line)
	return n, nil
}

// The lines collected thus far:
func (tlc *TestLogCollect) Lines() []string {
	tlc.mu.Lock()
	defer tlc.mu.Unlock()
	return append([]string(nil), tlc.lines...)
}

func (tlc *TestLogCollect) RestoreLog() {
	if tlc.log != nil {
		if tlc.savedOut != nil {
			tlc.log.SetOutput(tlc.savedOut)
		}
		if tlc.savedLevel != nil {
			tlc.log.SetLevel(tlc.savedLevel)
		}
	}
}
