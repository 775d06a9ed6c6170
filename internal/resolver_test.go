package numcpus_internal

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	numcpus_testutils "github.com/thechampagne/libnumcpus/testutils"
)

// A probe w/ canned signals:
type testProbe struct {
	os, affinity, quota, physical             int
	osErr, affinityErr, quotaErr, physicalErr error
	// Query counters:
	osCalls, physicalCalls int
	mu                     sync.Mutex
}

func (p *testProbe) Name() string { return "test" }

func (p *testProbe) OsCPUCount() (int, error) {
	p.mu.Lock()
	p.osCalls++
	p.mu.Unlock()
	return p.os, p.osErr
}

func (p *testProbe) AffinityCPUCount() (int, error) { return p.affinity, p.affinityErr }

func (p *testProbe) QuotaCPUCount() (int, error) { return p.quota, p.quotaErr }

func (p *testProbe) PhysicalCoreCount() (int, error) {
	p.mu.Lock()
	p.physicalCalls++
	p.mu.Unlock()
	return p.physical, p.physicalErr
}

var errTestProbe = errors.New("test probe failure")

type ResolverTestCase struct {
	Name         string
	Probe        *testProbe
	WantLogical  int
	WantPhysical int
}

func testResolver(t *testing.T, tc *ResolverTestCase) {
	r := NewResolver(tc.Probe)
	if got := r.LogicalCount(); got != tc.WantLogical {
		t.Fatalf("LogicalCount(): want: %d, got: %d", tc.WantLogical, got)
	}
	if got := r.PhysicalCount(); got != tc.WantPhysical {
		t.Fatalf("PhysicalCount(): want: %d, got: %d", tc.WantPhysical, got)
	}

	report := r.Report()
	if report.Logical != tc.WantLogical {
		t.Fatalf("Report().Logical: want: %d, got: %d", tc.WantLogical, report.Logical)
	}
	if report.Physical != tc.WantPhysical {
		t.Fatalf("Report().Physical: want: %d, got: %d", tc.WantPhysical, report.Physical)
	}
	wantFallback := tc.Probe.physicalErr != nil || tc.Probe.physical <= 0
	if report.PhysicalFallback != wantFallback {
		t.Fatalf("Report().PhysicalFallback: want: %v, got: %v", wantFallback, report.PhysicalFallback)
	}
	if len(report.Signals) != 4 {
		t.Fatalf("len(Report().Signals): want: %d, got: %d", 4, len(report.Signals))
	}
}

func TestResolver(t *testing.T) {
	for _, tc := range []*ResolverTestCase{
		{
			Name:         "unconstrained_8_logical_4_physical",
			Probe:        &testProbe{os: 8, affinity: 8, quotaErr: ErrNoQuota, physical: 4},
			WantLogical:  8,
			WantPhysical: 4,
		},
		{
			Name:         "single_core",
			Probe:        &testProbe{os: 1, affinity: 1, quotaErr: ErrNoQuota, physical: 1},
			WantLogical:  1,
			WantPhysical: 1,
		},
		{
			Name:         "single_core_container",
			Probe:        &testProbe{os: 16, affinity: 16, quota: 1, physical: 8},
			WantLogical:  1,
			WantPhysical: 8,
		},
		{
			Name:         "affinity_narrowing",
			Probe:        &testProbe{os: 8, affinity: 3, quotaErr: ErrNoQuota, physical: 4},
			WantLogical:  3,
			WantPhysical: 4,
		},
		{
			Name:         "affinity_unsupported",
			Probe:        &testProbe{os: 8, affinityErr: ErrUnsupported, quotaErr: ErrUnsupported, physical: 4},
			WantLogical:  8,
			WantPhysical: 4,
		},
		{
			Name:         "affinity_above_os",
			Probe:        &testProbe{os: 4, affinity: 6, quotaErr: ErrNoQuota, physical: 2},
			WantLogical:  4,
			WantPhysical: 2,
		},
		{
			Name:         "quota_narrowing",
			Probe:        &testProbe{os: 8, affinity: 6, quota: 2, physical: 4},
			WantLogical:  2,
			WantPhysical: 4,
		},
		{
			Name:         "quota_above_affinity",
			Probe:        &testProbe{os: 8, affinity: 2, quota: 3, physical: 4},
			WantLogical:  2,
			WantPhysical: 4,
		},
		{
			Name:         "quota_failure",
			Probe:        &testProbe{os: 8, affinity: 8, quotaErr: errTestProbe, physical: 4},
			WantLogical:  8,
			WantPhysical: 4,
		},
		{
			Name:         "os_failure",
			Probe:        &testProbe{osErr: errTestProbe, affinity: 4, quotaErr: ErrNoQuota, physical: 2},
			WantLogical:  4,
			WantPhysical: 2,
		},
		{
			Name:         "all_failures",
			Probe:        &testProbe{osErr: errTestProbe, affinityErr: errTestProbe, quotaErr: errTestProbe, physicalErr: errTestProbe},
			WantLogical:  1,
			WantPhysical: 1,
		},
		{
			Name:         "zero_counts",
			Probe:        &testProbe{},
			WantLogical:  1,
			WantPhysical: 1,
		},
		{
			Name:         "physical_failure",
			Probe:        &testProbe{os: 8, affinity: 8, quotaErr: ErrNoQuota, physicalErr: errTestProbe},
			WantLogical:  8,
			WantPhysical: 8,
		},
		{
			Name:         "physical_unsupported",
			Probe:        &testProbe{os: 8, affinity: 5, quotaErr: ErrNoQuota, physicalErr: ErrUnsupported},
			WantLogical:  5,
			WantPhysical: 5,
		},
		{
			Name:         "physical_zero",
			Probe:        &testProbe{os: 8, affinity: 8, quota: 3, physical: 0},
			WantLogical:  3,
			WantPhysical: 3,
		},
		{
			Name:         "physical_above_logical",
			Probe:        &testProbe{os: 8, affinity: 2, quotaErr: ErrNoQuota, physical: 4},
			WantLogical:  2,
			WantPhysical: 4,
		},
	} {
		t.Run(tc.Name, func(t *testing.T) { testResolver(t, tc) })
	}
}

func TestResolverPhysicalFailureIndependence(t *testing.T) {
	probe := &testProbe{os: 12, affinity: 10, quota: 7, physical: 6}
	r := NewResolver(probe)
	wantLogical := r.LogicalCount()

	probe.physicalErr = errTestProbe
	if got := r.PhysicalCount(); got != wantLogical {
		t.Fatalf("PhysicalCount(): want: %d, got: %d", wantLogical, got)
	}
	if got := r.LogicalCount(); got != wantLogical {
		t.Fatalf("LogicalCount(): want: %d, got: %d", wantLogical, got)
	}

	// A successful physical query should not trigger a logical one:
	probe.physicalErr = nil
	probe.osCalls = 0
	if got := r.PhysicalCount(); got != 6 {
		t.Fatalf("PhysicalCount(): want: %d, got: %d", 6, got)
	}
	if probe.osCalls != 0 {
		t.Fatalf("osCalls: want: %d, got: %d", 0, probe.osCalls)
	}
}

func TestResolverNoCaching(t *testing.T) {
	probe := &testProbe{os: 8, affinity: 8, quotaErr: ErrNoQuota, physical: 4}
	r := NewResolver(probe)
	if got := r.LogicalCount(); got != 8 {
		t.Fatalf("LogicalCount(): want: %d, got: %d", 8, got)
	}
	// Container rescheduled w/ a narrower mask:
	probe.affinity = 2
	if got := r.LogicalCount(); got != 2 {
		t.Fatalf("LogicalCount(): want: %d, got: %d", 2, got)
	}
	probe.quota, probe.quotaErr = 1, nil
	if got := r.LogicalCount(); got != 1 {
		t.Fatalf("LogicalCount(): want: %d, got: %d", 1, got)
	}
}

func TestResolverReportSignals(t *testing.T) {
	r := NewResolver(&testProbe{os: 8, affinity: 4, quotaErr: ErrUnsupported, physicalErr: errTestProbe})
	report := r.Report()
	if report.Probe != "test" {
		t.Fatalf("Probe: want: %q, got: %q", "test", report.Probe)
	}
	for _, tc := range []struct {
		wantName        string
		wantValue       int
		wantUsed        bool
		wantErr         bool
		wantUnsupported bool
	}{
		{SIGNAL_OS, 8, false, false, false},
		{SIGNAL_AFFINITY, 4, true, false, false},
		{SIGNAL_QUOTA, 0, false, true, true},
		{SIGNAL_PHYSICAL, 0, false, true, false},
	} {
		t.Run(tc.wantName, func(t *testing.T) {
			var sr *SignalReport
			for _, s := range report.Signals {
				if s.Name == tc.wantName {
					sr = s
					break
				}
			}
			if sr == nil {
				t.Fatalf("%s: signal not found", tc.wantName)
			}
			got := fmt.Sprintf("value=%d used=%v err=%v unsupported=%v", sr.Value, sr.Used, sr.Error != "", sr.Unsupported)
			want := fmt.Sprintf("value=%d used=%v err=%v unsupported=%v", tc.wantValue, tc.wantUsed, tc.wantErr, tc.wantUnsupported)
			if got != want {
				t.Fatalf("want: %s, got: %s", want, got)
			}
		})
	}
}

func TestResolverConcurrent(t *testing.T) {
	probe := &testProbe{os: 8, affinity: 8, quotaErr: ErrNoQuota, physical: 4}
	r := NewResolver(probe)
	numGoroutines := 16
	wg := &sync.WaitGroup{}
	errs := make(chan error, 2*numGoroutines)
	for k := 0; k < numGoroutines; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if got := r.LogicalCount(); got != 8 {
					errs <- fmt.Errorf("LogicalCount(): want: %d, got: %d", 8, got)
					return
				}
				if got := r.PhysicalCount(); got != 4 {
					errs <- fmt.Errorf("PhysicalCount(): want: %d, got: %d", 4, got)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestResolverPlatform(t *testing.T) {
	r := NewResolver(nil)
	logical, physical := r.LogicalCount(), r.PhysicalCount()
	t.Logf("probe: %s, logical: %d, physical: %d", r.Probe().Name(), logical, physical)
	if logical < 1 {
		t.Fatalf("LogicalCount(): want: >= 1, got: %d", logical)
	}
	if physical < 1 {
		t.Fatalf("PhysicalCount(): want: >= 1, got: %d", physical)
	}
	// Stable environment:
	if again := r.LogicalCount(); again != logical {
		t.Fatalf("LogicalCount(): want: %d, got: %d", logical, again)
	}
	if again := LogicalCount(); again != logical {
		t.Fatalf("LogicalCount(): want: %d, got: %d", logical, again)
	}
	if again := PhysicalCount(); again != physical {
		t.Fatalf("PhysicalCount(): want: %d, got: %d", physical, again)
	}
}

func TestResolverPlatformPhysicalFallback(t *testing.T) {
	probe := DefaultPlatformProbe()
	r := NewResolver(&failingPhysicalProbe{probe})
	if logical, physical := NewResolver(probe).LogicalCount(), r.PhysicalCount(); logical != physical {
		t.Fatalf("PhysicalCount(): want: %d, got: %d", logical, physical)
	}
}

// The platform probe w/ the physical query forced to fail:
type failingPhysicalProbe struct {
	TopologyProbe
}

func (failingPhysicalProbe) PhysicalCoreCount() (int, error) { return 0, errTestProbe }

func TestResolverSilentAtDefaultLevel(t *testing.T) {
	tlc := numcpus_testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	r := NewResolver(&testProbe{osErr: errTestProbe, affinityErr: errTestProbe, quotaErr: errTestProbe, physicalErr: errTestProbe})
	r.LogicalCount()
	r.PhysicalCount()
	if lines := tlc.Lines(); len(lines) != 0 {
		t.Fatalf("log lines: want: none, got: %q", lines)
	}
}
