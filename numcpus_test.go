package libnumcpus

import (
	"flag"
	"testing"

	numcpus_testutils "github.com/thechampagne/libnumcpus/testutils"
)

// A program importing the package may define the same flags as the CLI:
var (
	testVersionArg = flag.Bool("version", false, "Print the test version")
	testConfigArg  = flag.String("config", "", "Test config file")
)

func TestImporterFlags(t *testing.T) {
	for name, wantUsage := range map[string]string{
		"version": "Print the test version",
		"config":  "Test config file",
	} {
		f := flag.CommandLine.Lookup(name)
		if f == nil {
			t.Fatalf("flag %q: not registered", name)
		}
		if f.Usage != wantUsage {
			t.Fatalf("flag %q usage: want: %q, got: %q", name, wantUsage, f.Usage)
		}
	}
	t.Logf("version: %v, config: %q", *testVersionArg, *testConfigArg)
	for _, name := range []string{"format", "signals"} {
		if f := flag.CommandLine.Lookup(name); f != nil {
			t.Fatalf("flag %q: want: not registered, got: %q", name, f.Usage)
		}
	}

	// The CLI args can still be had on a private flag set:
	fs := flag.NewFlagSet("numcpus", flag.ContinueOnError)
	args := RegisterRunArgs(fs)
	if err := fs.Parse([]string{"-version", "-format", "yaml"}); err != nil {
		t.Fatal(err)
	}
	if !args.Version || args.Format != "yaml" || args.LoggerArgs {
		t.Fatalf("args: want: Version=true Format=yaml LoggerArgs=false, got: %+v", *args)
	}
}

func TestGet(t *testing.T) {
	tlc := numcpus_testutils.NewTestLogCollect(t, GetRootLogger(), nil)
	defer tlc.RestoreLog()

	logical, physical := Get(), GetPhysical()
	t.Logf("logical: %d, physical: %d", logical, physical)
	if logical < 1 {
		t.Fatalf("Get(): want: >= 1, got: %d", logical)
	}
	if physical < 1 {
		t.Fatalf("GetPhysical(): want: >= 1, got: %d", physical)
	}
	if again := Get(); again != logical {
		t.Fatalf("Get(): want: %d, got: %d", logical, again)
	}
	if lines := tlc.Lines(); len(lines) != 0 {
		t.Fatalf("log lines: want: none, got: %q", lines)
	}
}

func TestGetReport(t *testing.T) {
	report := GetReport()
	if report.Logical != Get() {
		t.Fatalf("Logical: want: %d, got: %d", Get(), report.Logical)
	}
	if report.Physical != GetPhysical() {
		t.Fatalf("Physical: want: %d, got: %d", GetPhysical(), report.Physical)
	}
	if report.PhysicalFallback && report.Physical != report.Logical {
		t.Fatalf("PhysicalFallback: Physical: want: %d, got: %d", report.Logical, report.Physical)
	}
}
