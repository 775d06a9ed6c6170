package numcpus_internal

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bgp59/logrusx"
	"gopkg.in/yaml.v3"
)

// The runner is the main entry point for the numcpus diagnostic CLI.
//
// It loads the configuration, it applies the command line overrides, it sets
// the logger and it prints the report for the platform probe. The return value
// is the exit code of the executable.
//
// The library is imported by programs which own their command line, so nothing
// is registered w/ flag.CommandLine unless the executable asks for it via
// RegisterRunArgs. The args must be parsed *before* calling the runner.

const (
	VERSION_FLAG_NAME = "version"
	CONFIG_FLAG_NAME  = "config"
	FORMAT_FLAG_NAME  = "format"
	SIGNALS_FLAG_NAME = "signals"
)

var (
	// Build info, normally set via init() by the user of this package.
	Version string
	GitInfo string
)

type RunArgs struct {
	// Print the version and exit:
	Version bool
	// Config file to load, "" for built-in defaults:
	ConfigFile string
	// Override for numcpus_config.output_format, if not empty:
	Format string
	// Force the signals listing:
	Signals bool
	// Whether the logrusx logger args were registered w/ flag.CommandLine:
	LoggerArgs bool
	// Where to write the report, nil for stdout:
	Out io.Writer
}

// Register the command line args w/ the given flag set. The logger args are
// handled by logrusx which uses flag.CommandLine, so they are registered only
// if that is the flag set in question.
func RegisterRunArgs(fs *flag.FlagSet) *RunArgs {
	args := &RunArgs{}

	fs.BoolVar(
		&args.Version,
		VERSION_FLAG_NAME,
		false,
		FormatFlagUsage(
			`Print the version and exit`,
		),
	)

	fs.StringVar(
		&args.ConfigFile,
		CONFIG_FLAG_NAME,
		"",
		FormatFlagUsage(
			`Config file to load, if not specified then the built-in defaults
			are used`,
		),
	)

	fs.StringVar(
		&args.Format,
		FORMAT_FLAG_NAME,
		"",
		FormatFlagUsage(
			fmt.Sprintf(
				`Override the "numcpus_config.output_format" config setting,
				one of %q or %q`,
				OUTPUT_FORMAT_TEXT, OUTPUT_FORMAT_YAML,
			),
		),
	)

	fs.BoolVar(
		&args.Signals,
		SIGNALS_FLAG_NAME,
		false,
		FormatFlagUsage(
			`Force the listing of the signals the counts were based upon,
			overriding "numcpus_config.show_signals"`,
		),
	)

	if fs == flag.CommandLine {
		logrusx.EnableLoggerArgs()
		args.LoggerArgs = true
	}

	return args
}

var runnerLog = NewCompLogger("runner")

// Run w/ parsed args, nil for defaults:
func Run(args *RunArgs) int {
	if args == nil {
		args = &RunArgs{}
	}
	out := args.Out
	if out == nil {
		out = os.Stdout
	}

	if args.Version {
		fmt.Fprintf(os.Stderr, "Version: %s, GitInfo: %s\n", Version, GitInfo)
		return 0
	}

	numcpusConfig, err := LoadConfig(args.ConfigFile, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
		return 1
	}

	// Override the config with command line args:
	if args.Format != "" {
		numcpusConfig.OutputFormat = args.Format
	}
	if args.Signals {
		numcpusConfig.ShowSignals = true
	}
	if err = numcpusConfig.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid args: %v\n", err)
		return 1
	}
	if args.LoggerArgs {
		logrusx.ApplySetLoggerArgs(numcpusConfig.LoggerConfig)
	}

	// Set the logger level and file:
	err = SetLogger(numcpusConfig.LoggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting the logger: %v\n", err)
		return 1
	}

	probe, err := NewPlatformProbe(numcpusConfig.ProbeConfig)
	if err != nil {
		runnerLog.Error(err)
		return 1
	}
	runnerLog.Debugf("probe: %s", probe.Name())

	report := NewResolver(probe).Report()
	err = WriteReport(out, report, numcpusConfig.OutputFormat, numcpusConfig.ShowSignals)
	if err != nil {
		runnerLog.Error(err)
		return 1
	}
	return 0
}

// Describe the relation between the logical and the physical counts:
func InterpretCounts(logical, physical int) string {
	switch {
	case logical > physical:
		return fmt.Sprintf(
			"simultaneous multithreading w/ about %.2f logical CPUs to 1 physical core",
			float64(logical)/float64(physical),
		)
	case logical == physical:
		return "either no simultaneous multithreading or the physical count is not supported"
	default:
		return "fewer logical CPUs than physical cores, access is restricted to some of the CPUs"
	}
}

// Write the report in the given format; showSignals applies to text format
// only:
func WriteReport(w io.Writer, report *CpuCountReport, format string, showSignals bool) error {
	switch format {
	case OUTPUT_FORMAT_YAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("yaml report: %v", err)
		}
		return encoder.Close()
	case OUTPUT_FORMAT_TEXT, "":
		return writeTextReport(w, report, showSignals)
	}
	return fmt.Errorf("%q: invalid output format", format)
}

func writeTextReport(w io.Writer, report *CpuCountReport, showSignals bool) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("platform: %s, probe: %s\n", report.Platform, report.Probe)
	if report.OsInfo != nil {
		printf(
			"os: %s %s (%s)\n",
			report.OsInfo[OS_INFO_NAME], report.OsInfo[OS_INFO_RELEASE], report.OsInfo[OS_INFO_MACHINE],
		)
		if configured := report.OsInfo[OS_INFO_CONFIGURED_CPUS]; configured != "" {
			printf("configured: %s\n", configured)
		}
	}
	printf("logical: %d\n", report.Logical)
	if report.PhysicalFallback {
		printf("physical: %d (logical fallback)\n", report.Physical)
	} else {
		printf("physical: %d\n", report.Physical)
	}
	printf("%s\n", InterpretCounts(report.Logical, report.Physical))

	if showSignals && len(report.Signals) > 0 {
		printf("signals:\n")
		for _, sr := range report.Signals {
			mark := " "
			if sr.Used {
				mark = "*"
			}
			switch {
			case sr.Unsupported:
				printf("  %s %-9s unsupported\n", mark, sr.Name)
			case sr.Error != "":
				printf("  %s %-9s n/a: %s\n", mark, sr.Name, sr.Error)
			default:
				printf("  %s %-9s %d\n", mark, sr.Name, sr.Value)
			}
		}
	}
	return err
}
