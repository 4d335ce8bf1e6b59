package runner

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/logrusorgru/aurora/v4"
	"github.com/lu-lingyun/CFTest/pkg/probe"
	"github.com/lu-lingyun/CFTest/pkg/ranges"
	"github.com/lu-lingyun/CFTest/pkg/report"
	"github.com/lu-lingyun/CFTest/pkg/scan"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	envutil "github.com/projectdiscovery/utils/env"
	sliceutil "github.com/projectdiscovery/utils/slice"
	"github.com/rs/xid"
)

var au *aurora.Aurora

var (
	RangesURLEnv  = envutil.GetEnvOrDefault("CFTEST_RANGES_URL", ranges.DefaultURL)
	MaxThreadsEnv = envutil.GetEnvOrDefault("CFTEST_MAX_THREADS", "")
	TimeoutEnv    = envutil.GetEnvOrDefault("CFTEST_TIMEOUT", "")
)

// Options contains the configuration options for a scan run.
type Options struct {
	TargetColos goflags.StringSlice
	Count       int
	Output      string
	RangesURL   string
	Threads     int
	Timeout     int

	Verbose bool
	Silent  bool
	NoColor bool
	Version bool

	ScanID string
}

// ParseOptions parses the command line flags provided by a user
func ParseOptions() *Options {
	options := &Options{}
	flagSet := goflags.NewFlagSet()

	flagSet.SetDescription(`cftest discovers reachable addresses inside the published address ranges and groups them by the serving location each address reports`)

	flagSet.CreateGroup("target", "Target",
		flagSet.StringSliceVarP(&options.TargetColos, "colo", "d", nil, "target location codes (comma separated, any reachable address when empty)", goflags.NormalizedStringSliceOptions),
		flagSet.StringVar(&options.RangesURL, "url", RangesURLEnv, "source for the address range list"),
	)

	flagSet.CreateGroup("scan", "Scan",
		flagSet.IntVarP(&options.Count, "count", "i", 10, "number of matching addresses to collect"),
		flagSet.IntVarP(&options.Threads, "threads", "c", defaultThreads(), "maximum concurrent probes"),
		flagSet.IntVar(&options.Timeout, "timeout", defaultTimeout(), "probe timeout in seconds"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&options.Output, "output", "o", report.DefaultFilename, "file to write the grouped results to"),
	)

	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Silent, "silent", false, "show only results in output"),
		flagSet.BoolVarP(&options.NoColor, "no-color", "nc", false, "disable output content coloring (ANSI escape codes)"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	// configure aurora for logging
	au = aurora.New(aurora.WithColors(true))

	options.configureOutput()

	showBanner()

	if options.Version {
		gologger.Info().Msgf("Current Version: %s\n", version)
		os.Exit(0)
	}

	options.normalizeTargets()

	if err := options.validateOptions(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	options.ScanID = xid.New().String()

	return options
}

// configureOutput configures the output on the screen
func (options *Options) configureOutput() {
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
		au = aurora.New(aurora.WithColors(false))
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}

// normalizeTargets uppercases the target codes and drops empties and
// duplicates, keeping first-seen order.
func (options *Options) normalizeTargets() {
	var colos []string
	for _, colo := range options.TargetColos {
		colo = strings.ToUpper(strings.TrimSpace(colo))
		if colo != "" {
			colos = append(colos, colo)
		}
	}
	options.TargetColos = sliceutil.Dedupe(colos)
}

// validateOptions rejects configurations that must fail before any
// network activity starts.
func (options *Options) validateOptions() error {
	if options.Count <= 0 {
		return fmt.Errorf("count must be a positive number, got %d", options.Count)
	}
	if options.Threads <= 0 {
		return fmt.Errorf("threads must be a positive number, got %d", options.Threads)
	}
	if options.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive number of seconds, got %d", options.Timeout)
	}
	if options.Output == "" {
		return fmt.Errorf("output file must not be empty")
	}
	return nil
}

// defaultThreads returns the concurrency cap from environment or default
func defaultThreads() int {
	if MaxThreadsEnv != "" {
		if n, err := strconv.Atoi(MaxThreadsEnv); err == nil && n > 0 {
			return n
		}
	}
	return scan.DefaultMaxWorkers
}

// defaultTimeout returns the probe timeout from environment or default
func defaultTimeout() int {
	if TimeoutEnv != "" {
		if n, err := strconv.Atoi(TimeoutEnv); err == nil && n > 0 {
			return n
		}
	}
	return int(probe.DefaultTimeout.Seconds())
}
