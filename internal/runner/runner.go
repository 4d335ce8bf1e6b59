package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lu-lingyun/CFTest/pkg/probe"
	"github.com/lu-lingyun/CFTest/pkg/ranges"
	"github.com/lu-lingyun/CFTest/pkg/report"
	"github.com/lu-lingyun/CFTest/pkg/scan"
	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
	"github.com/shirou/gopsutil/v3/mem"
)

// Runner contains the internal logic of the program
type Runner struct {
	options *Options
}

// NewRunner instance
func NewRunner(options *Options) (*Runner, error) {
	return &Runner{options: options}, nil
}

// Run executes the full pipeline: fetch the range list, expand it into
// the candidate pool, scan under the concurrency cap until the quota is
// reached or the pool is exhausted, then aggregate and write the report.
func (r *Runner) Run(ctx context.Context) error {
	searchMode := r.searchMode()
	gologger.Info().Msgf("starting scan %s: collecting up to %d %s", r.options.ScanID, r.options.Count, searchMode)

	gologger.Info().Msgf("fetching address ranges from %s", r.options.RangesURL)
	fetcher := ranges.NewFetcher(r.options.RangesURL)
	cidrs, err := fetcher.Fetch(ctx)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("could not fetch address ranges from %s", r.options.RangesURL)
	}
	if len(cidrs) == 0 {
		return errors.New("range source returned no valid ranges")
	}
	gologger.Info().Msgf("fetched %d valid ranges", len(cidrs))

	if vm, err := mem.VirtualMemory(); err == nil {
		gologger.Verbose().Msgf("host memory before expansion: %d MB available", vm.Available/1024/1024)
	}

	addresses := ranges.Expand(cidrs)
	if len(addresses) == 0 {
		return errors.New("no candidate addresses after expansion")
	}
	gologger.Info().Msgf("expanded %s unique candidate addresses, checking each one", au.Cyan(strconv.Itoa(len(addresses))))

	prober := probe.New(probe.Options{
		Targets: r.options.TargetColos,
		Timeout: time.Duration(r.options.Timeout) * time.Second,
	})
	coordinator := scan.NewCoordinator(scan.Options{
		Prober:     prober,
		Quota:      r.options.Count,
		MaxWorkers: r.options.Threads,
		SearchMode: searchMode,
	})
	matches := coordinator.Scan(ctx, addresses)

	records := scan.Aggregate(matches, r.options.Count)
	if err := report.Write(r.options.Output, records); err != nil {
		return errorutil.NewWithErr(err).Msgf("could not write report to %s", r.options.Output)
	}

	gologger.Info().Msgf("done: found %s %s, saved to %s", au.Green(strconv.Itoa(len(records))), searchMode, r.options.Output)
	return nil
}

// Close the runner instance
func (r *Runner) Close() {}

// searchMode describes what the scan is hunting for in progress lines.
func (r *Runner) searchMode() string {
	if len(r.options.TargetColos) > 0 {
		return fmt.Sprintf("addresses in %s", strings.Join(r.options.TargetColos, ", "))
	}
	return "reachable addresses"
}
