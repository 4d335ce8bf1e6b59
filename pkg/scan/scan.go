// Package scan coordinates bounded-concurrency probing of a candidate
// address pool with early stop once a quota of matches is found.
package scan

import (
	"context"

	"github.com/lu-lingyun/CFTest/pkg/probe"
	"github.com/projectdiscovery/gologger"
	syncutil "github.com/projectdiscovery/utils/sync"
)

// DefaultMaxWorkers caps the number of probes in flight at once.
const DefaultMaxWorkers = 1000

// progressInterval is how many completions pass between coarse progress lines.
const progressInterval = 50

// Prober is the unit of work the coordinator schedules per address. A
// returned error means the probe was never attempted (cancelled before
// dispatch) and produced no outcome.
type Prober interface {
	Check(ctx context.Context, address string) (probe.Outcome, error)
}

// Options configures a Coordinator.
type Options struct {
	Prober Prober
	// Quota is how many matches to collect before stopping early.
	Quota      int
	MaxWorkers int
	// SearchMode describes what is being hunted, for progress lines.
	SearchMode string
}

// Coordinator fans the candidate pool out to probe workers under a
// concurrency cap. Once the quota is reached it stops scheduling new
// probes but still drains the ones already in flight; their matches
// still count, so the returned list may slightly overshoot the quota.
// Aggregate truncates the overshoot.
type Coordinator struct {
	options Options
}

// NewCoordinator creates a Coordinator from the given options.
func NewCoordinator(options Options) *Coordinator {
	if options.MaxWorkers <= 0 {
		options.MaxWorkers = DefaultMaxWorkers
	}
	if options.SearchMode == "" {
		options.SearchMode = "reachable addresses"
	}
	return &Coordinator{options: options}
}

// Scan probes every candidate address and returns the matches in
// completion order. It ends either when the quota is reached and the
// in-flight probes have drained, or when the pool is exhausted with
// fewer matches than the quota. Both are normal terminations.
func (c *Coordinator) Scan(ctx context.Context, addresses []string) []probe.Outcome {
	if len(addresses) == 0 || c.options.Quota <= 0 {
		return nil
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	size := c.options.MaxWorkers
	if len(addresses) < size {
		size = len(addresses)
	}
	awg, err := syncutil.New(syncutil.WithSize(size))
	if err != nil {
		gologger.Error().Msgf("could not create worker group: %s", err)
		return nil
	}

	results := make(chan probe.Outcome)
	collected := make(chan []probe.Outcome)

	// The collector goroutine is the only owner of the completed count,
	// the match list and the one-shot cancellation; workers just send
	// outcomes, so no two workers can both decide they hit the quota.
	go c.collect(results, collected, len(addresses), cancel)

	for _, address := range addresses {
		if scanCtx.Err() != nil {
			break
		}
		awg.Add()
		go func(address string) {
			defer awg.Done()
			outcome, err := c.options.Prober.Check(scanCtx, address)
			if err != nil {
				// Cancelled before dispatch: never attempted, no outcome.
				return
			}
			results <- outcome
		}(address)
	}

	awg.Wait()
	close(results)

	return <-collected
}

func (c *Coordinator) collect(results <-chan probe.Outcome, collected chan<- []probe.Outcome, total int, cancel context.CancelFunc) {
	var matches []probe.Outcome
	completed := 0
	cancelled := false

	for outcome := range results {
		completed++

		if outcome.Matched {
			matches = append(matches, outcome)
			gologger.Info().Msgf("found %d/%d %s", len(matches), c.options.Quota, c.options.SearchMode)

			if !cancelled && len(matches) >= c.options.Quota {
				gologger.Info().Msgf("quota of %d reached, stopping search", c.options.Quota)
				cancelled = true
				cancel()
			}
		}

		if completed%progressInterval == 0 || completed == total {
			gologger.Verbose().Msgf("progress: %d/%d (%.1f%%), %d matched",
				completed, total, float64(completed)/float64(total)*100, len(matches))
		}
	}

	collected <- matches
}
