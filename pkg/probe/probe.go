package probe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/projectdiscovery/gcache"
	"github.com/projectdiscovery/gologger"
)

const (
	// DefaultTimeout bounds a single probe request end to end.
	DefaultTimeout = 3 * time.Second
	// DefaultPort is the port the diagnostic endpoint answers on.
	DefaultPort = 80

	tracePath       = "/cdn-cgi/trace"
	cacheSize       = 65536
	cacheExpiration = 30 * time.Minute
)

// Outcome is the classification of a single probed address. An address
// that is unreachable, answers without a colo line, or answers with a
// colo outside the target set is simply not Matched; none of those are
// errors.
type Outcome struct {
	Address string
	Colo    string
	Matched bool
}

// Options configures a Prober.
type Options struct {
	// Targets restricts matches to the given location codes
	// (case-insensitive). Empty means any classified address matches.
	Targets []string
	Timeout time.Duration
	Port    int
}

// Prober checks single addresses against the diagnostic endpoint and
// classifies them by the colo code in the response. Classified answers
// are kept in an expiring cache so repeated checks of the same address
// within a process skip the network.
type Prober struct {
	client  *http.Client
	targets map[string]struct{}
	port    int
	cache   gcache.Cache[string, string]
}

// New creates a Prober from the given options.
func New(options Options) *Prober {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.Port <= 0 {
		options.Port = DefaultPort
	}
	targets := make(map[string]struct{})
	for _, target := range options.Targets {
		target = strings.ToUpper(strings.TrimSpace(target))
		if target != "" {
			targets[target] = struct{}{}
		}
	}
	return &Prober{
		client:  &http.Client{Timeout: options.Timeout},
		targets: targets,
		port:    options.Port,
		cache: gcache.New[string, string](cacheSize).
			LRU().
			Expiration(cacheExpiration).
			Build(),
	}
}

// Check probes a single address. A context that is already cancelled
// means the probe was never attempted: Check returns the context error
// and no outcome, and the caller must not count it as completed. Once
// the request is dispatched it is bounded only by the probe timeout;
// cancellation never interrupts it mid-flight.
func (p *Prober) Check(ctx context.Context, address string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Address: address}

	ip := net.ParseIP(address)
	if ip == nil || ip.To4() == nil {
		gologger.Warning().Msgf("invalid candidate address: %s", address)
		return outcome, nil
	}

	if colo, err := p.cache.Get(address); err == nil {
		outcome.Colo = colo
		return p.classify(outcome), nil
	}

	colo, ok := p.trace(address)
	if !ok || colo == "" {
		return outcome, nil
	}
	_ = p.cache.Set(address, colo)

	outcome.Colo = colo
	return p.classify(outcome), nil
}

// classify applies the target-set filter to a classified outcome.
func (p *Prober) classify(outcome Outcome) Outcome {
	if outcome.Colo == "" {
		return outcome
	}
	if len(p.targets) == 0 {
		outcome.Matched = true
		return outcome
	}
	_, outcome.Matched = p.targets[outcome.Colo]
	return outcome
}

// trace requests the diagnostic endpoint and extracts the colo code from
// the response body. Any transport failure, bad status or missing colo
// line reads as not classified.
func (p *Prober) trace(address string) (string, bool) {
	url := fmt.Sprintf("http://%s%s", net.JoinHostPort(address, strconv.Itoa(p.port)), tracePath)
	resp, err := p.client.Get(url)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if value, found := strings.CutPrefix(line, "colo="); found {
			return strings.ToUpper(strings.TrimSpace(value)), true
		}
	}
	return "", false
}
