// Package ranges retrieves the published address range list and expands
// it into the candidate address pool.
//
// The range source may serve one CIDR per line or the Cloudflare JSON
// API shape with the ranges under result.ipv4_cidrs; both are accepted.
// Only strict IPv4 networks (no host bits set) are kept, invalid entries
// are logged and skipped.
package ranges

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/tidwall/gjson"
)

// DefaultURL is the well-known plain-text range list.
const DefaultURL = "https://www.cloudflare-cn.com/ips-v4"

const fetchTimeout = 10 * time.Second

// Fetcher retrieves the list of IPv4 CIDR ranges from a remote source.
type Fetcher struct {
	URL    string
	client *http.Client
}

// NewFetcher creates a Fetcher for the given source URL.
func NewFetcher(url string) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	return &Fetcher{
		URL:    url,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch downloads the range list and returns the valid IPv4 CIDR
// entries. Failure to retrieve the list at all is fatal to the caller;
// individual invalid entries only cost a warning.
func (f *Fetcher) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var cidrs []string
	for _, entry := range parseEntries(body) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !IsValidIPv4CIDR(entry) {
			gologger.Warning().Msgf("ignoring invalid range: %s", entry)
			continue
		}
		cidrs = append(cidrs, entry)
	}
	return cidrs, nil
}

// parseEntries splits the response body into raw range entries,
// accepting either the JSON API shape or a plain line-oriented list.
func parseEntries(body []byte) []string {
	if result := gjson.GetBytes(body, "result.ipv4_cidrs"); result.IsArray() {
		var entries []string
		result.ForEach(func(_, value gjson.Result) bool {
			entries = append(entries, value.String())
			return true
		})
		return entries
	}
	return strings.Split(string(body), "\n")
}

// IsValidIPv4CIDR reports whether s denotes a strict IPv4 network, i.e.
// a CIDR whose host bits are all zero.
func IsValidIPv4CIDR(s string) bool {
	ip, network, err := net.ParseCIDR(s)
	if err != nil {
		return false
	}
	if ip.To4() == nil {
		return false
	}
	return ip.Equal(network.IP)
}
