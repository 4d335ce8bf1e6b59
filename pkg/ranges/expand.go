package ranges

import (
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/mapcidr"
)

// Expand enumerates every address contained in the given CIDR ranges,
// collapsing duplicates across overlapping ranges. A range that fails to
// expand is logged and skipped; it never aborts the others. The order of
// the returned addresses carries no meaning.
func Expand(cidrs []string) []string {
	seen := make(map[string]struct{})
	var addresses []string
	for _, cidr := range cidrs {
		ips, err := mapcidr.IPAddresses(cidr)
		if err != nil {
			gologger.Warning().Msgf("could not expand range %s: %s", cidr, err)
			continue
		}
		gologger.Verbose().Msgf("expanded %d addresses from %s", len(ips), cidr)
		for _, ip := range ips {
			if _, ok := seen[ip]; ok {
				continue
			}
			seen[ip] = struct{}{}
			addresses = append(addresses, ip)
		}
	}
	return addresses
}
