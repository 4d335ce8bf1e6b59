package scan

import (
	"encoding/binary"
	"net"
	"sort"

	"github.com/lu-lingyun/CFTest/pkg/probe"
)

// Record is one entry of the final result set: an address, its location
// code and its 1-based index within that code's group.
type Record struct {
	Address string
	Colo    string
	Index   int
}

// Aggregate turns the completion-ordered match list into the final
// deterministic result set: truncated to at most quota entries (earliest
// completions kept), sorted ascending by numeric address value, grouped
// by location code with codes in lexicographic order and a per-group
// index starting at 1. Pure; running it twice on the same input yields
// identical output.
func Aggregate(matches []probe.Outcome, quota int) []Record {
	if quota <= 0 {
		return nil
	}
	if len(matches) > quota {
		matches = matches[:quota]
	}

	sorted := make([]probe.Outcome, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return addressValue(sorted[i].Address) < addressValue(sorted[j].Address)
	})

	groups := make(map[string][]string)
	var colos []string
	for _, match := range sorted {
		if _, ok := groups[match.Colo]; !ok {
			colos = append(colos, match.Colo)
		}
		groups[match.Colo] = append(groups[match.Colo], match.Address)
	}
	sort.Strings(colos)

	var records []Record
	for _, colo := range colos {
		for i, address := range groups[colo] {
			records = append(records, Record{Address: address, Colo: colo, Index: i + 1})
		}
	}
	return records
}

// addressValue maps a dotted-quad address to its numeric value so the
// sort compares addresses numerically rather than lexically.
func addressValue(address string) uint32 {
	ip := net.ParseIP(address)
	if ip == nil {
		return 0
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(ip4)
}
