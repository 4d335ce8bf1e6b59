package scan

import (
	"reflect"
	"testing"

	"github.com/lu-lingyun/CFTest/pkg/probe"
)

func match(address, colo string) probe.Outcome {
	return probe.Outcome{Address: address, Colo: colo, Matched: true}
}

func TestAggregateOrdering(t *testing.T) {
	// Completion order is deliberately scrambled; the aggregator must
	// impose numeric address order within lexicographically ordered
	// colo groups.
	matches := []probe.Outcome{
		match("10.0.0.1", "BBB"),
		match("9.0.0.1", "AAA"),
		match("2.0.0.1", "BBB"),
	}

	got := Aggregate(matches, 10)
	want := []Record{
		{Address: "9.0.0.1", Colo: "AAA", Index: 1},
		{Address: "2.0.0.1", Colo: "BBB", Index: 1},
		{Address: "10.0.0.1", Colo: "BBB", Index: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Aggregate() = %+v, want %+v", got, want)
	}
}

func TestAggregateNumericAddressSort(t *testing.T) {
	// Lexical string order would put 100.0.0.1 before 20.0.0.1.
	matches := []probe.Outcome{
		match("100.0.0.1", "AAA"),
		match("20.0.0.1", "AAA"),
	}

	got := Aggregate(matches, 10)
	if got[0].Address != "20.0.0.1" || got[1].Address != "100.0.0.1" {
		t.Errorf("Aggregate() order = [%s %s], want numeric ascending", got[0].Address, got[1].Address)
	}
}

func TestAggregateTruncatesOvershoot(t *testing.T) {
	// The race policy allows the match list to overshoot the quota by
	// probes that were already in flight; the earliest completions win.
	matches := []probe.Outcome{
		match("1.0.0.1", "AAA"),
		match("1.0.0.2", "AAA"),
		match("1.0.0.3", "AAA"),
		match("1.0.0.4", "AAA"),
		match("1.0.0.5", "AAA"),
	}

	got := Aggregate(matches, 3)
	if len(got) != 3 {
		t.Fatalf("Aggregate() returned %d records, want 3", len(got))
	}
	for _, record := range got {
		if record.Address == "1.0.0.4" || record.Address == "1.0.0.5" {
			t.Errorf("Aggregate() kept %s, want the overshoot tail dropped", record.Address)
		}
	}
}

func TestAggregateGroupIndices(t *testing.T) {
	matches := []probe.Outcome{
		match("3.0.0.1", "SJC"),
		match("1.0.0.1", "AMS"),
		match("2.0.0.1", "SJC"),
		match("4.0.0.1", "AMS"),
		match("5.0.0.1", "FRA"),
	}

	got := Aggregate(matches, 10)

	indices := make(map[string][]int)
	for _, record := range got {
		indices[record.Colo] = append(indices[record.Colo], record.Index)
	}
	for colo, list := range indices {
		for i, index := range list {
			if index != i+1 {
				t.Errorf("group %s indices = %v, want 1-based with no gaps", colo, list)
				break
			}
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	matches := []probe.Outcome{
		match("10.0.0.1", "BBB"),
		match("9.0.0.1", "AAA"),
		match("2.0.0.1", "BBB"),
		match("8.0.0.1", "AAA"),
	}

	first := Aggregate(matches, 3)
	second := Aggregate(matches, 3)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Aggregate() is not idempotent: %+v vs %+v", first, second)
	}
}

func TestAggregateInvalidQuota(t *testing.T) {
	if got := Aggregate([]probe.Outcome{match("1.0.0.1", "AAA")}, 0); got != nil {
		t.Errorf("Aggregate(quota=0) = %v, want nil", got)
	}
}
