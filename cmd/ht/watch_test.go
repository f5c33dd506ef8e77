package main

import (
	"testing"

	"github.com/routelab/hoptrace/internal/model"
)

func tsChain(traceID string, ts ...int64) model.PerfEventChain {
	c := model.PerfEventChain{TraceID: traceID}
	for _, t := range ts {
		c.Events = append(c.Events, model.PerfEvent{
			NodeName:   "spine1",
			EventDescr: "SPF_DONE",
			UnixTs:     t,
		})
	}
	return c
}

func TestDiffChains_InitialQuery(t *testing.T) {
	seen := make(map[string]int64)
	chains := []model.PerfEventChain{
		tsChain("tr-aaaa000001", 100, 200),
		tsChain("tr-bbbb000002", 150, 300),
	}

	changed := diffChains(chains, seen)
	if len(changed) != 2 {
		t.Fatalf("got %d changed, want 2", len(changed))
	}
	if len(seen) != 2 {
		t.Fatalf("got %d seen, want 2", len(seen))
	}
	if seen["tr-aaaa000001"] != 200 {
		t.Errorf("seen[tr-aaaa000001] = %d, want 200", seen["tr-aaaa000001"])
	}
}

func TestDiffChains_NoChanges(t *testing.T) {
	seen := map[string]int64{
		"tr-aaaa000001": 200,
		"tr-bbbb000002": 300,
	}
	chains := []model.PerfEventChain{
		tsChain("tr-aaaa000001", 100, 200),
		tsChain("tr-bbbb000002", 150, 300),
	}

	changed := diffChains(chains, seen)
	if len(changed) != 0 {
		t.Fatalf("got %d changed, want 0", len(changed))
	}
}

func TestDiffChains_NewChain(t *testing.T) {
	seen := map[string]int64{
		"tr-aaaa000001": 200,
	}
	chains := []model.PerfEventChain{
		tsChain("tr-aaaa000001", 100, 200),
		tsChain("tr-cccc000003", 400, 500),
	}

	changed := diffChains(chains, seen)
	if len(changed) != 1 {
		t.Fatalf("got %d changed, want 1", len(changed))
	}
	if changed[0].TraceID != "tr-cccc000003" {
		t.Errorf("changed[0].TraceID = %q, want %q", changed[0].TraceID, "tr-cccc000003")
	}
}

func TestDiffChains_ExtendedChain(t *testing.T) {
	seen := map[string]int64{
		"tr-aaaa000001": 200,
		"tr-bbbb000002": 300,
	}
	// A merge appended an event to the second chain, moving its end.
	chains := []model.PerfEventChain{
		tsChain("tr-aaaa000001", 100, 200),
		tsChain("tr-bbbb000002", 150, 300, 450),
	}

	changed := diffChains(chains, seen)
	if len(changed) != 1 {
		t.Fatalf("got %d changed, want 1", len(changed))
	}
	if changed[0].TraceID != "tr-bbbb000002" {
		t.Errorf("changed[0].TraceID = %q, want %q", changed[0].TraceID, "tr-bbbb000002")
	}
	if seen["tr-bbbb000002"] != 450 {
		t.Errorf("seen[tr-bbbb000002] = %d, want 450", seen["tr-bbbb000002"])
	}
}
