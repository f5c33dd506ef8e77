package presence

import (
	"testing"
	"time"

	"github.com/routelab/hoptrace/internal/model"
)

func sampleChain(nodes ...string) model.PerfEventChain {
	var c model.PerfEventChain
	for i, n := range nodes {
		c.Events = append(c.Events, model.PerfEvent{
			NodeName:   n,
			EventDescr: "step",
			UnixTs:     int64(100 + i),
		})
	}
	return c
}

func TestTrackerRecordChain(t *testing.T) {
	tr := New()

	tr.RecordChain("fib", sampleChain("spine1", "leaf2", "spine1"))

	infos := tr.Active(0)
	if len(infos) != 2 {
		t.Fatalf("len(Active()) = %d, want 2", len(infos))
	}

	byName := make(map[string]model.NodeInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}

	spine := byName["spine1"]
	if spine.Events != 2 {
		t.Errorf("spine1 Events = %d, want 2", spine.Events)
	}
	if spine.Chains != 1 {
		t.Errorf("spine1 Chains = %d, want 1 (distinct per chain)", spine.Chains)
	}
	if spine.LastModule != "fib" {
		t.Errorf("spine1 LastModule = %q, want %q", spine.LastModule, "fib")
	}
	if byName["leaf2"].Events != 1 {
		t.Errorf("leaf2 Events = %d, want 1", byName["leaf2"].Events)
	}
}

func TestTrackerAccumulatesAcrossChains(t *testing.T) {
	tr := New()

	tr.RecordChain("fib", sampleChain("spine1"))
	tr.RecordChain("decision", sampleChain("spine1"))

	infos := tr.Active(0)
	if len(infos) != 1 {
		t.Fatalf("len(Active()) = %d, want 1", len(infos))
	}
	if infos[0].Chains != 2 {
		t.Errorf("Chains = %d, want 2", infos[0].Chains)
	}
	if infos[0].LastModule != "decision" {
		t.Errorf("LastModule = %q, want %q", infos[0].LastModule, "decision")
	}
}

func TestTrackerEmptyChainIgnored(t *testing.T) {
	tr := New()

	tr.RecordChain("fib", model.PerfEventChain{})

	if n := tr.Count(0); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestTrackerStaleThreshold(t *testing.T) {
	tr := New()
	tr.RecordChain("fib", sampleChain("spine1"))

	// Backdate the sighting past the threshold.
	tr.mu.Lock()
	tr.nodes["spine1"].lastSeen = time.Now().Add(-10 * time.Minute)
	tr.mu.Unlock()

	if infos := tr.Active(5 * time.Minute); len(infos) != 0 {
		t.Errorf("Active(5m) = %v, want none", infos)
	}
	if infos := tr.Active(0); len(infos) != 1 {
		t.Errorf("Active(0) = %d nodes, want 1 (no threshold)", len(infos))
	}
	if n := tr.Count(5 * time.Minute); n != 0 {
		t.Errorf("Count(5m) = %d, want 0", n)
	}
	if n := tr.Count(0); n != 1 {
		t.Errorf("Count(0) = %d, want 1", n)
	}
}

func TestTrackerActiveSortedByRecency(t *testing.T) {
	tr := New()
	tr.RecordChain("fib", sampleChain("old-node"))
	tr.RecordChain("fib", sampleChain("new-node"))

	tr.mu.Lock()
	tr.nodes["old-node"].lastSeen = time.Now().Add(-time.Minute)
	tr.mu.Unlock()

	infos := tr.Active(0)
	if len(infos) != 2 {
		t.Fatalf("len(Active()) = %d, want 2", len(infos))
	}
	if infos[0].Name != "new-node" {
		t.Errorf("Active()[0] = %q, want most recent first", infos[0].Name)
	}
}

func TestTrackerSweepEvictsQuietNodes(t *testing.T) {
	tr := New()
	tr.RecordChain("fib", sampleChain("gone"))
	tr.RecordChain("fib", sampleChain("here"))

	tr.mu.Lock()
	tr.nodes["gone"].lastSeen = time.Now().Add(-2 * time.Hour)
	tr.mu.Unlock()

	tr.sweep(time.Hour)

	if n := tr.Count(0); n != 1 {
		t.Fatalf("Count() after sweep = %d, want 1", n)
	}
	if infos := tr.Active(0); infos[0].Name != "here" {
		t.Errorf("surviving node = %q, want %q", infos[0].Name, "here")
	}
}

func TestTrackerSweeperStartStop(t *testing.T) {
	tr := New()
	tr.StartSweeper(&SweeperConfig{SweepInterval: 10 * time.Millisecond, EvictAfter: time.Hour})

	// Stop must terminate the goroutine and be safe to call once started.
	done := make(chan struct{})
	go func() {
		tr.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return")
	}
}
