// Package presence tracks which reporting nodes the collector has recently
// heard from.
//
// The tracker is updated directly on the ingest path (every event in a
// reported chain counts as a sighting of its node) rather than by bus
// heartbeats: reporting routers are not hoptrace processes, so ingest is the
// only liveness signal the collector has. A background sweeper evicts nodes
// that have gone quiet so the map doesn't grow without bound.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/routelab/hoptrace/internal/model"
)

// SweeperConfig configures the background quiet-node sweeper.
type SweeperConfig struct {
	// EvictAfter is how long a node must be unseen before it is removed
	// from the in-memory map. Default: 1 hour.
	EvictAfter time.Duration

	// SweepInterval is how often the sweeper scans for quiet nodes.
	// Default: 5 minutes.
	SweepInterval time.Duration
}

// Tracker maintains an in-memory map of recently seen reporting nodes.
type Tracker struct {
	mu    sync.RWMutex
	nodes map[string]*nodeState

	sweepStop chan struct{}
	sweepDone chan struct{}
}

type nodeState struct {
	firstSeen  time.Time
	lastSeen   time.Time
	events     int64
	chains     int64
	lastModule string
}

// New creates a new node tracker.
func New() *Tracker {
	return &Tracker{
		nodes: make(map[string]*nodeState),
	}
}

// RecordChain updates node sightings from an ingested chain. Every event
// counts toward its node's event total; each distinct node in the chain
// gains one chain sighting.
func (t *Tracker) RecordChain(module string, c model.PerfEventChain) {
	if len(c.Events) == 0 {
		return
	}

	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	inChain := make(map[string]struct{})
	for _, ev := range c.Events {
		if ev.NodeName == "" {
			continue
		}
		state, ok := t.nodes[ev.NodeName]
		if !ok {
			state = &nodeState{firstSeen: now}
			t.nodes[ev.NodeName] = state
		}
		state.lastSeen = now
		state.lastModule = module
		state.events++
		if _, seen := inChain[ev.NodeName]; !seen {
			inChain[ev.NodeName] = struct{}{}
			state.chains++
		}
	}
}

// Active returns a snapshot of nodes seen within staleThreshold, sorted by
// most recently seen. Pass 0 to include every node still tracked.
func (t *Tracker) Active(staleThreshold time.Duration) []model.NodeInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := time.Now()
	infos := make([]model.NodeInfo, 0, len(t.nodes))

	for name, state := range t.nodes {
		idle := now.Sub(state.lastSeen)
		if staleThreshold > 0 && idle > staleThreshold {
			continue
		}
		infos = append(infos, model.NodeInfo{
			Name:       name,
			FirstSeen:  state.firstSeen,
			LastSeen:   state.lastSeen,
			IdleSecs:   idle.Seconds(),
			Events:     state.events,
			Chains:     state.chains,
			LastModule: state.lastModule,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastSeen.After(infos[j].LastSeen)
	})
	return infos
}

// Count returns how many nodes were seen within staleThreshold.
func (t *Tracker) Count(staleThreshold time.Duration) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if staleThreshold <= 0 {
		return len(t.nodes)
	}
	now := time.Now()
	n := 0
	for _, state := range t.nodes {
		if now.Sub(state.lastSeen) <= staleThreshold {
			n++
		}
	}
	return n
}

// StartSweeper launches a background goroutine that evicts quiet nodes.
// Call Stop() to shut it down.
func (t *Tracker) StartSweeper(cfg *SweeperConfig) {
	if cfg == nil {
		cfg = &SweeperConfig{}
	}
	if cfg.EvictAfter == 0 {
		cfg.EvictAfter = time.Hour
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	t.sweepStop = make(chan struct{})
	t.sweepDone = make(chan struct{})

	go t.sweepLoop(cfg)
	slog.Info("presence: sweeper started",
		"evict_after", cfg.EvictAfter,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the sweeper goroutine.
func (t *Tracker) Stop() {
	if t.sweepStop != nil {
		close(t.sweepStop)
		<-t.sweepDone
		t.sweepStop = nil
		t.sweepDone = nil
	}
}

func (t *Tracker) sweepLoop(cfg *SweeperConfig) {
	defer close(t.sweepDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.sweepStop:
			return
		case <-ticker.C:
			t.sweep(cfg.EvictAfter)
		}
	}
}

func (t *Tracker) sweep(evictAfter time.Duration) {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for name, state := range t.nodes {
		if now.Sub(state.lastSeen) > evictAfter {
			delete(t.nodes, name)
			slog.Info("presence: evicted quiet node", "node", name, "last_seen", state.lastSeen)
		}
	}
}
