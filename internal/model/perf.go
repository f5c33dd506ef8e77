package model

import (
	"time"
)

// PerfEvent is a single timestamped occurrence reported by a node.
// Events are immutable once reported; timestamps are unix milliseconds.
type PerfEvent struct {
	NodeName   string `json:"node_name"`
	EventDescr string `json:"event_descr"`
	UnixTs     int64  `json:"unix_ts"`
}

// PerfEventChain is the ordered event sequence for one measured operation,
// e.g. a route update propagating through a daemon's processing pipeline.
// Ordering is chronological as supplied by the reporting source.
type PerfEventChain struct {
	TraceID string      `json:"trace_id,omitempty"`
	Events  []PerfEvent `json:"events"`
}

// TotalDurationMs returns the elapsed time between the first and last event
// in the chain. Chains with fewer than two events have a total of zero.
func (c PerfEventChain) TotalDurationMs() int64 {
	if len(c.Events) < 2 {
		return 0
	}
	return c.Events[len(c.Events)-1].UnixTs - c.Events[0].UnixTs
}

// StartUnixTs returns the timestamp of the first event, or 0 for an empty chain.
func (c PerfEventChain) StartUnixTs() int64 {
	if len(c.Events) == 0 {
		return 0
	}
	return c.Events[0].UnixTs
}

// EndUnixTs returns the timestamp of the last event, or 0 for an empty chain.
func (c PerfEventChain) EndUnixTs() int64 {
	if len(c.Events) == 0 {
		return 0
	}
	return c.Events[len(c.Events)-1].UnixTs
}

// Nodes returns the distinct node names appearing in the chain, in first-seen order.
func (c PerfEventChain) Nodes() []string {
	seen := make(map[string]struct{}, len(c.Events))
	var names []string
	for _, ev := range c.Events {
		if _, ok := seen[ev.NodeName]; ok {
			continue
		}
		seen[ev.NodeName] = struct{}{}
		names = append(names, ev.NodeName)
	}
	return names
}

// PerfDatabase is an ordered collection of recent perf-event chains for one
// module, oldest chain first. It is what a view request returns.
type PerfDatabase struct {
	EventInfo []PerfEventChain `json:"event_info"`
}

// TraceRecord is the archival envelope for a completed chain.
type TraceRecord struct {
	ID          string      `json:"id"`
	Module      string      `json:"module"`
	Events      []PerfEvent `json:"events"`
	TotalMs     int64       `json:"total_ms"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
}

// TraceFromChain builds the archival record for a chain ingested for the
// given module. The chain must be non-empty (enforced by ValidateChain at
// ingest); started/completed derive from the first and last event timestamps.
func TraceFromChain(id, module string, c PerfEventChain) *TraceRecord {
	return &TraceRecord{
		ID:          id,
		Module:      module,
		Events:      c.Events,
		TotalMs:     c.TotalDurationMs(),
		StartedAt:   time.UnixMilli(c.StartUnixTs()).UTC(),
		CompletedAt: time.UnixMilli(c.EndUnixTs()).UTC(),
	}
}

// Chain reconstructs the perf-event chain held by an archived trace.
func (t *TraceRecord) Chain() PerfEventChain {
	return PerfEventChain{TraceID: t.ID, Events: t.Events}
}

// ModuleInfo summarizes the buffered chains for one module.
type ModuleInfo struct {
	Name       string `json:"name"`
	Chains     int    `json:"chains"`
	LastUnixTs int64  `json:"last_unix_ts,omitempty"`
}

// NodeInfo is a reporting node recently seen by the collector.
type NodeInfo struct {
	Name       string    `json:"name"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
	IdleSecs   float64   `json:"idle_secs"`
	Events     int64     `json:"events"`
	Chains     int64     `json:"chains"`
	LastModule string    `json:"last_module,omitempty"`
}

// ModuleCounter holds per-module ingest totals. Unlike buffer contents,
// counters survive eviction and trace pruning.
type ModuleCounter struct {
	Module    string    `json:"module"`
	Chains    int64     `json:"chains"`
	Traces    int64     `json:"traces"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats is the collector-wide counters snapshot.
type Stats struct {
	Modules        int             `json:"modules"`
	BufferedChains int             `json:"buffered_chains"`
	ArchivedTraces int             `json:"archived_traces"`
	Nodes          int             `json:"nodes"`
	PerModule      []ModuleCounter `json:"per_module,omitempty"`
}
