// Package perf implements collector-side perf-event handling: event
// stamping, chain merging, and the bounded per-module buffer of recent
// chains.
package perf

import (
	"time"

	"github.com/routelab/hoptrace/internal/model"
)

// EventCollectorReceived is the description stamped onto a chain at ingest
// when receipt stamping is enabled, marking the collector hop the same way
// daemon modules mark theirs.
const EventCollectorReceived = "COLLECTOR_RECEIVED"

// Clock returns the current time in unix milliseconds.
type Clock func() int64

// WallClock is the default Clock.
func WallClock() int64 {
	return time.Now().UnixMilli()
}

// Tracer stamps events onto chains. The clock is injectable so tests get
// deterministic timestamps.
type Tracer struct {
	clock Clock
}

// NewTracer creates a tracer using the given clock, or WallClock when nil.
func NewTracer(clock Clock) *Tracer {
	if clock == nil {
		clock = WallClock
	}
	return &Tracer{clock: clock}
}

// AddEvent appends an event for nodeName with the given description, stamped
// with the tracer's current time.
func (t *Tracer) AddEvent(chain *model.PerfEventChain, nodeName, eventDescr string) {
	chain.Events = append(chain.Events, model.PerfEvent{
		NodeName:   nodeName,
		EventDescr: eventDescr,
		UnixTs:     t.clock(),
	})
}

// Merge picks between two chains describing the same operation. The chain
// whose first event is earliest wins, since it captures the full latency when
// several triggering updates fold into one processing run. On equal starts
// the chain with more events wins; a remaining tie keeps a.
func Merge(a, b model.PerfEventChain) model.PerfEventChain {
	if len(a.Events) == 0 {
		return b
	}
	if len(b.Events) == 0 {
		return a
	}

	switch {
	case a.StartUnixTs() < b.StartUnixTs():
		return a
	case b.StartUnixTs() < a.StartUnixTs():
		return b
	case len(b.Events) > len(a.Events):
		return b
	default:
		return a
	}
}
