// Package server implements the hoptrace collector: chain ingest into
// the per-module perf buffer, optional archival, node presence, event
// broadcasting, and the HTTP and gRPC surfaces.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/routelab/hoptrace/internal/alert"
	"github.com/routelab/hoptrace/internal/events"
	"github.com/routelab/hoptrace/internal/idgen"
	"github.com/routelab/hoptrace/internal/model"
	"github.com/routelab/hoptrace/internal/perf"
	"github.com/routelab/hoptrace/internal/presence"
	"github.com/routelab/hoptrace/internal/store"
)

// PerfServer is the collector core. It owns the in-memory perf buffer
// and fans ingested chains out to the archive store, the presence
// tracker, the event publisher, and SSE subscribers.
type PerfServer struct {
	buffer    *perf.Buffer
	tracer    *perf.Tracer
	store     store.Store // nil runs the collector in buffer-only mode
	publisher events.Publisher
	sseHub    *sseHub

	// Presence tracks which nodes reported recently. Exported so the
	// daemon can start its sweeper.
	Presence *presence.Tracker

	// Alert, when enabled, fires for chains whose total duration crosses
	// the configured threshold.
	Alert *alert.Hook

	// NodeName identifies this collector in receipt events.
	NodeName string

	// StampReceipt appends a collector receipt event to every ingested
	// chain before buffering.
	StampReceipt bool

	// PresenceTTL bounds how long a silent node still counts as active.
	PresenceTTL time.Duration
}

// NewPerfServer creates a collector backed by the given store and
// publisher. A nil store disables archival; the buffer still serves
// views. bufferSize <= 0 falls back to the default per-module capacity.
func NewPerfServer(s store.Store, pub events.Publisher, bufferSize int) *PerfServer {
	return &PerfServer{
		buffer:      perf.NewBuffer(bufferSize),
		tracer:      perf.NewTracer(nil),
		store:       s,
		publisher:   pub,
		sseHub:      newSSEHub(),
		Presence:    presence.New(),
		PresenceTTL: 5 * time.Minute,
	}
}

// inputError marks a client-side input problem, mapped to 400 by the
// HTTP layer.
type inputError string

func (e inputError) Error() string { return string(e) }

// ReportOutcome describes what happened to an ingested chain.
type ReportOutcome struct {
	// Chain is the buffered chain after trace ID assignment, receipt
	// stamping, and any merge with an already buffered chain.
	Chain model.PerfEventChain `json:"chain"`
	// Merged reports whether the chain folded into a buffered chain
	// carrying the same trace ID.
	Merged bool `json:"merged"`
	// Archived reports whether the chain was persisted to the store.
	Archived bool `json:"archived"`
}

// Report ingests one event chain for module. It validates the chain,
// assigns a trace ID when the reporter did not, optionally stamps a
// collector receipt event, buffers the chain, and fans it out to the
// archive, the presence tracker, and the event stream. Archival and
// publishing are best effort: their failures are logged, not returned.
func (s *PerfServer) Report(ctx context.Context, module string, chain model.PerfEventChain) (*ReportOutcome, error) {
	if module == "" {
		return nil, inputError("module is required")
	}
	if err := model.ValidateChain(&chain); err != nil {
		return nil, err
	}
	if chain.TraceID == "" {
		id, err := idgen.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate trace id: %w", err)
		}
		chain.TraceID = id
	}
	if s.StampReceipt {
		s.tracer.AddEvent(&chain, s.NodeName, perf.EventCollectorReceived)
	}

	stored, merged := s.buffer.Add(module, chain)

	// Presence counts the chain as reported over the wire, not the
	// merged result; a merge must not double-count earlier sightings.
	s.Presence.RecordChain(module, chain)

	rec := model.TraceFromChain(stored.TraceID, module, stored)
	archived := s.archive(ctx, rec, merged)

	if merged {
		s.publish(ctx, events.TopicTraceMerged, events.TraceMerged{
			TraceID: stored.TraceID,
			Module:  module,
			Events:  len(stored.Events),
			TotalMs: stored.TotalDurationMs(),
		})
	} else {
		s.publish(ctx, events.TopicTraceCompleted, events.TraceCompleted{
			TraceID:         stored.TraceID,
			Module:          module,
			Nodes:           len(stored.Nodes()),
			Events:          len(stored.Events),
			TotalMs:         stored.TotalDurationMs(),
			CompletedUnixMs: stored.EndUnixTs(),
		})
	}

	if s.Alert.Enabled() {
		// The hook carries its own timeout; the request context ends
		// with the handler.
		go s.Alert.Notify(context.Background(), rec)
	}

	return &ReportOutcome{Chain: stored, Merged: merged, Archived: archived}, nil
}

// ClearModule drops module's buffered chains. Archived traces are not
// touched. A cleared event is published only when chains were dropped.
func (s *PerfServer) ClearModule(ctx context.Context, module string) (int, error) {
	if module == "" {
		return 0, inputError("module is required")
	}
	n := s.buffer.Clear(module)
	if n > 0 {
		s.publish(ctx, events.TopicModuleCleared, events.ModuleCleared{Module: module, Cleared: n})
	}
	return n, nil
}

// Stats summarizes the collector: buffered state, active nodes, and
// archive totals when a store is configured.
func (s *PerfServer) Stats(ctx context.Context) (*model.Stats, error) {
	modules, chains := s.buffer.Totals()
	st := &model.Stats{
		Modules:        modules,
		BufferedChains: chains,
		Nodes:          s.Presence.Count(s.PresenceTTL),
	}
	if s.store != nil {
		n, err := s.store.CountTraces(ctx)
		if err != nil {
			return nil, fmt.Errorf("count traces: %w", err)
		}
		st.ArchivedTraces = n
		counters, err := s.store.ListModuleCounters(ctx)
		if err != nil {
			return nil, fmt.Errorf("list module counters: %w", err)
		}
		st.PerModule = counters
	}
	return st, nil
}

// archive persists rec and bumps the module's ingest counters in the
// same transaction. A merge re-saves an existing trace row, so only the
// chain count moves. Returns false when the store is absent or the
// write failed.
func (s *PerfServer) archive(ctx context.Context, rec *model.TraceRecord, merged bool) bool {
	if s.store == nil {
		return false
	}
	var newTraces int64 = 1
	if merged {
		newTraces = 0
	}
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.SaveTrace(ctx, rec); err != nil {
			return err
		}
		return tx.BumpModuleCounter(ctx, rec.Module, 1, newTraces)
	})
	if err != nil {
		slog.Warn("archive trace", "trace_id", rec.ID, "module", rec.Module, "error", err)
		return false
	}
	return true
}

// publish sends the event to the publisher and to SSE subscribers.
// Failures are logged; ingest never fails because a subscriber is down.
func (s *PerfServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("publish event", "topic", topic, "error", err)
	}
	s.broadcastEvent(topic, event)
}
