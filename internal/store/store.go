package store

import (
	"context"
	"time"

	"github.com/routelab/hoptrace/internal/model"
)

// Store defines the persistence interface for archived traces.
type Store interface {
	// Traces
	SaveTrace(ctx context.Context, rec *model.TraceRecord) error
	GetTrace(ctx context.Context, id string) (*model.TraceRecord, error)
	ListTraces(ctx context.Context, filter model.TraceFilter) ([]*model.TraceRecord, int, error) // returns traces, total count, error
	DeleteTracesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountTraces(ctx context.Context) (int, error)

	// Per-module counters
	BumpModuleCounter(ctx context.Context, module string, chains, traces int64) error
	GetModuleCounter(ctx context.Context, module string) (*model.ModuleCounter, error)
	ListModuleCounters(ctx context.Context) ([]model.ModuleCounter, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
