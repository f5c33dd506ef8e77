// Package client provides a transport-agnostic interface for the hoptrace
// collector and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"time"

	"github.com/routelab/hoptrace/internal/model"
)

// PerfClient is the interface that all ht CLI commands use to communicate
// with the collector. It is implemented by HTTPClient (default) and can be
// backed by any transport.
type PerfClient interface {
	// Perf buffer
	ViewPerf(ctx context.Context, module string) (*model.PerfDatabase, error)
	ReportChain(ctx context.Context, module string, chain model.PerfEventChain) (*ReportResult, error)
	ClearPerf(ctx context.Context, module string) (int, error)
	ListModules(ctx context.Context) ([]model.ModuleInfo, error)
	ListNodes(ctx context.Context) ([]model.NodeInfo, error)

	// Archive
	ListTraces(ctx context.Context, req *ListTracesRequest) (*ListTracesResponse, error)
	GetTrace(ctx context.Context, id string) (*model.TraceRecord, error)
	PruneTraces(ctx context.Context, before time.Time) (int64, error)

	// Collector state
	Stats(ctx context.Context) (*model.Stats, error)
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// ReportResult is the response from ReportChain.
type ReportResult struct {
	Chain    model.PerfEventChain `json:"chain"`
	Merged   bool                 `json:"merged"`
	Archived bool                 `json:"archived"`
}

// ListTracesRequest holds parameters for listing archived traces.
type ListTracesRequest struct {
	Module string     `json:"module,omitempty"`
	Node   string     `json:"node,omitempty"`
	Since  *time.Time `json:"since,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// ListTracesResponse is the response from ListTraces.
type ListTracesResponse struct {
	Traces []*model.TraceRecord `json:"traces"`
	Total  int                  `json:"total"`
}
