package events

import (
	"context"
)

// Event topic constants
const (
	TopicTraceCompleted = "hoptrace.trace.completed"
	TopicTraceMerged    = "hoptrace.trace.merged"
	TopicModuleCleared  = "hoptrace.module.cleared"
)

// Event types

// TraceCompleted is published when a chain is ingested and buffered.
type TraceCompleted struct {
	TraceID         string `json:"trace_id"`
	Module          string `json:"module"`
	Nodes           int    `json:"nodes"`
	Events          int    `json:"events"`
	TotalMs         int64  `json:"total_ms"`
	CompletedUnixMs int64  `json:"completed_unix_ms"`
}

// TraceMerged is published when an ingested chain folded into an already
// buffered chain carrying the same trace ID.
type TraceMerged struct {
	TraceID string `json:"trace_id"`
	Module  string `json:"module"`
	Events  int    `json:"events"`
	TotalMs int64  `json:"total_ms"`
}

// ModuleCleared is published when a module's buffer is cleared.
type ModuleCleared struct {
	Module  string `json:"module"`
	Cleared int    `json:"cleared"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
