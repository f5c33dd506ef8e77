package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/routelab/hoptrace/internal/model"
	"github.com/routelab/hoptrace/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version      string    `json:"version"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	TraceCount   int       `json:"trace_count"`
	CounterCount int       `json:"counter_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes the whole archive as JSONL to w: one header line,
// then every trace, then every module counter. Traces are sorted by ID
// so repeated exports order the same archive the same way and diffs at
// the destination stay readable.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	// No filter and no limit: the export carries the full archive.
	traces, _, err := s.ListTraces(ctx, model.TraceFilter{})
	if err != nil {
		return fmt.Errorf("list traces: %w", err)
	}
	sort.Slice(traces, func(i, j int) bool {
		return traces[i].ID < traces[j].ID
	})

	counters, err := s.ListModuleCounters(ctx)
	if err != nil {
		return fmt.Errorf("list module counters: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:      "1",
		Type:         "header",
		Timestamp:    time.Now().UTC(),
		TraceCount:   len(traces),
		CounterCount: len(counters),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, tr := range traces {
		if err := enc.Encode(record{Type: "trace", Data: tr}); err != nil {
			return fmt.Errorf("encode trace %s: %w", tr.ID, err)
		}
	}

	for _, c := range counters {
		if err := enc.Encode(record{Type: "counter", Data: c}); err != nil {
			return fmt.Errorf("encode counter %s: %w", c.Module, err)
		}
	}

	return nil
}
