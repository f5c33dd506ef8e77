package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/routelab/hoptrace/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanTrace scans a single row into a model.TraceRecord.
// The row must contain columns in the order defined by traceColumns.
func scanTrace(row scannable) (*model.TraceRecord, error) {
	var t model.TraceRecord
	var events []byte

	err := row.Scan(
		&t.ID,
		&t.Module,
		&events,
		&t.TotalMs,
		&t.StartedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeEvents(events, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// scanTraceWithTotal scans a row that has a leading total_count column
// followed by the standard trace columns. Used by queryListTraces with
// COUNT(*) OVER().
func scanTraceWithTotal(row scannable) (*model.TraceRecord, int, error) {
	var total int
	var t model.TraceRecord
	var events []byte

	err := row.Scan(
		&total,
		&t.ID,
		&t.Module,
		&events,
		&t.TotalMs,
		&t.StartedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, 0, err
	}
	if err := decodeEvents(events, &t); err != nil {
		return nil, 0, err
	}
	return &t, total, nil
}

func decodeEvents(raw []byte, t *model.TraceRecord) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &t.Events); err != nil {
		return fmt.Errorf("decode events for %s: %w", t.ID, err)
	}
	return nil
}

// scanModuleCounter scans a single row into a model.ModuleCounter.
func scanModuleCounter(row scannable) (*model.ModuleCounter, error) {
	var c model.ModuleCounter
	err := row.Scan(&c.Module, &c.Chains, &c.Traces, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// eventsBytes encodes the event slice for the JSONB events column.
// A nil slice is stored as an empty JSON array, never SQL NULL.
func eventsBytes(events []model.PerfEvent) ([]byte, error) {
	if events == nil {
		events = []model.PerfEvent{}
	}
	return json.Marshal(events)
}

// nodeContainment builds the JSONB containment document matching traces
// with at least one event from the given node.
func nodeContainment(node string) []byte {
	doc, _ := json.Marshal([]map[string]string{{"node_name": node}})
	return doc
}
