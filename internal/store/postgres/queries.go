package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/routelab/hoptrace/internal/model"
)

// traceColumns is the column list used for SELECT statements on the traces table.
const traceColumns = `id, module, events, total_ms, started_at, completed_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// querySaveTrace upserts a trace row. Merged chains re-archive under the
// same trace ID with more events, so the insert must replace on conflict.
func querySaveTrace(ctx context.Context, db executor, rec *model.TraceRecord) error {
	events, err := eventsBytes(rec.Events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO traces (id, module, events, total_ms, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			module = EXCLUDED.module,
			events = EXCLUDED.events,
			total_ms = EXCLUDED.total_ms,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at`,
		rec.ID,
		rec.Module,
		events,
		rec.TotalMs,
		rec.StartedAt,
		rec.CompletedAt,
	)
	return err
}

func queryGetTrace(ctx context.Context, db executor, id string) (*model.TraceRecord, error) {
	row := db.QueryRowContext(ctx, `SELECT `+traceColumns+` FROM traces WHERE id = $1`, id)
	return scanTrace(row)
}

func queryListTraces(ctx context.Context, db executor, filter model.TraceFilter) ([]*model.TraceRecord, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.Module != "" {
		whereClauses = append(whereClauses, "module = "+nextArg())
		args = append(args, filter.Module)
	}

	if filter.Node != "" {
		whereClauses = append(whereClauses, "events @> "+nextArg())
		args = append(args, nodeContainment(filter.Node))
	}

	if filter.Since != nil {
		whereClauses = append(whereClauses, "completed_at >= "+nextArg())
		args = append(args, *filter.Since)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + traceColumns +
		" FROM traces" + whereSQL + " ORDER BY completed_at DESC"

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list traces: %w", err)
	}
	defer rows.Close()

	var traces []*model.TraceRecord
	var total int
	for rows.Next() {
		rec, t, err := scanTraceWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan traces: %w", err)
		}
		total = t
		traces = append(traces, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan traces: %w", err)
	}

	return traces, total, nil
}

func queryDeleteTracesBefore(ctx context.Context, db executor, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM traces WHERE completed_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func queryCountTraces(ctx context.Context, db executor) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM traces`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count traces: %w", err)
	}
	return n, nil
}

// queryBumpModuleCounter adds to a module's running totals, creating the
// row on first sight. Additive ON CONFLICT so concurrent bumps never reset
// each other.
func queryBumpModuleCounter(ctx context.Context, db executor, module string, chains, traces int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO module_counters (module, chains, traces)
		VALUES ($1, $2, $3)
		ON CONFLICT (module) DO UPDATE SET
			chains = module_counters.chains + EXCLUDED.chains,
			traces = module_counters.traces + EXCLUDED.traces,
			updated_at = NOW()`,
		module, chains, traces,
	)
	return err
}

// queryGetModuleCounter returns a zero-valued counter (not an error) when
// the module has never been seen.
func queryGetModuleCounter(ctx context.Context, db executor, module string) (*model.ModuleCounter, error) {
	row := db.QueryRowContext(ctx, `
		SELECT module, chains, traces, updated_at
		FROM module_counters WHERE module = $1`, module)
	c, err := scanModuleCounter(row)
	if err == sql.ErrNoRows {
		return &model.ModuleCounter{Module: module}, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func queryListModuleCounters(ctx context.Context, db executor) ([]model.ModuleCounter, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT module, chains, traces, updated_at
		FROM module_counters
		ORDER BY module`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counters []model.ModuleCounter
	for rows.Next() {
		c, err := scanModuleCounter(rows)
		if err != nil {
			return nil, err
		}
		counters = append(counters, *c)
	}
	return counters, rows.Err()
}
