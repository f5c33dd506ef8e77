// Package report renders perf-event chains as plain-text timing tables.
//
// The formatter is deliberately decoupled from transport: it consumes an
// already-fetched perf database and writes to an io.Writer, so the same code
// serves the CLI against a live collector and tests against fixtures.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/routelab/hoptrace/internal/model"
)

// row is one rendered table line: the event plus its delta against the
// previous event's timestamp.
type row struct {
	node       string
	event      string
	durationMs int64
	unixTs     int64
}

// chainRows computes the timing rows for a non-empty chain. The first event
// seeds the baseline, so the first row's duration is always 0; the summed
// durations telescope to last minus first.
func chainRows(chain model.PerfEventChain) ([]row, int64) {
	recentTs := chain.Events[0].UnixTs
	var total int64

	rows := make([]row, 0, len(chain.Events))
	for _, ev := range chain.Events {
		duration := ev.UnixTs - recentTs
		total += duration
		recentTs = ev.UnixTs
		rows = append(rows, row{
			node:       ev.NodeName,
			event:      ev.EventDescr,
			durationMs: duration,
			unixTs:     recentTs,
		})
	}
	return rows, total
}

func writeTable(w io.Writer, rows []row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Node\tEvents\tDuration\tUnix Timestamp")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.node, r.event, r.durationMs, r.unixTs)
	}
	return tw.Flush()
}

// Render writes one block per chain in db, in input order: a summary line
// with the chain's index and total duration, a four-column timing table, and
// a trailing blank line. An empty database writes nothing and returns nil.
//
// A chain with no events aborts the render before any part of its block is
// written; blocks already written stay written.
func Render(w io.Writer, db *model.PerfDatabase) error {
	for i, chain := range db.EventInfo {
		if len(chain.Events) == 0 {
			return fmt.Errorf("perf event item %d has no events", i)
		}

		rows, total := chainRows(chain)

		fmt.Fprintf(w, "Perf Event Item: %d, total duration: %dms\n", i, total)
		if err := writeTable(w, rows); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

// RenderChain writes the timing table for a single chain without the
// item-index summary line. Used for single-trace views.
func RenderChain(w io.Writer, chain model.PerfEventChain) error {
	if len(chain.Events) == 0 {
		return fmt.Errorf("chain has no events")
	}
	rows, _ := chainRows(chain)
	return writeTable(w, rows)
}
