package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/routelab/hoptrace/internal/model"
	"github.com/routelab/hoptrace/internal/report"
	"github.com/routelab/hoptrace/internal/ui"
)

const timeFormat = "2006-01-02 15:04:05"

// printJSON writes v as two-space indented JSON, matching the formatting of
// every --json code path in ht.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printTraceListTable(w io.Writer, traces []*model.TraceRecord, total int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODULE\tNODES\tEVENTS\tTOTAL(ms)\tCOMPLETED")
	for _, t := range traces {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			t.ID,
			t.Module,
			len(t.Chain().Nodes()),
			len(t.Events),
			t.TotalMs,
			t.CompletedAt.Format(timeFormat),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d traces (%d total)\n", len(traces), total)
}

func printTraceDetail(w io.Writer, t *model.TraceRecord) error {
	fmt.Fprintf(w, "ID:         %s\n", ui.RenderAccent(t.ID))
	fmt.Fprintf(w, "Module:     %s\n", t.Module)
	fmt.Fprintf(w, "Nodes:      %s\n", strings.Join(t.Chain().Nodes(), ", "))
	fmt.Fprintf(w, "Events:     %d\n", len(t.Events))
	fmt.Fprintf(w, "Total:      %dms\n", t.TotalMs)
	fmt.Fprintf(w, "Started:    %s\n", t.StartedAt.Format(timeFormat))
	fmt.Fprintf(w, "Completed:  %s\n", t.CompletedAt.Format(timeFormat))
	fmt.Fprintln(w)
	return report.RenderChain(w, t.Chain())
}

func printModuleTable(w io.Writer, modules []model.ModuleInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tCHAINS\tLAST EVENT")
	for _, m := range modules {
		last := ""
		if m.LastUnixTs != 0 {
			last = time.UnixMilli(m.LastUnixTs).UTC().Format(timeFormat)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", m.Name, m.Chains, last)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d modules\n", len(modules))
}

func printNodeTable(w io.Writer, nodes []model.NodeInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tEVENTS\tCHAINS\tLAST MODULE\tIDLE")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
			n.Name,
			n.Events,
			n.Chains,
			n.LastModule,
			formatIdle(n.IdleSecs),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d nodes\n", len(nodes))
}

// formatIdle renders a node's idle time at second granularity. Durations of
// an hour or more stay in time.Duration notation (e.g. "2h3m0s").
func formatIdle(secs float64) string {
	d := time.Duration(secs * float64(time.Second))
	return d.Round(time.Second).String()
}

func printStats(w io.Writer, s *model.Stats) {
	fmt.Fprintf(w, "Modules:          %d\n", s.Modules)
	fmt.Fprintf(w, "Buffered Chains:  %d\n", s.BufferedChains)
	fmt.Fprintf(w, "Archived Traces:  %d\n", s.ArchivedTraces)
	fmt.Fprintf(w, "Active Nodes:     %d\n", s.Nodes)
	if len(s.PerModule) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tCHAINS\tTRACES\tUPDATED")
	for _, c := range s.PerModule {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n",
			c.Module, c.Chains, c.Traces, c.UpdatedAt.Format(timeFormat))
	}
	tw.Flush()
}
