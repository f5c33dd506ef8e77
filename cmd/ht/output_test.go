package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/routelab/hoptrace/internal/model"
	"github.com/routelab/hoptrace/internal/ui"
)

func sampleTrace() *model.TraceRecord {
	return model.TraceFromChain("tr-sample0001", "fib", model.PerfEventChain{
		Events: []model.PerfEvent{
			{NodeName: "node1", EventDescr: "start", UnixTs: 100},
			{NodeName: "node2", EventDescr: "mid", UnixTs: 150},
			{NodeName: "node3", EventDescr: "end", UnixTs: 300},
		},
	})
}

func TestPrintTraceListTable(t *testing.T) {
	var buf bytes.Buffer
	printTraceListTable(&buf, []*model.TraceRecord{sampleTrace()}, 7)
	out := buf.String()

	if !strings.Contains(out, "ID") || !strings.Contains(out, "TOTAL(ms)") || !strings.Contains(out, "COMPLETED") {
		t.Errorf("missing header columns; got:\n%s", out)
	}
	if !strings.Contains(out, "tr-sample0001") {
		t.Errorf("missing trace id; got:\n%s", out)
	}
	if !strings.Contains(out, "1 traces (7 total)") {
		t.Errorf("missing footer; got:\n%s", out)
	}
}

func TestPrintTraceDetail(t *testing.T) {
	ui.ForceNoColor()

	var buf bytes.Buffer
	if err := printTraceDetail(&buf, sampleTrace()); err != nil {
		t.Fatalf("printTraceDetail: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"ID:         tr-sample0001",
		"Module:     fib",
		"Nodes:      node1, node2, node3",
		"Total:      200ms",
		"Unix Timestamp",
		"node2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q; got:\n%s", want, out)
		}
	}
}

func TestPrintModuleTable(t *testing.T) {
	var buf bytes.Buffer
	printModuleTable(&buf, []model.ModuleInfo{
		{Name: "fib", Chains: 2, LastUnixTs: 300},
		{Name: "kvstore", Chains: 1},
	})
	out := buf.String()

	if !strings.Contains(out, "MODULE") || !strings.Contains(out, "CHAINS") {
		t.Errorf("missing header; got:\n%s", out)
	}
	if !strings.Contains(out, "fib") || !strings.Contains(out, "kvstore") {
		t.Errorf("missing module rows; got:\n%s", out)
	}
	if !strings.Contains(out, "2 modules") {
		t.Errorf("missing footer; got:\n%s", out)
	}
}

func TestPrintNodeTable(t *testing.T) {
	var buf bytes.Buffer
	printNodeTable(&buf, []model.NodeInfo{
		{Name: "spine1", Events: 12, Chains: 4, LastModule: "fib", IdleSecs: 30},
	})
	out := buf.String()

	if !strings.Contains(out, "spine1") || !strings.Contains(out, "30s") {
		t.Errorf("missing node row; got:\n%s", out)
	}
	if !strings.Contains(out, "1 nodes") {
		t.Errorf("missing footer; got:\n%s", out)
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, &model.Stats{
		Modules:        2,
		BufferedChains: 5,
		ArchivedTraces: 40,
		Nodes:          3,
		PerModule: []model.ModuleCounter{
			{Module: "fib", Chains: 30, Traces: 25, UpdatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		},
	})
	out := buf.String()

	for _, want := range []string{
		"Modules:          2",
		"Buffered Chains:  5",
		"Archived Traces:  40",
		"Active Nodes:     3",
		"fib",
		"2024-03-01 12:00:00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q; got:\n%s", want, out)
		}
	}
}

func TestPrintStats_NoPerModule(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, &model.Stats{Modules: 1, BufferedChains: 1})
	if strings.Contains(buf.String(), "MODULE") {
		t.Errorf("per-module table printed without counters; got:\n%s", buf.String())
	}
}

func TestFormatIdle(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{0, "0s"},
		{30, "30s"},
		{90, "1m30s"},
		{3600, "1h0m0s"},
	}
	for _, tt := range tests {
		if got := formatIdle(tt.secs); got != tt.want {
			t.Errorf("formatIdle(%v) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, map[string]int{"cleared": 3}); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	want := "{\n  \"cleared\": 3\n}\n"
	if buf.String() != want {
		t.Errorf("printJSON = %q, want %q", buf.String(), want)
	}
}
