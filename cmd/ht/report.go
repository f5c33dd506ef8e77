package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/routelab/hoptrace/internal/model"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:     "report [file]",
	Short:   "Submit a perf-event chain to the collector",
	GroupID: "perf",
	Long: `Submit a perf-event chain to the collector.

The chain is read from a JSON file (or stdin with "-"): either a full chain
object {"trace_id": ..., "events": [...]} or a bare event array. Alternatively
--event can be repeated to build a chain inline, e.g.

  ht report --module fib --node spine1 \
    --event DECISION_RECEIVED@1700000000000 --event FIB_PROGRAMMED@1700000000150`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		module, _ := cmd.Flags().GetString("module")
		node, _ := cmd.Flags().GetString("node")
		eventSpecs, _ := cmd.Flags().GetStringArray("event")

		chain, err := buildChain(args, eventSpecs, node)
		if err != nil {
			return err
		}

		res, err := htClient.ReportChain(context.Background(), module, chain)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, res)
		}
		suffix := ""
		if res.Merged {
			suffix = " (merged)"
		}
		fmt.Printf("%s%s\n", res.Chain.TraceID, suffix)
		return nil
	},
}

// buildChain assembles the chain to submit, either inline from --event specs
// or decoded from the file/stdin input. The two sources are exclusive.
func buildChain(args, eventSpecs []string, node string) (model.PerfEventChain, error) {
	if len(eventSpecs) > 0 {
		if len(args) > 0 {
			return model.PerfEventChain{}, fmt.Errorf("cannot combine --event with a file argument")
		}
		return chainFromSpecs(eventSpecs, node)
	}

	data, err := readChainInput(args)
	if err != nil {
		return model.PerfEventChain{}, err
	}
	return decodeChain(data)
}

func readChainInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading chain file: %w", err)
	}
	return data, nil
}

// decodeChain accepts either a chain object or a bare event array.
func decodeChain(data []byte) (model.PerfEventChain, error) {
	var chain model.PerfEventChain

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &chain.Events); err != nil {
			return chain, fmt.Errorf("parsing event array: %w", err)
		}
		return chain, nil
	}
	if err := json.Unmarshal(data, &chain); err != nil {
		return chain, fmt.Errorf("parsing chain: %w", err)
	}
	return chain, nil
}

// chainFromSpecs builds a chain from repeated --event values, all attributed
// to the given node. Events without an explicit timestamp are stamped with
// the current time.
func chainFromSpecs(specs []string, node string) (model.PerfEventChain, error) {
	var chain model.PerfEventChain
	for _, spec := range specs {
		descr, ts, err := parseEventSpec(spec)
		if err != nil {
			return model.PerfEventChain{}, err
		}
		if ts == 0 {
			ts = time.Now().UnixMilli()
		}
		chain.Events = append(chain.Events, model.PerfEvent{
			NodeName:   node,
			EventDescr: descr,
			UnixTs:     ts,
		})
	}
	return chain, nil
}

// parseEventSpec parses a --event value of the form "NAME@unixms". The
// timestamp may be omitted ("NAME"), in which case ts is zero and the caller
// stamps the current time.
func parseEventSpec(s string) (descr string, ts int64, err error) {
	descr, tsPart, found := strings.Cut(s, "@")
	if descr == "" {
		return "", 0, fmt.Errorf("invalid event %q: empty name", s)
	}
	if !found {
		return descr, 0, nil
	}
	ts, err = strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid event %q: timestamp must be unix milliseconds", s)
	}
	return descr, ts, nil
}

func defaultNode() string {
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}

func init() {
	reportCmd.Flags().String("module", defaultModule, "module the chain belongs to")
	reportCmd.Flags().String("node", defaultNode(), "node name for --event entries")
	reportCmd.Flags().StringArray("event", nil, `inline event as "NAME@unixms" (repeatable)`)
}
