package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/routelab/hoptrace/internal/events"
	"github.com/routelab/hoptrace/internal/model"
	"github.com/routelab/hoptrace/internal/report"
	"github.com/routelab/hoptrace/internal/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch [module]",
	Short:   "Live-tail completed chains for a module",
	GroupID: "perf",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		module := defaultModule
		if len(args) == 1 {
			module = args[0]
		}
		natsURL, _ := cmd.Flags().GetString("nats")
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		seen := make(map[string]int64)

		// Initial query renders everything currently buffered.
		if err := queryAndPrint(ctx, module, seen); err != nil {
			return err
		}
		if once {
			return nil
		}

		if natsURL != "" {
			return watchNATS(ctx, natsURL, module, seen)
		}
		return watchPoll(ctx, interval, module, seen)
	},
}

// watchNATS re-renders on collector events with a short debounce, so a
// convergence burst coalesces into one refresh.
func watchNATS(ctx context.Context, natsURL, module string, seen map[string]int64) error {
	// reconnectCh receives a signal when the NATS client reconnects after
	// a disconnect, so we can immediately re-query for missed events.
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe("hoptrace.>")
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	// Drain the timer channel in case it fired between NewTimer and Stop.
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0) // immediate re-query
		case <-debounce.C:
			if err := queryAndPrint(ctx, module, seen); err != nil {
				return err
			}
		}
	}
}

// watchPoll is the fallback when no NATS URL is configured.
func watchPoll(ctx context.Context, interval time.Duration, module string, seen map[string]int64) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := queryAndPrint(ctx, module, seen); err != nil {
			return err
		}
	}
}

// queryAndPrint fetches the module buffer, diffs against the seen map, and
// prints chains that are new or grew since the last render.
func queryAndPrint(ctx context.Context, module string, seen map[string]int64) error {
	db, err := htClient.ViewPerf(ctx, module)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	changed := diffChains(db.EventInfo, seen)
	if len(changed) == 0 {
		return nil
	}

	if jsonOutput {
		return printJSON(os.Stdout, changed)
	}
	for _, chain := range changed {
		fmt.Printf("trace %s total %dms\n", ui.RenderAccent(chain.TraceID), chain.TotalDurationMs())
		if err := report.RenderChain(os.Stdout, chain); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

// diffChains returns chains that are new or whose last event moved since the
// previous query. It updates seen in place, keyed by trace id.
func diffChains(chains []model.PerfEventChain, seen map[string]int64) []model.PerfEventChain {
	var changed []model.PerfEventChain
	for _, c := range chains {
		end := c.EndUnixTs()
		prev, ok := seen[c.TraceID]
		if !ok || end != prev {
			changed = append(changed, c)
		}
		seen[c.TraceID] = end
	}
	return changed
}

func defaultNATSURL() string {
	if s := os.Getenv("HOPTRACE_NATS_URL"); s != "" {
		return s
	}
	return activeRemoteNATSURL()
}

func init() {
	watchCmd.Flags().String("nats", defaultNATSURL(), "NATS URL for event-driven refresh")
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when NATS is not configured")
	watchCmd.Flags().Bool("once", false, "render once and exit")
}
