// Package alert runs an operator-supplied shell command when an archived
// trace completes slower than a configured threshold.
package alert

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/routelab/hoptrace/internal/model"
)

// Default and max timeout for alert commands.
const (
	DefaultTimeout = 10 * time.Second
	MaxTimeout     = 60 * time.Second
)

// Environment variables passed to the alert command.
const (
	EnvTraceID   = "HT_TRACE_ID"
	EnvModule    = "HT_MODULE"
	EnvTotalMs   = "HT_TOTAL_MS"
	EnvNodeCount = "HT_NODE_COUNT"
)

// Result holds the output of running a single alert command.
type Result struct {
	Output string
	Err    error
}

// Execute runs a shell command with the given timeout and environment.
// The command is executed via "sh -c".
func Execute(ctx context.Context, command string, timeout time.Duration, env map[string]string) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command) //nolint:gosec // alert commands come from operator config
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Inherit process environment and overlay alert-specific vars.
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	err := cmd.Run()
	output := strings.TrimSpace(stdout.String())
	if output == "" {
		output = strings.TrimSpace(stderr.String())
	}

	return Result{Output: output, Err: err}
}

// Hook fires the configured command for traces whose total duration meets
// or exceeds the threshold. A zero threshold or empty command disables it.
type Hook struct {
	threshold time.Duration
	command   string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewHook creates a slow-trace hook. logger must not be nil.
func NewHook(threshold time.Duration, command string, logger *slog.Logger) *Hook {
	return &Hook{
		threshold: threshold,
		command:   command,
		timeout:   DefaultTimeout,
		logger:    logger,
	}
}

// Enabled reports whether the hook can ever fire.
func (h *Hook) Enabled() bool {
	return h != nil && h.threshold > 0 && h.command != ""
}

// Notify runs the alert command if rec crossed the threshold. Failures
// are logged and swallowed; a broken pager script must not stall ingest.
func (h *Hook) Notify(ctx context.Context, rec *model.TraceRecord) {
	if !h.Enabled() || rec == nil {
		return
	}
	if rec.TotalMs < h.threshold.Milliseconds() {
		return
	}

	env := map[string]string{
		EnvTraceID:   rec.ID,
		EnvModule:    rec.Module,
		EnvTotalMs:   strconv.FormatInt(rec.TotalMs, 10),
		EnvNodeCount: strconv.Itoa(len(rec.Chain().Nodes())),
	}
	result := Execute(ctx, h.command, h.timeout, env)

	if result.Err != nil {
		h.logger.Warn("alert: slow-trace hook failed",
			"trace", rec.ID, "module", rec.Module, "err", result.Err, "output", result.Output)
		return
	}
	h.logger.Info("alert: slow-trace hook fired",
		"trace", rec.ID, "module", rec.Module, "total_ms", rec.TotalMs)
}
