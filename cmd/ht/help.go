package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/routelab/hoptrace/internal/ui"
	"github.com/spf13/cobra"
)

// helpStyle pairs a pattern in Cobra's plain help output with the styling
// applied to its submatch.
type helpStyle struct {
	re    *regexp.Regexp
	apply func(match []string) string
}

// Styling rules applied in order to Cobra's default help text. Submatch
// layout is fixed per rule; a rule that fails to resubmatch leaves the
// text untouched.
var helpStyles = []helpStyle{
	// Section headers: unindented line ending with ":" (e.g. "Perf:",
	// "Flags:"). "Usage:" matches too and is styled the same.
	{
		re: regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`),
		apply: func(m []string) string {
			return ui.RenderAccent(strings.TrimSpace(m[0]))
		},
	},
	// Command names: two-space indent, a word, then the two-or-more
	// space gap before the description.
	{
		re: regexp.MustCompile(`(?m)^(  )(\S+)(  )`),
		apply: func(m []string) string {
			return m[1] + ui.RenderCommand(m[2]) + m[3]
		},
	},
	// Flag type annotations, e.g. "--server string", "--limit int".
	{
		re: regexp.MustCompile(`(--?\S+\s+)(string|int|duration|stringArray)`),
		apply: func(m []string) string {
			return m[1] + ui.RenderMuted(m[2])
		},
	},
	// Default values, e.g. (default "http://localhost:8080"). Brackets
	// like [command] or [flags] stay unstyled.
	{
		re: regexp.MustCompile(`\(default "[^"]*"\)`),
		apply: func(m []string) string {
			return ui.RenderMuted(m[0])
		},
	},
}

// colorizedHelpFunc returns a Cobra help function that post-processes the
// default help text with ANSI colors when the terminal supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		if !ui.ShouldUseColor() {
			cmd.SetOut(cmd.OutOrStdout())
			_ = cmd.Usage()
			return
		}

		// Render the plain help into a buffer, then restore the writer.
		orig := cmd.OutOrStdout()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(orig)

		fmt.Fprint(orig, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, hs := range helpStyles {
		re, apply := hs.re, hs.apply
		s = re.ReplaceAllStringFunc(s, func(match string) string {
			m := re.FindStringSubmatch(match)
			if m == nil {
				return match
			}
			return apply(m)
		})
	}
	return s
}
