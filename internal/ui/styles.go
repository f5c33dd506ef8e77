package ui

import "fmt"

// ANSI256 color codes used across the ht CLI.
const (
	colorAccent = 74  // blue, trace ids and section titles
	colorCmd    = 250 // light gray, command names in help
	colorMuted  = 245 // medium gray, secondary detail
	colorOK     = 114 // green, healthy status
	colorAlert  = 203 // red, slow traces and failed probes
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderOK returns s in green, used for healthy status lines.
func RenderOK(s string) string { return render(colorOK, s) }

// RenderAlert returns s in red, used for slow traces and failed probes.
func RenderAlert(s string) string { return render(colorAlert, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
