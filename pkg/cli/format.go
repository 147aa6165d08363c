// Package cli provides shared formatting helpers for the netorch CLI.
package cli

import (
	"os"
	"strings"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + "\033[0m"
}

// Green wraps s in ANSI green.
func Green(s string) string { return paint("\033[32m", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return paint("\033[33m", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return paint("\033[31m", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return paint("\033[1m", s) }

// Result labels the outcome of an intent: applied, rejected when a router
// refused it, or failed when an error stopped it.
func Result(success bool, err error) string {
	switch {
	case err != nil:
		return Red("failed")
	case !success:
		return Yellow("rejected")
	default:
		return Green("applied")
	}
}

// Severity colors s by an audit severity name.
func Severity(severity, s string) string {
	switch severity {
	case "info":
		return Green(s)
	case "warning":
		return Yellow(s)
	default:
		return Red(s)
	}
}

// DotPad pads name with dots to the given width.
// Example: DotPad("web firewall", 20) → "web firewall ......."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}

// YesNo renders a flag column.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
