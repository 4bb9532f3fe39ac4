package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the arbor ASCII art banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Green to amber, leaves to bark.
	lines := []termenv.Style{
		termenv.String("                _                ").Foreground(p.Color("#4ade80")),
		termenv.String("   __ _ _ __ __| |__   ___  _ __ ").Foreground(p.Color("#22c55e")),
		termenv.String("  / _` | '__/ _` '_ \\ / _ \\| '__|").Foreground(p.Color("#84cc16")),
		termenv.String(" | (_| | | | (_| |_) | (_) | |   ").Foreground(p.Color("#eab308")),
		termenv.String("  \\__,_|_|  \\__,_.__/ \\___/|_|   ").Foreground(p.Color("#d97706")),
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintln(w, termenv.String("  BPMN editing sessions "+version).Faint())
	fmt.Fprintln(w)
}
