package main

import (
	"os"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"golang.org/x/term"
)

// renderer styles markdown for terminals and leaves it raw for pipes.
func renderer() tui.Renderer {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return tui.NewRenderer()
	}
	return tui.Plain
}
