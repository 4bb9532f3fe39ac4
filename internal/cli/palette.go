package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/i18n"
	"github.com/aretw0/arbor/pkg/registry"
)

// PaletteOptions controls the palette listing.
type PaletteOptions struct {
	Collaboration bool
	Render        tui.Renderer
	Translator    *i18n.Catalog
}

// Palette writes the palette a fresh session would show with nothing
// selected.
func Palette(ctx context.Context, opts PaletteOptions, w io.Writer) error {
	if opts.Render == nil {
		opts.Render = tui.Plain
	}
	if opts.Translator == nil {
		opts.Translator = i18n.Builtin("")
	}

	sessionOpts := []arbor.Option{arbor.WithTranslator(opts.Translator)}
	if opts.Collaboration {
		sessionOpts = append(sessionOpts, arbor.WithCollaboration())
	}
	sess, err := arbor.New(memory.NewEngine(memory.WithTranslator(opts.Translator)), sessionOpts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	entries, err := sess.Palette(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect palette: %w", err)
	}
	out, err := opts.Render(tui.PaletteMarkdown(registry.List(entries)))
	if err != nil {
		return fmt.Errorf("failed to render palette: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
