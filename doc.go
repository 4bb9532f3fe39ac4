/*
Package arbor is the control layer of a BPMN diagram editing session.

The diagram itself (rendering, hit-testing, command execution, serialization)
belongs to an external diagram engine, consumed through ports.DiagramEngine.
Arbor owns what sits between the UI and that engine: the palette action
registry, shape creation gestures, zoom, export and the save-time structural
check.

# Concept

A Session is created once per editor. Palette providers are registered at
construction and merged with last-writer-wins semantics; the palette is built
immediately so a misconfigured provider fails fast. UI triggers (undo, redo,
zoom, save, download) map one-to-one onto Session methods.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/adapters/memory"
		"github.com/aretw0/arbor/pkg/domain"
	)

	func main() {
		ctx := context.Background()
		engine := memory.NewEngine()

		s, err := arbor.New(engine, arbor.WithDownloader(memory.NewDownloads()))
		if err != nil {
			log.Fatal(err)
		}
		defer s.Close()

		// Place an end event, then save. The save runs the structural check.
		if err := s.Trigger(ctx, "create.end-event", domain.GestureClick, arbor.Gesture(300, 200)); err != nil {
			log.Fatal(err)
		}
		report, err := s.Save(ctx)
		if err != nil {
			log.Fatal(err)
		}
		log.Println("valid:", report.IsValid())
	}
*/
package arbor
