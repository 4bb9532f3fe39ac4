package arbor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
)

// ExampleNew_memory drives a session against the in-memory engine: place an
// end event next to the default start event and save.
func ExampleNew_memory() {
	ctx := context.Background()
	downloads := memory.NewDownloads()

	s, err := arbor.New(memory.NewEngine(), arbor.WithDownloader(downloads))
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	if err := s.Trigger(ctx, "create.end-event", domain.GestureClick, arbor.Gesture(600, 258)); err != nil {
		log.Fatal(err)
	}

	report, err := s.Save(ctx)
	if err != nil {
		log.Fatal(err)
	}

	last, _ := downloads.Last()
	fmt.Printf("Saved: %s\n", last.Filename)
	fmt.Printf("Valid: %t\n", report.IsValid())
	// Output:
	// Saved: diagram.bpmn
	// Valid: true
}

// ExampleSession_Zoom shows the zoom floor.
func ExampleSession_Zoom() {
	ctx := context.Background()
	s, err := arbor.New(memory.NewEngine(), arbor.WithInitialScale(0.6))
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	delta := -0.5
	scale, _ := s.Zoom(ctx, &delta)
	fmt.Printf("%.1f\n", scale)

	scale, _ = s.ZoomReset(ctx)
	fmt.Printf("%.1f\n", scale)
	// Output:
	// 0.2
	// 1.0
}
