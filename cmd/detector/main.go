package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wildlifedetector/internal/app"
)

func main() {
	inputPath := flag.String("input", "", "image file or directory to process")
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Ctrl-C stops the batch at the next image boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if err := application.Run(ctx, *inputPath); err != nil {
		log.Fatalf("Batch run failed: %v", err)
	}
}
