package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"product-pulse/pipeline"
	"product-pulse/shared/config"
	"product-pulse/shared/logging"
	"product-pulse/shared/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := pipeline.NewAgent(cfg, log)
	s := scheduler.New(cfg, agent, log)

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		log.Info("Running once...")
		if err := agent.Initialize(); err != nil {
			log.WithError(err).Fatal("Failed to initialize agent")
		}
		if err := s.RunOnce(ctx); err != nil {
			log.WithError(err).Fatal("Run failed")
		}
		return
	}

	log.Info("Starting scheduler...")
	if err := s.Start(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("Scheduler failed")
	}
}
