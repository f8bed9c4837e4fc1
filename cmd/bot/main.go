package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-scalper/internal/eod"
	"ai-scalper/internal/logger"
	"ai-scalper/internal/scheduler"
	"ai-scalper/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() { _ = trace.Shutdown(context.Background()) }()

	cfg, err := loadConfig(ctx)
	must(err)

	compressOldLogs(ctx)

	brk := initializeBroker(ctx, cfg)
	advisor := initializeAdvisor(ctx, cfg)
	states, persister := initializeState(ctx, cfg)

	sched := scheduler.New(assemble(cfg, brk, advisor, states, persister))

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigc
		logger.Info(ctx, "Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info(ctx, "Scalper started", "mode", cfg.Mode)
	err = sched.Run(ctx)
	if _, eodErr := eod.SummarizeToday(); eodErr != nil {
		logger.Warn(ctx, "EOD summary on shutdown failed", "error", eodErr)
	}
	if err != nil {
		logger.Error(ctx, "Scalper stopped on fatal error", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Scalper stopped")
}
