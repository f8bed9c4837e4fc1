package main

import (
	"context"
	"fmt"
	"os"

	"ai-scalper/internal/broker/alpaca"
	"ai-scalper/internal/broker/brokerobs"
	"ai-scalper/internal/eod"
	"ai-scalper/internal/eod/eodobs"
	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/llm/llmobs"
	"ai-scalper/internal/llm/noop"
	"ai-scalper/internal/llm/openai"
	"ai-scalper/internal/logger"
	"ai-scalper/internal/persist"
	"ai-scalper/internal/present"
	"ai-scalper/internal/scan"
	"ai-scalper/internal/scheduler"
	"ai-scalper/internal/state"
	"ai-scalper/internal/store"
	"ai-scalper/internal/strategy"
	"ai-scalper/internal/trace"
	"ai-scalper/internal/tradelog"
	"ai-scalper/internal/watchlist"

	"github.com/joho/godotenv"
)

// initializeSystem initializes env, logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	eod.SetDefaultSummarizer(eodobs.Wrap(eod.NewSummarizer()))
	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("SCALPER_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeBroker initializes the Alpaca gateway with observability
func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	brk := alpaca.New(alpaca.Params{
		Mode:        cfg.Mode,
		Key:         os.Getenv("APCA_API_KEY_ID"),
		Secret:      os.Getenv("APCA_API_SECRET_KEY"),
		DataBase:    cfg.Endpoints.DataBase,
		TradingBase: cfg.Endpoints.TradingBase,
	})

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}

	return brokerobs.Wrap(brk)
}

// initializeAdvisor initializes the AI advisor with observability
func initializeAdvisor(ctx context.Context, cfg *store.Config) interfaces.Advisor {
	var advisor interfaces.Advisor

	switch cfg.AI.Provider {
	case "OPENAI":
		advisor = openai.NewAdvisor(cfg)
	default:
		advisor = noop.NewAdvisor()
		logger.Warn(ctx, "No AI provider configured - watchlist will stay empty")
	}

	return llmobs.Wrap(advisor)
}

// initializeState restores persisted state from disk
func initializeState(ctx context.Context, cfg *store.Config) (*state.Store, interfaces.Persister) {
	persister := persist.NewFile(cfg.StatePath)
	states := state.NewStore(present.NewLog())

	saved, err := persister.Load()
	if err != nil {
		logger.Warn(ctx, "Could not restore saved state, starting fresh", "error", err)
		return states, persister
	}
	states.Restore(saved)
	logger.Info(ctx, "State restored",
		"equity_points", len(saved.PerformanceData),
		"last_trade_date", saved.Daily.LastTradeDate)
	return states, persister
}

func assemble(cfg *store.Config, brk interfaces.Broker, advisor interfaces.Advisor, states *state.Store, persister interfaces.Persister) scheduler.Params {
	analyzer := scan.NewAnalyzer(brk, cfg)
	presenter := present.NewLog()
	return scheduler.Params{
		Broker:    brk,
		Builder:   watchlist.NewBuilder(brk, advisor, analyzer, cfg),
		Strategy:  strategy.New(brk, analyzer, presenter, cfg),
		States:    states,
		Persister: persister,
		Presenter: presenter,
		Config:    cfg,
	}
}
