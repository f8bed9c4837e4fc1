package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ai-scalper/internal/api"
	"ai-scalper/internal/eod"
	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/logger"
	"ai-scalper/internal/state"
	"ai-scalper/internal/store"
	"ai-scalper/internal/strategy"
	"ai-scalper/internal/tradelog"
	"ai-scalper/internal/types"
	"ai-scalper/internal/watchlist"
)

// Scheduler drives the two cadences of the bot: fast trade cycles and the
// slower AI analysis cycles. Each cadence skips a tick if its previous run
// is still in flight, and a broker authentication failure stops everything.
type Scheduler struct {
	brk       interfaces.Broker
	builder   *watchlist.Builder
	strat     *strategy.Strategy
	states    *state.Store
	persister interfaces.Persister
	presenter interfaces.Presenter
	cfg       *store.Config

	tradeBusy    atomic.Bool
	analysisBusy atomic.Bool
	fatal        chan error
	persistOnce  sync.Once
	now          func() time.Time
}

type Params struct {
	Broker    interfaces.Broker
	Builder   *watchlist.Builder
	Strategy  *strategy.Strategy
	States    *state.Store
	Persister interfaces.Persister
	Presenter interfaces.Presenter
	Config    *store.Config
}

func New(p Params) *Scheduler {
	return &Scheduler{
		brk:       p.Broker,
		builder:   p.Builder,
		strat:     p.Strategy,
		states:    p.States,
		persister: p.Persister,
		presenter: p.Presenter,
		cfg:       p.Config,
		fatal:     make(chan error, 1),
		now:       time.Now,
	}
}

// Run blocks until the context is cancelled or the broker rejects our
// credentials. State is persisted one last time on the way out.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.persistFinal()

	tradeTick := time.NewTicker(time.Duration(s.cfg.TradeCycleSeconds) * time.Second)
	defer tradeTick.Stop()
	analysisTick := time.NewTicker(time.Duration(s.cfg.AI.AnalysisFreqMinutes) * time.Minute)
	defer analysisTick.Stop()
	eodTick := time.NewTicker(60 * time.Second)
	defer eodTick.Stop()

	// Fire both cycles immediately instead of waiting out the first tick.
	kickoff := make(chan struct{}, 1)
	kickoff <- struct{}{}

	logger.Info(ctx, "Scheduler started",
		"trade_cycle_seconds", s.cfg.TradeCycleSeconds,
		"analysis_freq_minutes", s.cfg.AI.AnalysisFreqMinutes)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Scheduler stopping", "reason", ctx.Err())
			return nil
		case err := <-s.fatal:
			logger.Error(ctx, "Authentication failure, halting all cycles", "error", err)
			s.present(interfaces.SevError, fmt.Sprintf("Fatal: %v", err))
			return err
		case <-kickoff:
			s.dispatch(ctx, &s.analysisBusy, "analysis", s.analysisCycle)
			s.dispatch(ctx, &s.tradeBusy, "trade", s.tradeCycle)
		case <-analysisTick.C:
			s.dispatch(ctx, &s.analysisBusy, "analysis", s.analysisCycle)
		case <-tradeTick.C:
			s.dispatch(ctx, &s.tradeBusy, "trade", s.tradeCycle)
		case <-eodTick.C:
			if ok, _ := eod.ShouldRunNow(); ok {
				if _, err := eod.SummarizeToday(); err != nil {
					logger.Warn(ctx, "EOD summary failed", "error", err)
				}
			}
		}
	}
}

// dispatch runs one cycle in its own goroutine unless the previous run of
// the same cadence is still going.
func (s *Scheduler) dispatch(ctx context.Context, busy *atomic.Bool, name string, fn func(context.Context) error) {
	if !busy.CompareAndSwap(false, true) {
		logger.Warn(ctx, "Cycle still running, skipping tick", "cycle", name)
		return
	}
	go func() {
		defer busy.Store(false)
		// Shutdown stops new cycles only; one already in flight finishes
		// its network calls on a detached context.
		if err := fn(context.WithoutCancel(ctx)); err != nil {
			var authErr *api.AuthError
			if errors.As(err, &authErr) {
				select {
				case s.fatal <- err:
				default:
				}
				return
			}
			logger.ErrorWithErr(ctx, "Cycle failed", err, "cycle", name)
		}
	}()
}

// tradeCycle refreshes account state and runs the entry strategy once.
func (s *Scheduler) tradeCycle(ctx context.Context) error {
	ctx, timer := startCycle(ctx, "trade_cycle")
	defer timer.End()

	s.rolloverIfNewDay(ctx)

	acct, err := s.brk.Account(ctx)
	if err != nil {
		return fmt.Errorf("account: %w", err)
	}
	positions, err := s.brk.Positions(ctx)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	s.states.Apply(state.Patch{Account: &acct, Positions: &positions})

	open, err := s.brk.MarketOpen(ctx)
	if err != nil {
		return fmt.Errorf("market clock: %w", err)
	}
	if open {
		snap := s.states.Snapshot()
		res := s.strat.Run(ctx, snap)
		if res.FirstTradeDone != snap.Daily.FirstTradeDone {
			daily := snap.Daily
			daily.FirstTradeDone = res.FirstTradeDone
			s.states.Apply(state.Patch{Daily: &daily})
		}
		if res.Submitted > 0 {
			// Pull positions again so the next cycle sees the new entries.
			if fresh, err := s.brk.Positions(ctx); err == nil {
				s.states.Apply(state.Patch{Positions: &fresh})
			}
		}
	} else {
		logger.Debug(ctx, "Market closed, strategy skipped this cycle")
	}

	return s.persister.Save(s.states.Saved())
}

// analysisCycle rebuilds the AI watchlist from the current movers and news.
func (s *Scheduler) analysisCycle(ctx context.Context) error {
	ctx, timer := startCycle(ctx, "analysis_cycle")
	defer timer.End()

	prev := s.states.Snapshot().Watchlist
	wl := s.builder.Build(ctx, prev)
	s.states.Apply(state.Patch{Watchlist: &wl})
	s.present(interfaces.SevAction, fmt.Sprintf("Watchlist refreshed: %d candidates", len(wl)))

	for _, e := range wl {
		_ = tradelog.AppendScan(tradelog.ScanEntry{
			Symbol:     e.Ticker,
			Decision:   e.Decision,
			Confidence: e.Confidence,
			Reasoning:  e.Reasoning,
			Price:      e.Indicators.Price,
			Indicators: map[string]float64{
				"RSI_1m":       e.Indicators.RSI1m,
				"RSI_5m":       e.Indicators.RSI5m,
				"ATR":          e.Indicators.ATR,
				"MACD_5m_hist": e.Indicators.MACD5m.Histogram,
			},
		})
	}
	return s.persister.Save(s.states.Saved())
}

// rolloverIfNewDay resets the daily trade gate when the UTC calendar date
// changes. Runs before any trading logic in the cycle.
func (s *Scheduler) rolloverIfNewDay(ctx context.Context) {
	today := s.now().UTC().Format("2006-01-02")
	snap := s.states.Snapshot()
	if snap.Daily.LastTradeDate == today {
		return
	}
	logger.Info(ctx, "New trading day, resetting daily state",
		"previous", snap.Daily.LastTradeDate, "today", today)
	daily := types.DailyState{LastTradeDate: today, FirstTradeDone: false}
	s.states.Apply(state.Patch{Daily: &daily})
	s.present(interfaces.SevAction, "New trading day: first-trade gate reset")
}

func (s *Scheduler) persistFinal() {
	s.persistOnce.Do(func() {
		if err := s.persister.Save(s.states.Saved()); err != nil {
			logger.Error(context.Background(), "Final state save failed", "error", err)
		}
	})
}

func (s *Scheduler) present(sev interfaces.Severity, msg string) {
	if s.presenter != nil {
		s.presenter.Log(sev, msg)
	}
}

func startCycle(ctx context.Context, name string) (context.Context, *logger.OperationTimer) {
	t := logger.StartOperation(ctx, name)
	return t.GetContext(), t
}
