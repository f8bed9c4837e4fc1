package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/logger"
	"ai-scalper/internal/scan"
	"ai-scalper/internal/state"
	"ai-scalper/internal/store"
	"ai-scalper/internal/trace"
	"ai-scalper/internal/tradelog"
	"ai-scalper/internal/types"
)

// Strategy decides which watchlist symbols to enter right now, sizes each
// position by risk and submits the bracket order.
type Strategy struct {
	brk       interfaces.Broker
	analyzer  *scan.Analyzer
	presenter interfaces.Presenter
	cfg       *store.Config
}

// Result reports what one invocation did. FirstTradeDone is the new value
// for the daily state; the scheduler owns the merge.
type Result struct {
	Attempts       int
	Submitted      int
	FirstTradeDone bool
}

func New(brk interfaces.Broker, analyzer *scan.Analyzer, presenter interfaces.Presenter, cfg *store.Config) *Strategy {
	return &Strategy{brk: brk, analyzer: analyzer, presenter: presenter, cfg: cfg}
}

// Run evaluates one trade cycle against a consistent state snapshot.
func (s *Strategy) Run(ctx context.Context, snap state.Snapshot) Result {
	ctx, span := trace.StartSpan(ctx, "strategy.Run")
	defer span.End()

	res := Result{FirstTradeDone: snap.Daily.FirstTradeDone}
	if len(snap.Watchlist) == 0 {
		logger.Debug(ctx, "Watchlist empty, nothing to trade")
		return res
	}

	held := make(map[string]bool, len(snap.Positions))
	for _, p := range snap.Positions {
		held[p.Symbol] = true
	}
	openCount := len(snap.Positions)
	if openCount >= s.cfg.Risk.MaxConcurrentScalps {
		logger.Debug(ctx, "Position cap reached, skipping entries",
			"open", openCount, "cap", s.cfg.Risk.MaxConcurrentScalps)
		return res
	}

	if !snap.Daily.FirstTradeDone {
		// First trade of the day rides pure AI conviction on the top-ranked
		// symbol; no technical confirmation, and no further entries this
		// cycle.
		top := snap.Watchlist[0]
		if held[top.Ticker] {
			logger.Debug(ctx, "Top-ranked symbol already held, first-trade gate stays open", "symbol", top.Ticker)
			return res
		}
		s.present(interfaces.SevSignal, fmt.Sprintf("First trade of the day: %s (confidence %.0f)", top.Ticker, top.Confidence))
		res.Attempts++
		if s.attempt(ctx, top.Ticker, top.Indicators.ATR, top.Confidence, snap.Portfolio.Equity, "first_trade") {
			res.Submitted++
		}
		res.FirstTradeDone = true
		return res
	}

	for _, entry := range snap.Watchlist {
		if openCount >= s.cfg.Risk.MaxConcurrentScalps {
			break
		}
		if held[entry.Ticker] {
			continue
		}

		ind, err := s.analyzer.IndicatorSet(ctx, entry.Ticker)
		if err != nil {
			if errors.Is(err, scan.ErrInsufficientData) {
				logger.Debug(ctx, "Insufficient history for confirmation", "symbol", entry.Ticker)
			} else {
				logger.ErrorWithErr(ctx, "Confirmation indicators unavailable", err, "symbol", entry.Ticker)
			}
			continue
		}
		// Oversold pullback within an uptrend: bullish 5m MACD histogram
		// plus 1m RSI under 45.
		if ind.MACD5m.Histogram <= 0 || ind.RSI1m >= 45 {
			logger.Debug(ctx, "Entry triggers not met",
				"symbol", entry.Ticker, "macd_hist", ind.MACD5m.Histogram, "rsi_1m", ind.RSI1m)
			continue
		}

		s.present(interfaces.SevSignal, fmt.Sprintf("Entry signal: %s (MACD %.3f, RSI %.1f)", entry.Ticker, ind.MACD5m.Histogram, ind.RSI1m))
		res.Attempts++
		if s.attempt(ctx, entry.Ticker, ind.ATR, entry.Confidence, snap.Portfolio.Equity, "signal_confirmed") {
			res.Submitted++
			openCount++
		}
	}
	return res
}

// attempt fetches a quote, sizes the position by risk and submits one
// bracket order. Failures are contained to this symbol.
func (s *Strategy) attempt(ctx context.Context, symbol string, atr, confidence, equity float64, reason string) bool {
	quote, err := s.brk.LatestQuote(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Quote fetch failed, skipping symbol", err, "symbol", symbol)
		return false
	}
	if quote.Ask <= 0 || quote.Bid <= 0 {
		logger.Warn(ctx, "Quote missing ask or bid, skipping symbol",
			"symbol", symbol, "ask", quote.Ask, "bid", quote.Bid)
		return false
	}

	stopDistance := 2 * atr
	if stopDistance <= 0 {
		logger.Risk(ctx, symbol, "ZERO_STOP_DISTANCE", "atr", atr)
		return false
	}
	riskCapital := equity * s.cfg.Risk.PerTradeRiskPct / 100
	qty := int(math.Floor(riskCapital / stopDistance))
	if qty <= 0 {
		logger.Risk(ctx, symbol, "POSITION_TOO_SMALL",
			"risk_capital", riskCapital, "stop_distance", stopDistance)
		return false
	}

	order := types.BracketOrder{
		Symbol:     symbol,
		Qty:        qty,
		StopLoss:   quote.Ask - stopDistance,
		TakeProfit: quote.Ask + stopDistance*1.5,
		// Above bid to raise fill probability while staying under the ask.
		LimitPrice: quote.Bid * (1 + s.cfg.Risk.LimitOrderOffsetPct/100),
	}

	resp, err := s.brk.SubmitBracket(ctx, order)
	if err != nil {
		logger.ErrorWithErr(ctx, "Bracket submission failed", err, "symbol", symbol, "qty", qty)
		s.present(interfaces.SevError, fmt.Sprintf("Order failed for %s: %v", symbol, err))
		return false
	}

	logger.Trade(ctx, symbol, qty, order.LimitPrice, order.StopLoss, order.TakeProfit, resp.OrderID, "reason", reason)
	s.present(interfaces.SevBuy, fmt.Sprintf("Bracket submitted: %d %s @ %.2f (SL %.2f / TP %.2f)",
		qty, symbol, order.LimitPrice, order.StopLoss, order.TakeProfit))
	_ = tradelog.Append(tradelog.Entry{
		Symbol:     symbol,
		OrderID:    resp.OrderID,
		Qty:        qty,
		LimitPrice: order.LimitPrice,
		StopLoss:   order.StopLoss,
		TakeProfit: order.TakeProfit,
		Confidence: confidence,
		Reason:     reason,
	})
	return true
}

func (s *Strategy) present(sev interfaces.Severity, msg string) {
	if s.presenter != nil {
		s.presenter.Log(sev, msg)
	}
}
