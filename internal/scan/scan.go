package scan

import (
	"context"
	"errors"

	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/store"
	"ai-scalper/internal/ta"
	"ai-scalper/internal/types"
)

// ErrInsufficientData marks a symbol without enough bar history on one of
// the timeframes. Callers treat it as a normal skip, not a failure.
var ErrInsufficientData = errors.New("insufficient bar history")

// minBars is the minimum series length required on each timeframe before a
// symbol is considered analyzable.
const minBars = 50

// Analyzer assembles an IndicatorSet for one symbol from 1-minute and
// 5-minute bar series.
type Analyzer struct {
	brk interfaces.Broker
	cfg *store.Config
}

func NewAnalyzer(brk interfaces.Broker, cfg *store.Config) *Analyzer {
	return &Analyzer{brk: brk, cfg: cfg}
}

func (a *Analyzer) IndicatorSet(ctx context.Context, symbol string) (types.IndicatorSet, error) {
	bars1m, err := a.brk.Bars(ctx, symbol, "1Min", a.cfg.Watchlist.BarLimit)
	if err != nil {
		return types.IndicatorSet{}, err
	}
	bars5m, err := a.brk.Bars(ctx, symbol, "5Min", a.cfg.Watchlist.BarLimit)
	if err != nil {
		return types.IndicatorSet{}, err
	}
	if len(bars1m) < minBars || len(bars5m) < minBars {
		return types.IndicatorSet{}, ErrInsufficientData
	}

	closes1m := closes(bars1m)
	closes5m := closes(bars5m)
	ind := a.cfg.Indicators

	return types.IndicatorSet{
		Symbol: symbol,
		Price:  closes1m[len(closes1m)-1],
		RSI1m:  ta.RSI(closes1m, ind.RSIPeriod),
		RSI5m:  ta.RSI(closes5m, ind.RSIPeriod),
		ATR:    ta.ATR(bars1m, ind.ATRPeriod),
		MACD5m: ta.MACD(closes5m, ind.MACDShort, ind.MACDLong, ind.MACDSignal),
	}, nil
}

func closes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
