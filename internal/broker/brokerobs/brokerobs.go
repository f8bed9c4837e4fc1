package brokerobs

import (
	"context"

	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/logger"
	"ai-scalper/internal/trace"
	"ai-scalper/internal/types"
)

// observableBroker wraps a Broker with logging and tracing.
type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware.
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) MostActives(ctx context.Context, n int) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "broker.MostActives")
	defer span.End()

	symbols, err := ob.broker.MostActives(ctx, n)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch most actives", err, "top", n)
		return nil, err
	}
	logger.Debug(ctx, "Most actives fetched", "count", len(symbols))
	return symbols, nil
}

func (ob *observableBroker) News(ctx context.Context, limit int) ([]types.Article, error) {
	ctx, span := trace.StartSpan(ctx, "broker.News")
	defer span.End()

	articles, err := ob.broker.News(ctx, limit)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch news", err, "limit", limit)
		return nil, err
	}
	logger.Debug(ctx, "News fetched", "count", len(articles))
	return articles, nil
}

func (ob *observableBroker) Bars(ctx context.Context, symbol, timeframe string, limit int) ([]types.Bar, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Bars")
	defer span.End()

	bars, err := ob.broker.Bars(ctx, symbol, timeframe, limit)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch bars", err, "symbol", symbol, "timeframe", timeframe)
		return nil, err
	}
	logger.Debug(ctx, "Bars fetched", "symbol", symbol, "timeframe", timeframe, "count", len(bars))
	return bars, nil
}

func (ob *observableBroker) LatestQuote(ctx context.Context, symbol string) (types.Quote, error) {
	ctx, span := trace.StartSpan(ctx, "broker.LatestQuote")
	defer span.End()

	q, err := ob.broker.LatestQuote(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch quote", err, "symbol", symbol)
		return types.Quote{}, err
	}
	logger.Debug(ctx, "Quote fetched", "symbol", symbol, "ask", q.Ask, "bid", q.Bid)
	return q, nil
}

func (ob *observableBroker) Account(ctx context.Context) (types.Account, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Account")
	defer span.End()

	acct, err := ob.broker.Account(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch account", err)
		return types.Account{}, err
	}
	logger.Debug(ctx, "Account fetched", "equity", acct.Equity)
	return acct, nil
}

func (ob *observableBroker) Positions(ctx context.Context) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Positions")
	defer span.End()

	positions, err := ob.broker.Positions(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch positions", err)
		return nil, err
	}
	logger.Debug(ctx, "Positions fetched", "count", len(positions))
	return positions, nil
}

func (ob *observableBroker) MarketOpen(ctx context.Context) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "broker.MarketOpen")
	defer span.End()

	open, err := ob.broker.MarketOpen(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch market clock", err)
		return false, err
	}
	return open, nil
}

func (ob *observableBroker) SubmitBracket(ctx context.Context, o types.BracketOrder) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.SubmitBracket")
	defer span.End()

	logger.Info(ctx, "Submitting bracket order",
		"symbol", o.Symbol, "qty", o.Qty,
		"limit_price", o.LimitPrice, "stop_loss", o.StopLoss, "take_profit", o.TakeProfit)

	resp, err := ob.broker.SubmitBracket(ctx, o)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to submit bracket order", err, "symbol", o.Symbol, "qty", o.Qty)
		return types.OrderResp{}, err
	}
	logger.Info(ctx, "Bracket order accepted", "symbol", o.Symbol, "order_id", resp.OrderID, "status", resp.Status)
	return resp, nil
}

func (ob *observableBroker) ClosePosition(ctx context.Context, symbol string) error {
	ctx, span := trace.StartSpan(ctx, "broker.ClosePosition")
	defer span.End()

	if err := ob.broker.ClosePosition(ctx, symbol); err != nil {
		logger.ErrorWithErr(ctx, "Failed to close position", err, "symbol", symbol)
		return err
	}
	logger.Info(ctx, "Position close requested", "symbol", symbol)
	return nil
}
