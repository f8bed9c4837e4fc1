package interfaces

import (
	"context"

	"ai-scalper/internal/types"
)

// Broker is the single chokepoint for market data and order routing.
type Broker interface {
	MostActives(ctx context.Context, n int) ([]string, error)
	News(ctx context.Context, limit int) ([]types.Article, error)
	Bars(ctx context.Context, symbol, timeframe string, limit int) ([]types.Bar, error)
	LatestQuote(ctx context.Context, symbol string) (types.Quote, error)
	Account(ctx context.Context) (types.Account, error)
	Positions(ctx context.Context) ([]types.Position, error)
	MarketOpen(ctx context.Context) (bool, error)
	SubmitBracket(ctx context.Context, o types.BracketOrder) (types.OrderResp, error)
	ClosePosition(ctx context.Context, symbol string) error
}
