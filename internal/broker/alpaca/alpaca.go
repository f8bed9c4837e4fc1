package alpaca

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"ai-scalper/internal/api"
	"ai-scalper/internal/logger"
	"ai-scalper/internal/types"
)

// Params configures the gateway. Mode DRY_RUN simulates order routing while
// still reading live market data.
type Params struct {
	Mode        string
	Key         string
	Secret      string
	DataBase    string
	TradingBase string
}

// Gateway routes every outbound broker and market-data call through the
// shared resilient HTTP client.
type Gateway struct {
	mode    string
	data    *api.Client
	trading *api.Client
	entropy *ulid.MonotonicEntropy
}

// maxBarLimit is the broker-side cap on a single bar request.
const maxBarLimit = 1000

// The free market-data tier allows 200 requests a minute; the limiter keeps
// a burst of concurrent candidate scans under it.
const (
	dataRequestsPerSec = 200.0 / 60
	dataRequestBurst   = 10
)

func New(p Params, opts ...api.ClientOption) *Gateway {
	auth := []api.ClientOption{
		api.WithHeader("APCA-API-KEY-ID", p.Key),
		api.WithHeader("APCA-API-SECRET-KEY", p.Secret),
	}
	dataOpts := append(append([]api.ClientOption{
		api.WithBaseURL(p.DataBase),
		api.WithRateLimit(dataRequestsPerSec, dataRequestBurst),
	}, auth...), opts...)
	tradingOpts := append(append([]api.ClientOption{api.WithBaseURL(p.TradingBase)}, auth...), opts...)
	return &Gateway{
		mode:    p.Mode,
		data:    api.NewClient(dataOpts...),
		trading: api.NewClient(tradingOpts...),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (g *Gateway) MostActives(ctx context.Context, n int) ([]string, error) {
	resp, err := g.data.GET(ctx, "/v1beta1/screener/stocks/most-actives",
		map[string]string{"top": strconv.Itoa(n)})
	if err != nil {
		return nil, err
	}
	var out struct {
		MostActives []struct {
			Symbol string `json:"symbol"`
		} `json:"most_actives"`
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(out.MostActives))
	for _, m := range out.MostActives {
		symbols = append(symbols, m.Symbol)
	}
	return symbols, nil
}

func (g *Gateway) News(ctx context.Context, limit int) ([]types.Article, error) {
	resp, err := g.data.GET(ctx, "/v1beta1/news",
		map[string]string{"limit": strconv.Itoa(limit)})
	if err != nil {
		return nil, err
	}
	var out struct {
		News []types.Article `json:"news"`
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	return out.News, nil
}

func (g *Gateway) Bars(ctx context.Context, symbol, timeframe string, limit int) ([]types.Bar, error) {
	if limit > maxBarLimit {
		limit = maxBarLimit
	}
	// Look back far enough to cover weekends and holidays, and take the
	// newest bars of that window: the default ascending sort would hand
	// back the oldest ones once the window holds more than limit.
	start := time.Now().UTC().AddDate(0, 0, -5)
	resp, err := g.data.GET(ctx, "/v2/stocks/"+symbol+"/bars", map[string]string{
		"timeframe": timeframe,
		"limit":     strconv.Itoa(limit),
		"start":     start.Format(time.RFC3339),
		"sort":      "desc",
		"feed":      "iex",
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Bars []struct {
			T string  `json:"t"`
			O float64 `json:"o"`
			H float64 `json:"h"`
			L float64 `json:"l"`
			C float64 `json:"c"`
			V float64 `json:"v"`
		} `json:"bars"`
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	bars := make([]types.Bar, 0, len(out.Bars))
	for _, b := range out.Bars {
		ts, err := time.Parse(time.RFC3339, b.T)
		if err != nil {
			continue
		}
		bars = append(bars, types.Bar{
			Ts: ts.Unix(), Open: b.O, High: b.H, Low: b.L, Close: b.C, Vol: b.V,
		})
	}
	// Back to chronological order for the indicator math.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

func (g *Gateway) LatestQuote(ctx context.Context, symbol string) (types.Quote, error) {
	resp, err := g.data.GET(ctx, "/v2/stocks/"+symbol+"/quotes/latest", nil)
	if err != nil {
		return types.Quote{}, err
	}
	var out struct {
		Quote struct {
			AskPrice float64 `json:"ap"`
			BidPrice float64 `json:"bp"`
		} `json:"quote"`
	}
	if err := resp.ParseJSON(&out); err != nil {
		return types.Quote{}, err
	}
	return types.Quote{Ask: out.Quote.AskPrice, Bid: out.Quote.BidPrice}, nil
}

func (g *Gateway) Account(ctx context.Context) (types.Account, error) {
	resp, err := g.trading.GET(ctx, "/v2/account", nil)
	if err != nil {
		return types.Account{}, err
	}
	var out struct {
		Equity     string `json:"equity"`
		LastEquity string `json:"last_equity"`
	}
	if err := resp.ParseJSON(&out); err != nil {
		return types.Account{}, err
	}
	return types.Account{
		Equity:     parseFloat(out.Equity),
		LastEquity: parseFloat(out.LastEquity),
	}, nil
}

func (g *Gateway) Positions(ctx context.Context) ([]types.Position, error) {
	resp, err := g.trading.GET(ctx, "/v2/positions", nil)
	if err != nil {
		return nil, err
	}
	var out []struct {
		Symbol         string `json:"symbol"`
		Qty            string `json:"qty"`
		AvgEntryPrice  string `json:"avg_entry_price"`
		CurrentPrice   string `json:"current_price"`
		UnrealizedPL   string `json:"unrealized_pl"`
		UnrealizedPLPC string `json:"unrealized_plpc"`
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	positions := make([]types.Position, 0, len(out))
	for _, p := range out {
		positions = append(positions, types.Position{
			Symbol:         p.Symbol,
			Qty:            parseFloat(p.Qty),
			AvgEntryPrice:  parseFloat(p.AvgEntryPrice),
			CurrentPrice:   parseFloat(p.CurrentPrice),
			UnrealizedPL:   parseFloat(p.UnrealizedPL),
			UnrealizedPLPC: parseFloat(p.UnrealizedPLPC),
		})
	}
	return positions, nil
}

func (g *Gateway) MarketOpen(ctx context.Context) (bool, error) {
	resp, err := g.trading.GET(ctx, "/v2/clock", nil)
	if err != nil {
		return false, err
	}
	var out struct {
		IsOpen bool `json:"is_open"`
	}
	if err := resp.ParseJSON(&out); err != nil {
		return false, err
	}
	return out.IsOpen, nil
}

func (g *Gateway) SubmitBracket(ctx context.Context, o types.BracketOrder) (types.OrderResp, error) {
	if o.ClientOrderID == "" {
		o.ClientOrderID = ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
	}

	if g.mode == "DRY_RUN" {
		logger.Info(ctx, "DRY_RUN: bracket order simulated",
			"symbol", o.Symbol, "qty", o.Qty,
			"limit_price", o.LimitPrice, "stop_loss", o.StopLoss, "take_profit", o.TakeProfit)
		return types.OrderResp{OrderID: "dry-" + o.ClientOrderID, Status: "accepted"}, nil
	}

	body := map[string]any{
		"symbol":          o.Symbol,
		"qty":             strconv.Itoa(o.Qty),
		"side":            "buy",
		"type":            "limit",
		"limit_price":     fmt.Sprintf("%.2f", o.LimitPrice),
		"time_in_force":   "day",
		"order_class":     "bracket",
		"client_order_id": o.ClientOrderID,
		"take_profit":     map[string]string{"limit_price": fmt.Sprintf("%.2f", o.TakeProfit)},
		"stop_loss":       map[string]string{"stop_price": fmt.Sprintf("%.2f", o.StopLoss)},
	}
	resp, err := g.trading.POST(ctx, "/v2/orders", body)
	if err != nil {
		return types.OrderResp{}, err
	}
	var out types.OrderResp
	if err := resp.ParseJSON(&out); err != nil {
		return types.OrderResp{}, err
	}
	return out, nil
}

func (g *Gateway) ClosePosition(ctx context.Context, symbol string) error {
	if g.mode == "DRY_RUN" {
		logger.Info(ctx, "DRY_RUN: position close simulated", "symbol", symbol)
		return nil
	}
	_, err := g.trading.DELETE(ctx, "/v2/positions/"+symbol)
	return err
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
