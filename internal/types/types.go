package types

// Bar is one OHLC interval for one symbol. Immutable once fetched.
type Bar struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

type Quote struct {
	Ask float64
	Bid float64
}

type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// IndicatorSet is one analysis pass over a symbol. Not persisted.
type IndicatorSet struct {
	Symbol string     `json:"symbol"`
	Price  float64    `json:"current_price"`
	RSI1m  float64    `json:"rsi_1m"`
	RSI5m  float64    `json:"rsi_5m"`
	ATR    float64    `json:"atr"`
	MACD5m MACDResult `json:"macd_5m"`
}

type Recommendation struct {
	Ticker     string  `json:"ticker"`
	Decision   string  `json:"decision"` // BUY or HOLD
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// WatchlistEntry combines a recommendation with the indicators it was scored on.
type WatchlistEntry struct {
	Recommendation
	Indicators IndicatorSet `json:"indicators"`
}

type Position struct {
	Symbol         string  `json:"symbol"`
	Qty            float64 `json:"qty"`
	AvgEntryPrice  float64 `json:"avg_entry_price"`
	CurrentPrice   float64 `json:"current_price"`
	UnrealizedPL   float64 `json:"unrealized_pl"`
	UnrealizedPLPC float64 `json:"unrealized_plpc"`
	StopPrice      float64 `json:"stop_price,omitempty"`
}

type Portfolio struct {
	Equity        float64 `json:"equity"`
	LastEquity    float64 `json:"last_equity"`
	InitialEquity float64 `json:"initial_equity"`
}

// DailyState tracks the first-trade gate. LastTradeDate is a UTC calendar
// date key ("2006-01-02"); FirstTradeDone may be true only for that date.
type DailyState struct {
	LastTradeDate  string `json:"last_trade_date"`
	FirstTradeDone bool   `json:"is_first_trade_made_today"`
}

type Account struct {
	Equity     float64 `json:"equity"`
	LastEquity float64 `json:"last_equity"`
}

type Article struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
}

type BracketOrder struct {
	Symbol        string
	Qty           int
	LimitPrice    float64
	StopLoss      float64
	TakeProfit    float64
	ClientOrderID string
}

type OrderResp struct {
	OrderID string `json:"id"`
	Status  string `json:"status"`
}

// EquityPoint is one sample of the portfolio equity time series.
type EquityPoint struct {
	Ts     int64   `json:"ts"`
	Equity float64 `json:"equity"`
}
