package watchlist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-scalper/internal/scan"
	"ai-scalper/internal/store"
	"ai-scalper/internal/types"
)

type fakeBroker struct {
	actives    []string
	activesErr error
	articles   []types.Article
	newsErr    error
	barsFn     func(symbol, timeframe string) ([]types.Bar, error)
}

func (f *fakeBroker) MostActives(context.Context, int) ([]string, error) {
	return f.actives, f.activesErr
}
func (f *fakeBroker) News(context.Context, int) ([]types.Article, error) {
	return f.articles, f.newsErr
}
func (f *fakeBroker) Bars(_ context.Context, symbol, timeframe string, _ int) ([]types.Bar, error) {
	if f.barsFn != nil {
		return f.barsFn(symbol, timeframe)
	}
	return trendingBars(60), nil
}
func (f *fakeBroker) LatestQuote(context.Context, string) (types.Quote, error) {
	return types.Quote{}, errors.New("not implemented")
}
func (f *fakeBroker) Account(context.Context) (types.Account, error) {
	return types.Account{}, errors.New("not implemented")
}
func (f *fakeBroker) Positions(context.Context) ([]types.Position, error) { return nil, nil }
func (f *fakeBroker) MarketOpen(context.Context) (bool, error)            { return true, nil }
func (f *fakeBroker) SubmitBracket(context.Context, types.BracketOrder) (types.OrderResp, error) {
	return types.OrderResp{}, errors.New("not implemented")
}
func (f *fakeBroker) ClosePosition(context.Context, string) error { return nil }

type fakeAdvisor struct {
	fn func(symbol string) (types.Recommendation, bool, error)
}

func (f *fakeAdvisor) Recommend(_ context.Context, _ string, ind types.IndicatorSet) (types.Recommendation, bool, error) {
	return f.fn(ind.Symbol)
}

func trendingBars(n int) []types.Bar {
	bars := make([]types.Bar, n)
	p := 100.0
	for i := range bars {
		p += 0.1
		bars[i] = types.Bar{Ts: int64(i), Open: p - 0.05, High: p + 0.2, Low: p - 0.2, Close: p, Vol: 1000}
	}
	return bars
}

func testConfig() *store.Config {
	cfg := &store.Config{}
	cfg.Watchlist.TopN = 10
	cfg.Watchlist.MinConfidence = 7
	cfg.Watchlist.NewsLimit = 50
	cfg.Watchlist.BarLimit = 200
	cfg.Indicators.RSIPeriod = 14
	cfg.Indicators.ATRPeriod = 14
	cfg.Indicators.MACDShort = 12
	cfg.Indicators.MACDLong = 26
	cfg.Indicators.MACDSignal = 9
	return cfg
}

func newBuilder(brk *fakeBroker, adv *fakeAdvisor) *Builder {
	cfg := testConfig()
	return NewBuilder(brk, adv, scan.NewAnalyzer(brk, cfg), cfg)
}

func buyRec(symbol string, confidence float64) (types.Recommendation, bool, error) {
	return types.Recommendation{Ticker: symbol, Decision: "BUY", Confidence: confidence, Reasoning: "test"}, true, nil
}

func TestBuildNoCandidatesKeepsPrevious(t *testing.T) {
	prev := []types.WatchlistEntry{{Recommendation: types.Recommendation{Ticker: "KEEP"}}}
	b := newBuilder(&fakeBroker{actives: nil}, &fakeAdvisor{fn: func(s string) (types.Recommendation, bool, error) {
		t.Fatal("advisor must not be called without candidates")
		return types.Recommendation{}, false, nil
	}})
	assert.Equal(t, prev, b.Build(context.Background(), prev))
}

func TestBuildScreenerErrorKeepsPrevious(t *testing.T) {
	prev := []types.WatchlistEntry{{Recommendation: types.Recommendation{Ticker: "KEEP"}}}
	b := newBuilder(&fakeBroker{activesErr: errors.New("boom")}, &fakeAdvisor{fn: nil})
	assert.Equal(t, prev, b.Build(context.Background(), prev))
}

func TestBuildNoQualifiersKeepsPrevious(t *testing.T) {
	prev := []types.WatchlistEntry{{Recommendation: types.Recommendation{Ticker: "KEEP"}}}
	brk := &fakeBroker{actives: []string{"AAA", "BBB"}}
	adv := &fakeAdvisor{fn: func(s string) (types.Recommendation, bool, error) {
		if s == "AAA" {
			return types.Recommendation{Ticker: s, Decision: "HOLD", Confidence: 9}, true, nil
		}
		return types.Recommendation{Ticker: s, Decision: "BUY", Confidence: 5}, true, nil
	}}
	got := newBuilder(brk, adv).Build(context.Background(), prev)
	assert.Equal(t, prev, got)
}

func TestBuildSortsByConfidenceWithStableTies(t *testing.T) {
	brk := &fakeBroker{actives: []string{"AAA", "BBB", "CCC", "DDD"}}
	conf := map[string]float64{"AAA": 8, "BBB": 9, "CCC": 8, "DDD": 10}
	adv := &fakeAdvisor{fn: func(s string) (types.Recommendation, bool, error) {
		return buyRec(s, conf[s])
	}}
	got := newBuilder(brk, adv).Build(context.Background(), nil)
	require.Len(t, got, 4)
	order := []string{got[0].Ticker, got[1].Ticker, got[2].Ticker, got[3].Ticker}
	// AAA and CCC tie at 8; scan order decides.
	assert.Equal(t, []string{"DDD", "BBB", "AAA", "CCC"}, order)
}

func TestBuildContainsPerCandidateFailures(t *testing.T) {
	brk := &fakeBroker{
		actives: []string{"ERR", "THIN", "GOOD"},
		barsFn: func(symbol, timeframe string) ([]types.Bar, error) {
			switch symbol {
			case "THIN":
				return trendingBars(10), nil // below the 50-bar floor
			default:
				return trendingBars(60), nil
			}
		},
	}
	adv := &fakeAdvisor{fn: func(s string) (types.Recommendation, bool, error) {
		if s == "ERR" {
			return types.Recommendation{}, false, fmt.Errorf("model unavailable")
		}
		return buyRec(s, 8)
	}}
	got := newBuilder(brk, adv).Build(context.Background(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "GOOD", got[0].Ticker)
}

func TestBuildNewsFailureIsNotFatal(t *testing.T) {
	brk := &fakeBroker{actives: []string{"AAA"}, newsErr: errors.New("news down")}
	adv := &fakeAdvisor{fn: func(s string) (types.Recommendation, bool, error) { return buyRec(s, 9) }}
	got := newBuilder(brk, adv).Build(context.Background(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "AAA", got[0].Ticker)
}

func TestBuildAttachesIndicators(t *testing.T) {
	brk := &fakeBroker{actives: []string{"AAA"}}
	adv := &fakeAdvisor{fn: func(s string) (types.Recommendation, bool, error) { return buyRec(s, 8) }}
	got := newBuilder(brk, adv).Build(context.Background(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "AAA", got[0].Indicators.Symbol)
	assert.Greater(t, got[0].Indicators.Price, 0.0)
}
