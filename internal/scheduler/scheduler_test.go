package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-scalper/internal/api"
	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/scan"
	"ai-scalper/internal/state"
	"ai-scalper/internal/store"
	"ai-scalper/internal/strategy"
	"ai-scalper/internal/types"
	"ai-scalper/internal/watchlist"
)

type fakeBroker struct {
	marketOpen    bool
	marketOpenErr error
	account       types.Account
	accountErr    error
	positions     []types.Position
}

func (f *fakeBroker) MostActives(context.Context, int) ([]string, error) { return nil, nil }
func (f *fakeBroker) News(context.Context, int) ([]types.Article, error) { return nil, nil }
func (f *fakeBroker) Bars(context.Context, string, string, int) ([]types.Bar, error) {
	return nil, errors.New("no data")
}
func (f *fakeBroker) LatestQuote(context.Context, string) (types.Quote, error) {
	return types.Quote{}, errors.New("no quote")
}
func (f *fakeBroker) Account(context.Context) (types.Account, error) {
	return f.account, f.accountErr
}
func (f *fakeBroker) Positions(context.Context) ([]types.Position, error) {
	return f.positions, nil
}
func (f *fakeBroker) MarketOpen(context.Context) (bool, error) {
	return f.marketOpen, f.marketOpenErr
}
func (f *fakeBroker) SubmitBracket(context.Context, types.BracketOrder) (types.OrderResp, error) {
	return types.OrderResp{}, errors.New("not implemented")
}
func (f *fakeBroker) ClosePosition(context.Context, string) error { return nil }

type fakeAdvisor struct{}

func (fakeAdvisor) Recommend(context.Context, string, types.IndicatorSet) (types.Recommendation, bool, error) {
	return types.Recommendation{}, false, nil
}

type fakePersister struct {
	saves atomic.Int32
	last  interfaces.SavedState
}

func (f *fakePersister) Load() (interfaces.SavedState, error) { return f.last, nil }
func (f *fakePersister) Save(s interfaces.SavedState) error {
	f.saves.Add(1)
	f.last = s
	return nil
}
func (f *fakePersister) Export() ([]byte, error) { return nil, nil }
func (f *fakePersister) Import([]byte) error     { return nil }
func (f *fakePersister) Clear() error            { return nil }

func testConfig() *store.Config {
	cfg := &store.Config{}
	cfg.TradeCycleSeconds = 1
	cfg.AI.AnalysisFreqMinutes = 60
	cfg.Risk.PerTradeRiskPct = 1
	cfg.Risk.MaxConcurrentScalps = 3
	cfg.Watchlist.TopN = 10
	cfg.Watchlist.MinConfidence = 7
	cfg.Watchlist.BarLimit = 200
	cfg.Indicators.RSIPeriod = 14
	cfg.Indicators.ATRPeriod = 14
	cfg.Indicators.MACDShort = 12
	cfg.Indicators.MACDLong = 26
	cfg.Indicators.MACDSignal = 9
	return cfg
}

func newScheduler(brk *fakeBroker, persister *fakePersister) (*Scheduler, *state.Store) {
	cfg := testConfig()
	states := state.NewStore(nil)
	analyzer := scan.NewAnalyzer(brk, cfg)
	sched := New(Params{
		Broker:    brk,
		Builder:   watchlist.NewBuilder(brk, fakeAdvisor{}, analyzer, cfg),
		Strategy:  strategy.New(brk, analyzer, nil, cfg),
		States:    states,
		Persister: persister,
		Config:    cfg,
	})
	return sched, states
}

func TestRolloverResetsDailyStateOnNewUTCDate(t *testing.T) {
	sched, states := newScheduler(&fakeBroker{}, &fakePersister{})
	sched.now = func() time.Time { return time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC) }

	daily := types.DailyState{LastTradeDate: "2026-08-28", FirstTradeDone: true}
	states.Apply(state.Patch{Daily: &daily})

	sched.rolloverIfNewDay(context.Background())

	got := states.Snapshot().Daily
	assert.Equal(t, "2026-08-29", got.LastTradeDate)
	assert.False(t, got.FirstTradeDone)
}

func TestRolloverIsNoOpWithinTheSameDay(t *testing.T) {
	sched, states := newScheduler(&fakeBroker{}, &fakePersister{})
	sched.now = func() time.Time { return time.Date(2026, 8, 29, 19, 55, 0, 0, time.UTC) }

	daily := types.DailyState{LastTradeDate: "2026-08-29", FirstTradeDone: true}
	states.Apply(state.Patch{Daily: &daily})

	sched.rolloverIfNewDay(context.Background())

	assert.True(t, states.Snapshot().Daily.FirstTradeDone)
}

func TestTradeCycleStillRefreshesWhenMarketClosed(t *testing.T) {
	persister := &fakePersister{}
	brk := &fakeBroker{marketOpen: false, account: types.Account{Equity: 9000}}
	sched, states := newScheduler(brk, persister)

	err := sched.tradeCycle(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 9000, states.Snapshot().Portfolio.Equity, 1e-9)
	assert.Equal(t, int32(1), persister.saves.Load(), "state persists every tick")
}

func TestTradeCycleRefreshesAccountAndPersists(t *testing.T) {
	persister := &fakePersister{}
	brk := &fakeBroker{
		marketOpen: true,
		account:    types.Account{Equity: 25000, LastEquity: 24000},
		positions:  []types.Position{{Symbol: "AAPL", Qty: 10}},
	}
	sched, states := newScheduler(brk, persister)

	require.NoError(t, sched.tradeCycle(context.Background()))

	snap := states.Snapshot()
	assert.InDelta(t, 25000, snap.Portfolio.Equity, 1e-9)
	assert.Len(t, snap.Positions, 1)
	assert.Equal(t, int32(1), persister.saves.Load())
}

func TestDispatchSkipsWhileCycleInFlight(t *testing.T) {
	sched, _ := newScheduler(&fakeBroker{}, &fakePersister{})

	release := make(chan struct{})
	started := make(chan struct{})
	var runs atomic.Int32
	slow := func(context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	}

	sched.dispatch(context.Background(), &sched.tradeBusy, "trade", slow)
	<-started
	sched.dispatch(context.Background(), &sched.tradeBusy, "trade", slow)
	close(release)

	assert.Eventually(t, func() bool { return !sched.tradeBusy.Load() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "second tick must be dropped, not queued")
}

func TestAuthFailureHaltsScheduler(t *testing.T) {
	persister := &fakePersister{}
	brk := &fakeBroker{marketOpenErr: &api.AuthError{URL: "https://paper-api.alpaca.markets/v2/clock"}}
	sched, _ := newScheduler(brk, persister)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sched.Run(ctx)

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.GreaterOrEqual(t, persister.saves.Load(), int32(1), "state persisted on the way out")
}

func TestFinalPersistRunsOnce(t *testing.T) {
	persister := &fakePersister{}
	sched, _ := newScheduler(&fakeBroker{}, persister)

	sched.persistFinal()
	sched.persistFinal()

	assert.Equal(t, int32(1), persister.saves.Load())
}

func TestAnalysisCyclePersistsState(t *testing.T) {
	persister := &fakePersister{}
	sched, _ := newScheduler(&fakeBroker{}, persister)

	require.NoError(t, sched.analysisCycle(context.Background()))

	assert.Equal(t, int32(1), persister.saves.Load())
}

func TestInFlightCycleOutlivesCancellation(t *testing.T) {
	sched, _ := newScheduler(&fakeBroker{}, &fakePersister{})

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	cycleErr := make(chan error, 1)
	sched.dispatch(ctx, &sched.tradeBusy, "trade", func(cctx context.Context) error {
		close(started)
		<-release
		cycleErr <- cctx.Err()
		return nil
	})

	<-started
	cancel()
	close(release)

	assert.NoError(t, <-cycleErr, "cancellation must not abort a cycle already running")
}
