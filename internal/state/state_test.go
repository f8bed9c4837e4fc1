package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/types"
)

type recordingPresenter struct {
	refreshes []string
}

func (r *recordingPresenter) Log(interfaces.Severity, string)    {}
func (r *recordingPresenter) Notify(interfaces.Severity, string) {}
func (r *recordingPresenter) Refresh(what string)                { r.refreshes = append(r.refreshes, what) }

func TestEquityLatchesInitialAndLastOnce(t *testing.T) {
	s := NewStore(nil)
	s.now = func() time.Time { return time.Unix(1000, 0) }

	// Zero observations never latch anything.
	s.Apply(Patch{Account: &types.Account{}})
	assert.Equal(t, types.Portfolio{}, s.Snapshot().Portfolio)
	assert.Empty(t, s.Snapshot().Performance)

	s.Apply(Patch{Account: &types.Account{Equity: 10000, LastEquity: 9900}})
	p := s.Snapshot().Portfolio
	assert.Equal(t, 10000.0, p.Equity)
	assert.Equal(t, 10000.0, p.InitialEquity)
	assert.Equal(t, 9900.0, p.LastEquity)

	// Later refreshes only move Equity.
	s.Apply(Patch{Account: &types.Account{Equity: 10500, LastEquity: 10400}})
	p = s.Snapshot().Portfolio
	assert.Equal(t, 10500.0, p.Equity)
	assert.Equal(t, 10000.0, p.InitialEquity)
	assert.Equal(t, 9900.0, p.LastEquity)

	perf := s.Snapshot().Performance
	require.Len(t, perf, 2)
	assert.Equal(t, 10000.0, perf[0].Equity)
	assert.Equal(t, 10500.0, perf[1].Equity)
}

func TestPositionsReplaceWholesale(t *testing.T) {
	s := NewStore(nil)
	first := []types.Position{{Symbol: "AAPL", Qty: 10}, {Symbol: "TSLA", Qty: 5}}
	s.Apply(Patch{Positions: &first})

	second := []types.Position{{Symbol: "NVDA", Qty: 2}}
	s.Apply(Patch{Positions: &second})

	got := s.Snapshot().Positions
	require.Len(t, got, 1)
	assert.Equal(t, "NVDA", got[0].Symbol) // stale symbols disappear
}

func TestNilPatchFieldsUntouched(t *testing.T) {
	s := NewStore(nil)
	wl := []types.WatchlistEntry{{Recommendation: types.Recommendation{Ticker: "AAA"}}}
	s.Apply(Patch{Watchlist: &wl})

	s.Apply(Patch{Daily: &types.DailyState{LastTradeDate: "2026-08-30"}})

	snap := s.Snapshot()
	assert.Len(t, snap.Watchlist, 1)
	assert.Equal(t, "2026-08-30", snap.Daily.LastTradeDate)
}

func TestPresenterRefreshNotifications(t *testing.T) {
	rp := &recordingPresenter{}
	s := NewStore(rp)
	positions := []types.Position{}
	s.Apply(Patch{Account: &types.Account{Equity: 100}, Positions: &positions})
	assert.Equal(t, []string{"portfolio", "chart", "positions"}, rp.refreshes)
}

func TestRestoreAndSavedRoundTrip(t *testing.T) {
	s := NewStore(nil)
	s.Restore(interfaces.SavedState{
		PerformanceData: []types.EquityPoint{{Ts: 1, Equity: 5000}},
		InitialEquity:   5000,
		Daily:           types.DailyState{LastTradeDate: "2026-08-29", FirstTradeDone: true},
	})

	saved := s.Saved()
	assert.Equal(t, 5000.0, saved.InitialEquity)
	assert.True(t, saved.Daily.FirstTradeDone)
	require.Len(t, saved.PerformanceData, 1)

	// Restored InitialEquity must not be overwritten by the next observation.
	s.Apply(Patch{Account: &types.Account{Equity: 6000}})
	assert.Equal(t, 5000.0, s.Snapshot().Portfolio.InitialEquity)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore(nil)
	wl := []types.WatchlistEntry{{Recommendation: types.Recommendation{Ticker: "AAA"}}}
	s.Apply(Patch{Watchlist: &wl})

	snap := s.Snapshot()
	snap.Watchlist[0].Ticker = "MUTATED"
	assert.Equal(t, "AAA", s.Snapshot().Watchlist[0].Ticker)
}
