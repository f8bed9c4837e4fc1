package state

import (
	"sync"
	"time"

	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/types"
)

// Snapshot is a consistent copy of all shared state, safe to read while
// cycles keep running.
type Snapshot struct {
	Portfolio   types.Portfolio
	Positions   []types.Position
	Watchlist   []types.WatchlistEntry
	Daily       types.DailyState
	Performance []types.EquityPoint
}

// Patch is one atomic state transition. Nil fields are left untouched;
// non-nil slice fields replace wholesale, never merge.
type Patch struct {
	Account   *types.Account
	Positions *[]types.Position
	Watchlist *[]types.WatchlistEntry
	Daily     *types.DailyState
}

// Store owns all mutable shared state. Every mutation goes through Apply so
// an observer can never see a half-updated portfolio.
type Store struct {
	mu          sync.RWMutex
	portfolio   types.Portfolio
	positions   []types.Position
	watchlist   []types.WatchlistEntry
	daily       types.DailyState
	performance []types.EquityPoint

	presenter interfaces.Presenter
	now       func() time.Time
}

func NewStore(presenter interfaces.Presenter) *Store {
	return &Store{presenter: presenter, now: time.Now}
}

// Restore seeds the store from persisted state on startup.
func (s *Store) Restore(saved interfaces.SavedState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio.InitialEquity = saved.InitialEquity
	s.daily = saved.Daily
	s.performance = append([]types.EquityPoint(nil), saved.PerformanceData...)
}

// Apply performs one atomic state transition and notifies the presenter of
// what changed.
func (s *Store) Apply(p Patch) {
	s.mu.Lock()

	refreshed := make([]string, 0, 4)
	if p.Account != nil {
		s.applyAccount(*p.Account)
		refreshed = append(refreshed, "portfolio", "chart")
	}
	if p.Positions != nil {
		s.positions = append([]types.Position(nil), (*p.Positions)...)
		refreshed = append(refreshed, "positions")
	}
	if p.Watchlist != nil {
		s.watchlist = append([]types.WatchlistEntry(nil), (*p.Watchlist)...)
		refreshed = append(refreshed, "watchlist")
	}
	if p.Daily != nil {
		s.daily = *p.Daily
	}
	s.mu.Unlock()

	if s.presenter != nil {
		for _, what := range refreshed {
			s.presenter.Refresh(what)
		}
	}
}

// applyAccount updates equity. InitialEquity and LastEquity latch on the
// first non-zero observation and never reset within a session.
func (s *Store) applyAccount(acct types.Account) {
	if acct.Equity == 0 {
		return
	}
	s.portfolio.Equity = acct.Equity
	if s.portfolio.InitialEquity == 0 {
		s.portfolio.InitialEquity = acct.Equity
	}
	if s.portfolio.LastEquity == 0 {
		if acct.LastEquity != 0 {
			s.portfolio.LastEquity = acct.LastEquity
		} else {
			s.portfolio.LastEquity = acct.Equity
		}
	}
	s.performance = append(s.performance, types.EquityPoint{
		Ts: s.now().Unix(), Equity: acct.Equity,
	})
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Portfolio:   s.portfolio,
		Positions:   append([]types.Position(nil), s.positions...),
		Watchlist:   append([]types.WatchlistEntry(nil), s.watchlist...),
		Daily:       s.daily,
		Performance: append([]types.EquityPoint(nil), s.performance...),
	}
}

// Saved packages the persistent subset of the state.
func (s *Store) Saved() interfaces.SavedState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return interfaces.SavedState{
		PerformanceData: append([]types.EquityPoint(nil), s.performance...),
		InitialEquity:   s.portfolio.InitialEquity,
		Daily:           s.daily,
	}
}
