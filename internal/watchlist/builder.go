package watchlist

import (
	"context"
	"errors"
	"sort"
	"sync"

	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/logger"
	"ai-scalper/internal/news"
	"ai-scalper/internal/scan"
	"ai-scalper/internal/store"
	"ai-scalper/internal/trace"
	"ai-scalper/internal/types"
)

// Builder turns market movers, news and indicators into an AI-scored,
// confidence-ranked candidate list.
type Builder struct {
	brk      interfaces.Broker
	advisor  interfaces.Advisor
	analyzer *scan.Analyzer
	cfg      *store.Config
}

func NewBuilder(brk interfaces.Broker, advisor interfaces.Advisor, analyzer *scan.Analyzer, cfg *store.Config) *Builder {
	return &Builder{brk: brk, advisor: advisor, analyzer: analyzer, cfg: cfg}
}

// Build runs one AI scan. It returns the replacement watchlist, or prev
// unchanged when the scan yields no qualifying entries: a failed or empty
// scan never regresses the watchlist to empty.
func (b *Builder) Build(ctx context.Context, prev []types.WatchlistEntry) []types.WatchlistEntry {
	ctx, span := trace.StartSpan(ctx, "watchlist.Build")
	defer span.End()

	candidates, err := b.brk.MostActives(ctx, b.cfg.Watchlist.TopN)
	if err != nil {
		logger.ErrorWithErr(ctx, "Most-actives screen failed, keeping previous watchlist", err)
		return prev
	}
	if len(candidates) == 0 {
		logger.Warn(ctx, "Most-actives screen returned no candidates, keeping previous watchlist")
		return prev
	}

	headlines := ""
	articles, err := b.brk.News(ctx, b.cfg.Watchlist.NewsLimit)
	if err != nil {
		// News is context, not a prerequisite; score on indicators alone.
		logger.Warn(ctx, "News fetch failed, scoring without headlines", "error", err)
	} else {
		headlines = news.Flatten(articles, b.cfg.Watchlist.NewsLimit)
	}

	// Candidates are scored independently and concurrently. Results land in
	// their candidate slot so the final ordering never depends on completion
	// order, only on confidence with scan order breaking ties.
	results := make([]*types.WatchlistEntry, len(candidates))
	var wg sync.WaitGroup
	for i, symbol := range candidates {
		wg.Add(1)
		go func(slot int, symbol string) {
			defer wg.Done()
			results[slot] = b.scoreCandidate(ctx, symbol, headlines)
		}(i, symbol)
	}
	wg.Wait()

	qualified := make([]types.WatchlistEntry, 0, len(candidates))
	for _, r := range results {
		if r != nil {
			qualified = append(qualified, *r)
		}
	}
	if len(qualified) == 0 {
		logger.Info(ctx, "AI scan produced no qualifying entries, keeping previous watchlist",
			"candidates", len(candidates))
		return prev
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Confidence > qualified[j].Confidence
	})
	logger.Info(ctx, "Watchlist replaced", "entries", len(qualified), "top", qualified[0].Ticker)
	return qualified
}

// scoreCandidate returns nil when the symbol does not qualify. Every failure
// is contained here so one bad candidate never aborts the batch.
func (b *Builder) scoreCandidate(ctx context.Context, symbol, headlines string) *types.WatchlistEntry {
	ind, err := b.analyzer.IndicatorSet(ctx, symbol)
	if err != nil {
		if errors.Is(err, scan.ErrInsufficientData) {
			logger.Debug(ctx, "Skipping candidate with insufficient history", "symbol", symbol)
		} else {
			logger.ErrorWithErr(ctx, "Indicator fetch failed for candidate", err, "symbol", symbol)
		}
		return nil
	}

	rec, ok, err := b.advisor.Recommend(ctx, headlines, ind)
	if err != nil {
		logger.ErrorWithErr(ctx, "AI recommendation failed for candidate", err, "symbol", symbol)
		return nil
	}
	if !ok {
		return nil
	}
	if rec.Decision != "BUY" || rec.Confidence < b.cfg.Watchlist.MinConfidence {
		logger.Debug(ctx, "Candidate did not qualify",
			"symbol", symbol, "decision", rec.Decision, "confidence", rec.Confidence)
		return nil
	}
	return &types.WatchlistEntry{Recommendation: rec, Indicators: ind}
}
