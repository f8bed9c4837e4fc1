package llmobs

import (
	"context"

	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/logger"
	"ai-scalper/internal/types"
)

// observableAdvisor wraps an Advisor with span timing and decision logging.
type observableAdvisor struct {
	advisor interfaces.Advisor
}

var _ interfaces.Advisor = (*observableAdvisor)(nil)

func Wrap(advisor interfaces.Advisor) interfaces.Advisor {
	return &observableAdvisor{advisor: advisor}
}

func (oa *observableAdvisor) Recommend(ctx context.Context, headlines string, ind types.IndicatorSet) (types.Recommendation, bool, error) {
	timer := logger.StartOperation(ctx, "advisor.Recommend", "symbol", ind.Symbol)
	ctx = timer.GetContext()

	rec, ok, err := oa.advisor.Recommend(ctx, headlines, ind)
	if err != nil {
		timer.EndWithError(err, "symbol", ind.Symbol)
		return rec, ok, err
	}
	timer.End("ok", ok)

	if ok {
		logger.Recommendation(ctx, rec.Ticker, rec.Decision, rec.Confidence, rec.Reasoning)
	} else {
		logger.Debug(ctx, "No recommendation produced", "symbol", ind.Symbol)
	}
	return rec, ok, err
}
