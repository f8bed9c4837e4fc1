package noop

import (
	"context"

	"ai-scalper/internal/types"
)

// Advisor never recommends anything. Used when no AI provider is configured.
type Advisor struct{}

func NewAdvisor() *Advisor { return &Advisor{} }

func (a *Advisor) Recommend(_ context.Context, _ string, _ types.IndicatorSet) (types.Recommendation, bool, error) {
	return types.Recommendation{}, false, nil
}
