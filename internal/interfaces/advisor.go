package interfaces

import (
	"context"

	"ai-scalper/internal/types"
)

// Advisor scores one symbol from news context plus its indicator set.
// ok=false means "no recommendation"; advisors must not fail the batch over
// a single malformed response.
type Advisor interface {
	Recommend(ctx context.Context, headlines string, ind types.IndicatorSet) (rec types.Recommendation, ok bool, err error)
}
