// Package eodobs wraps the EOD summarizer with logging and tracing.
package eodobs

import (
	"context"
	"time"

	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/logger"
	"ai-scalper/internal/trace"
)

type observableSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableSummarizer{summarizer: summarizer}
}

func (oes *observableSummarizer) SummarizeDay(t time.Time) (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "eod.SummarizeDay")
	defer span.End()

	csvPath, err := oes.summarizer.SummarizeDay(t)
	if err != nil {
		logger.ErrorWithErr(ctx, "EOD summary failed", err, "date", t.UTC().Format("2006-01-02"))
		return "", err
	}
	if csvPath == "" {
		logger.Debug(ctx, "No orders to summarize", "date", t.UTC().Format("2006-01-02"))
		return "", nil
	}
	logger.Info(ctx, "EOD summary written", "date", t.UTC().Format("2006-01-02"), "csv_path", csvPath)
	return csvPath, nil
}

func (oes *observableSummarizer) SummarizeToday() (string, error) {
	return oes.SummarizeDay(time.Now().UTC())
}

func (oes *observableSummarizer) ShouldRunNow() (bool, string) {
	return oes.summarizer.ShouldRunNow()
}
