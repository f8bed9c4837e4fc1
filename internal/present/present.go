// Package present is the default headless presenter. It turns UI side
// effects into structured log lines so unattended runs still leave a trail.
package present

import (
	"context"

	"ai-scalper/internal/interfaces"
	"ai-scalper/internal/logger"
)

type Log struct{}

func NewLog() *Log { return &Log{} }

func (l *Log) Log(sev interfaces.Severity, msg string) {
	ctx := context.Background()
	switch sev {
	case interfaces.SevError:
		logger.Error(ctx, msg, "severity", string(sev))
	case interfaces.SevBuy, interfaces.SevSell:
		logger.Info(ctx, msg, "severity", string(sev))
	default:
		logger.Debug(ctx, msg, "severity", string(sev))
	}
}

func (l *Log) Notify(sev interfaces.Severity, msg string) {
	logger.Info(context.Background(), msg, "severity", string(sev), "notify", true)
}

func (l *Log) Refresh(string) {}
