package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	p := writeConfig(t, `
mode: DRY_RUN
risk:
  per_trade_risk_pct: 1
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.TradeCycleSeconds)
	assert.Equal(t, 30, cfg.AI.AnalysisFreqMinutes)
	assert.Equal(t, 10, cfg.Watchlist.TopN)
	assert.Equal(t, 7.0, cfg.Watchlist.MinConfidence)
	assert.Equal(t, 50, cfg.Watchlist.NewsLimit)
	assert.Equal(t, 3, cfg.Risk.MaxConcurrentScalps)
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.Equal(t, 26, cfg.Indicators.MACDLong)
	assert.Equal(t, "https://data.alpaca.markets", cfg.Endpoints.DataBase)
}

func TestLoadConfigRejectsBadMode(t *testing.T) {
	p := writeConfig(t, `
mode: YOLO
risk:
  per_trade_risk_pct: 1
`)
	_, err := LoadConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestLoadConfigRejectsBadRisk(t *testing.T) {
	p := writeConfig(t, `
mode: LIVE
risk:
  per_trade_risk_pct: 150
`)
	_, err := LoadConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "per_trade_risk_pct")
}
