package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode      string `yaml:"mode"` // DRY_RUN or LIVE
	Endpoints struct {
		DataBase    string `yaml:"data_base"`
		TradingBase string `yaml:"trading_base"`
	} `yaml:"endpoints"`
	TradeCycleSeconds int `yaml:"trade_cycle_seconds"`
	Risk              struct {
		PerTradeRiskPct     float64 `yaml:"per_trade_risk_pct"`
		MaxConcurrentScalps int     `yaml:"max_concurrent_scalps"`
		LimitOrderOffsetPct float64 `yaml:"limit_order_offset_pct"`
	} `yaml:"risk"`
	Watchlist struct {
		TopN          int     `yaml:"top_n"`
		MinConfidence float64 `yaml:"min_confidence"`
		NewsLimit     int     `yaml:"news_limit"`
		BarLimit      int     `yaml:"bar_limit"`
	} `yaml:"watchlist"`
	Indicators struct {
		RSIPeriod  int `yaml:"rsi_period"`
		ATRPeriod  int `yaml:"atr_period"`
		MACDShort  int `yaml:"macd_short"`
		MACDLong   int `yaml:"macd_long"`
		MACDSignal int `yaml:"macd_signal"`
	} `yaml:"indicators"`
	AI struct {
		Provider            string  `yaml:"provider"`
		Model               string  `yaml:"model"`
		MaxTokens           int     `yaml:"max_tokens"`
		Temperature         float32 `yaml:"temperature"`
		AnalysisFreqMinutes int     `yaml:"analysis_freq_minutes"`
	} `yaml:"ai"`
	StatePath string `yaml:"state_path"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Risk.PerTradeRiskPct <= 0 || c.Risk.PerTradeRiskPct > 100 {
		return fmt.Errorf("risk.per_trade_risk_pct must be between 0-100, got %.2f", c.Risk.PerTradeRiskPct)
	}
	if c.Risk.MaxConcurrentScalps <= 0 {
		return fmt.Errorf("risk.max_concurrent_scalps must be positive, got %d", c.Risk.MaxConcurrentScalps)
	}
	if c.Risk.LimitOrderOffsetPct < 0 {
		return fmt.Errorf("risk.limit_order_offset_pct cannot be negative, got %.4f", c.Risk.LimitOrderOffsetPct)
	}
	if c.AI.AnalysisFreqMinutes <= 0 {
		return fmt.Errorf("ai.analysis_freq_minutes must be positive, got %d", c.AI.AnalysisFreqMinutes)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Endpoints.DataBase == "" {
		c.Endpoints.DataBase = "https://data.alpaca.markets"
	}
	if c.Endpoints.TradingBase == "" {
		c.Endpoints.TradingBase = "https://paper-api.alpaca.markets"
	}
	if c.TradeCycleSeconds == 0 {
		c.TradeCycleSeconds = 30
	}
	if c.Risk.MaxConcurrentScalps == 0 {
		c.Risk.MaxConcurrentScalps = 3
	}
	if c.Watchlist.TopN == 0 {
		c.Watchlist.TopN = 10
	}
	if c.Watchlist.MinConfidence == 0 {
		c.Watchlist.MinConfidence = 7
	}
	if c.Watchlist.NewsLimit == 0 {
		c.Watchlist.NewsLimit = 50
	}
	if c.Watchlist.BarLimit == 0 {
		c.Watchlist.BarLimit = 200
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.ATRPeriod == 0 {
		c.Indicators.ATRPeriod = 14
	}
	if c.Indicators.MACDShort == 0 {
		c.Indicators.MACDShort = 12
	}
	if c.Indicators.MACDLong == 0 {
		c.Indicators.MACDLong = 26
	}
	if c.Indicators.MACDSignal == 0 {
		c.Indicators.MACDSignal = 9
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 300
	}
	if c.AI.AnalysisFreqMinutes == 0 {
		c.AI.AnalysisFreqMinutes = 30
	}
	if c.StatePath == "" {
		c.StatePath = "state/scalper_state.json"
	}
}
