package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"ai-scalper/internal/store"
	"ai-scalper/internal/trace"
	"ai-scalper/internal/types"
)

// Advisor asks an OpenAI chat model to score one symbol.
type Advisor struct {
	cfg      *store.Config
	endpoint string
}

func NewAdvisor(cfg *store.Config) *Advisor {
	endpoint := "https://api.openai.com/v1/chat/completions"
	if ep := os.Getenv("OPENAI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Advisor{cfg: cfg, endpoint: endpoint}
}

const systemPrompt = "You are a disciplined intraday equities scalper. " +
	"Given market news and one symbol's technical indicators, respond ONLY with compact JSON: " +
	`{"ticker":"...","decision":"BUY"|"HOLD","confidence":1-10,"reasoning":"..."}`

// Recommend returns ok=false (no recommendation) on any request or parse
// failure; a single bad response must never abort the caller's batch. The
// returned error carries the cause for logging only.
func (a *Advisor) Recommend(ctx context.Context, headlines string, ind types.IndicatorSet) (types.Recommendation, bool, error) {
	ctx, span := trace.StartSpan(ctx, "openai-recommendation")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return types.Recommendation{}, false, errors.New("OPENAI_API_KEY missing")
	}

	indB, _ := json.Marshal(ind)
	user := fmt.Sprintf("Recent market headlines:\n%s\n\nIndicators for %s:\n%s\n\nRespond ONLY with compact JSON.",
		headlines, ind.Symbol, string(indB))

	body := map[string]any{
		"model": a.cfg.AI.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": user},
		},
		"temperature": a.cfg.AI.Temperature,
		"max_tokens":  a.cfg.AI.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", a.endpoint, bytes.NewReader(bb))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return types.Recommendation{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return types.Recommendation{}, false, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return types.Recommendation{}, false, err
	}
	if len(r.Choices) == 0 {
		return types.Recommendation{}, false, errors.New("no choices")
	}

	rec, ok := ParseRecommendation(r.Choices[0].Message.Content)
	if !ok {
		return types.Recommendation{}, false, nil
	}
	if rec.Ticker == "" {
		rec.Ticker = ind.Symbol
	}
	return rec, true, nil
}

// ParseRecommendation locates a JSON object inside whatever text the model
// produced, tolerating markdown fences and prose wrapping, and normalizes it.
func ParseRecommendation(text string) (types.Recommendation, bool) {
	t := strings.TrimSpace(text)

	// Strip markdown code fences if present.
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```json")
		t = strings.TrimPrefix(t, "```")
		if i := strings.LastIndex(t, "```"); i >= 0 {
			t = t[:i]
		}
		t = strings.TrimSpace(t)
	}

	if !strings.HasPrefix(t, "{") {
		start := strings.Index(t, "{")
		end := strings.LastIndex(t, "}")
		if start < 0 || end <= start {
			return types.Recommendation{}, false
		}
		t = t[start : end+1]
	}

	var rec types.Recommendation
	if err := json.Unmarshal([]byte(t), &rec); err != nil {
		return types.Recommendation{}, false
	}

	rec.Decision = strings.ToUpper(strings.TrimSpace(rec.Decision))
	if rec.Decision != "BUY" && rec.Decision != "HOLD" {
		return types.Recommendation{}, false
	}
	if rec.Confidence < 1 || rec.Confidence > 10 {
		return types.Recommendation{}, false
	}
	return rec, true
}
