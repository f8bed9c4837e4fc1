package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecommendationPlainJSON(t *testing.T) {
	rec, ok := ParseRecommendation(`{"ticker":"NVDA","decision":"BUY","confidence":8,"reasoning":"momentum"}`)
	require.True(t, ok)
	assert.Equal(t, "NVDA", rec.Ticker)
	assert.Equal(t, "BUY", rec.Decision)
	assert.Equal(t, 8.0, rec.Confidence)
}

func TestParseRecommendationStripsFences(t *testing.T) {
	text := "```json\n{\"ticker\":\"TSLA\",\"decision\":\"hold\",\"confidence\":5,\"reasoning\":\"chop\"}\n```"
	rec, ok := ParseRecommendation(text)
	require.True(t, ok)
	assert.Equal(t, "HOLD", rec.Decision)
	assert.Equal(t, 5.0, rec.Confidence)
}

func TestParseRecommendationFindsEmbeddedObject(t *testing.T) {
	text := `Sure! Here is my analysis: {"ticker":"AMD","decision":"BUY","confidence":7,"reasoning":"breakout"} hope that helps.`
	rec, ok := ParseRecommendation(text)
	require.True(t, ok)
	assert.Equal(t, "AMD", rec.Ticker)
}

func TestParseRecommendationRejectsGarbage(t *testing.T) {
	for _, text := range []string{
		"",
		"no json here",
		`{"ticker":"X","decision":"SELL","confidence":8}`, // SELL is not a valid decision
		`{"ticker":"X","decision":"BUY","confidence":0}`,  // out of range
		`{"ticker":"X","decision":"BUY","confidence":11}`,
		`{"ticker":"X","decision":`,
	} {
		_, ok := ParseRecommendation(text)
		assert.False(t, ok, "expected rejection for %q", text)
	}
}
