package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentiment_Range(t *testing.T) {
	texts := []string{
		"this is the best and most amazing product",
		"terrible awful scam",
		"best worst",
		"mixed feelings: great product but expensive and difficult",
		"",
	}
	for _, text := range texts {
		s := Sentiment(text)
		assert.GreaterOrEqual(t, s, -1.0, "text: %q", text)
		assert.LessOrEqual(t, s, 1.0, "text: %q", text)
	}
}

func TestSentiment_ZeroWhenNoMatches(t *testing.T) {
	assert.Equal(t, 0.0, Sentiment("completely neutral sentence about nothing"))
	assert.Equal(t, 0.0, Sentiment(""))
}

func TestSentiment_Polarity(t *testing.T) {
	assert.Equal(t, 1.0, Sentiment("best great amazing"))
	assert.Equal(t, -1.0, Sentiment("worst awful scam"))
	assert.Equal(t, 0.0, Sentiment("best worst"))
}

func TestSentiment_WholeWordOnly(t *testing.T) {
	// "bestseller" must not count as "best"
	assert.Equal(t, 0.0, Sentiment("bestseller catalog"))
}

func TestSentiment_Deterministic(t *testing.T) {
	text := "great product, bad support"
	first := Sentiment(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Sentiment(text))
	}
}
