package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anmol-TheDev/AI-pendant/internal/ai"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

func TestSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.Sentiment
	}{
		{"positive keyword", "had a great lunch with the team", types.SentimentPositive},
		{"negative keyword", "the commute was terrible today", types.SentimentNegative},
		{"no keywords", "picked up the package from the office", types.SentimentNeutral},
		{"balanced counts tie to neutral", "good morning but a bad afternoon", types.SentimentNeutral},
		{"positive outweighs negative", "awful start but a great and wonderful finish", types.SentimentPositive},
		{"case insensitive", "GREAT presentation", types.SentimentPositive},
		{"empty", "", types.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentiment(tt.text))
		})
	}
}

func TestExtractTopicsFallback(t *testing.T) {
	t.Run("ranks by frequency", func(t *testing.T) {
		topics := ExtractTopicsFallback("meeting meeting meeting budget budget deadline")
		assert.Equal(t, []string{"meeting", "budget", "deadline"}, topics)
	})

	t.Run("drops stop words and short tokens", func(t *testing.T) {
		topics := ExtractTopicsFallback("the cat sat on a big mat with some other cats")
		assert.NotContains(t, topics, "the")
		assert.NotContains(t, topics, "cat") // three letters
		assert.NotContains(t, topics, "with")
	})

	t.Run("caps at three", func(t *testing.T) {
		topics := ExtractTopicsFallback("alpha bravo charlie delta echoes foxtrot")
		assert.Len(t, topics, 3)
	})

	t.Run("ties keep first-seen order", func(t *testing.T) {
		topics := ExtractTopicsFallback("garden kitchen bedroom")
		assert.Equal(t, []string{"garden", "kitchen", "bedroom"}, topics)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, ExtractTopicsFallback(""))
	})
}

func TestAnalyze_LLMTopics(t *testing.T) {
	gen := &ai.MockGenerator{
		GenerateFunc: func(context.Context, string, []ai.Message) (string, error) {
			return "```json\n[\"work\", \"standup meeting\", \"sprint planning\"]\n```", nil
		},
	}
	analyzer := NewAnalyzer(gen)

	result := analyzer.Analyze(context.Background(), "great standup about the sprint")
	assert.Equal(t, types.SentimentPositive, result.Sentiment)
	assert.Equal(t, []string{"work", "standup meeting", "sprint planning"}, result.Topics)
	require.Len(t, gen.Calls, 1)
}

func TestAnalyze_LLMCapsAtFive(t *testing.T) {
	gen := &ai.MockGenerator{
		GenerateFunc: func(context.Context, string, []ai.Message) (string, error) {
			return `["one","two","three","four","five","six","seven"]`, nil
		},
	}
	result := NewAnalyzer(gen).Analyze(context.Background(), "text")
	assert.Len(t, result.Topics, 5)
}

func TestAnalyze_LLMFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  *ai.MockGenerator
	}{
		{"generator error", &ai.MockGenerator{
			GenerateFunc: func(context.Context, string, []ai.Message) (string, error) {
				return "", errors.New("quota exceeded")
			},
		}},
		{"unparsable response", &ai.MockGenerator{
			GenerateFunc: func(context.Context, string, []ai.Message) (string, error) {
				return "The topics are work and meetings.", nil
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewAnalyzer(tt.gen).Analyze(context.Background(),
				"project project deadline review")
			assert.Equal(t, []string{"project", "deadline", "review"}, result.Topics)
		})
	}
}

func TestAnalyze_NilGeneratorUsesFallback(t *testing.T) {
	result := NewAnalyzer(nil).Analyze(context.Background(), "hiking hiking trail weather")
	assert.Equal(t, []string{"hiking", "trail", "weather"}, result.Topics)
}

func TestAnalyzeBatch(t *testing.T) {
	results := NewAnalyzer(nil).AnalyzeBatch([]string{
		"love this wonderful weather",
		"traffic was horrible",
	})
	require.Len(t, results, 2)
	assert.Equal(t, types.SentimentPositive, results[0].Sentiment)
	assert.Equal(t, types.SentimentNegative, results[1].Sentiment)
}
