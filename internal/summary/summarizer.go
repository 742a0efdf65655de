// Package summary generates daily and weekly digests of recorded days,
// with deterministic templated fallbacks so summarization never hard-fails
// when data exists.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Anmol-TheDev/AI-pendant/internal/ai"
	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/internal/storage"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

const (
	dailyTopTopics  = 5
	weeklyTopTopics = 10
)

// Summarizer produces daily and weekly summaries.
type Summarizer struct {
	meta       storage.MetaStore
	generator  ai.Generator
	charBudget int
	logger     logging.Logger
}

// NewSummarizer creates a summarizer. The generator may be nil; every call
// then uses the templated fallback.
func NewSummarizer(meta storage.MetaStore, generator ai.Generator, cfg config.SummaryConfig, logger logging.Logger) *Summarizer {
	return &Summarizer{
		meta:       meta,
		generator:  generator,
		charBudget: cfg.CharBudget,
		logger:     logger.WithComponent("summary"),
	}
}

// Daily summarizes one recorded day. A day number with no bucket yields
// not-found; an existing bucket with no chunks yields (nil, nil).
func (s *Summarizer) Daily(ctx context.Context, userID string, dayNumber int) (*types.DailySummary, error) {
	bucket, err := s.meta.GetDayBucketByNumber(ctx, userID, dayNumber)
	if err != nil {
		return nil, err
	}
	segments, err := s.meta.ListSegments(ctx, bucket.ID)
	if err != nil {
		return nil, err
	}
	chunks, err := s.meta.ListChunksByBucket(ctx, bucket.ID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	topTopics := topTopicsFromSegments(segments, dailyTopTopics)
	var wordCount int64
	var sentimentTotals types.SentimentCounts
	for i := range segments {
		wordCount += segments[i].Stats.WordCount
		sentimentTotals.Positive += segments[i].Stats.Sentiment.Positive
		sentimentTotals.Neutral += segments[i].Stats.Sentiment.Neutral
		sentimentTotals.Negative += segments[i].Stats.Sentiment.Negative
	}

	result := &types.DailySummary{
		BucketName: bucket.Name,
		DayNumber:  bucket.DayNumber,
		StartTime:  bucket.StartTime,
		EndTime:    bucket.EndTime,
		TopTopics:  topTopics,
		Sentiment:  majoritySentiment(sentimentTotals),
		WordCount:  wordCount,
	}

	generated, err := s.generateDaily(ctx, chunks, topTopics)
	if err != nil {
		s.logger.WarnContext(ctx, "Daily summary generation degraded, using template",
			"day_number", dayNumber,
			"error", err,
		)
		result.Summary, result.Highlights = s.dailyFallback(len(chunks), len(segments), wordCount, topTopics)
		return result, nil
	}
	result.Summary = generated.Summary
	result.Highlights = generated.Highlights
	return result, nil
}

type dailyResponse struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
}

func (s *Summarizer) generateDaily(ctx context.Context, chunks []types.Chunk, topTopics []string) (*dailyResponse, error) {
	if s.generator == nil {
		return nil, apperrors.New(apperrors.ErrorCodeDependencyDegraded, "no text generator configured")
	}

	var b strings.Builder
	for _, c := range chunks {
		if b.Len() >= s.charBudget {
			break
		}
		b.WriteString(c.Text)
		b.WriteString(" ")
	}
	transcript := b.String()
	if len(transcript) > s.charBudget {
		transcript = transcript[:s.charBudget]
	}

	prompt := fmt.Sprintf(`Summarize this day of transcribed audio from a wearable recorder.
Main topics: %s

Transcript:
%s

Return ONLY a JSON object of the form {"summary": "...", "highlights": ["...", "..."]} with a short summary paragraph and 3-5 highlight sentences. No other text.`,
		strings.Join(topTopics, ", "), transcript)

	raw, err := s.generator.Generate(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}

	var parsed dailyResponse
	if err := json.Unmarshal([]byte(ai.CleanJSONResponse(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unparsable summary response: %w", err)
	}
	if parsed.Summary == "" {
		return nil, fmt.Errorf("summary response missing summary text")
	}
	return &parsed, nil
}

func (s *Summarizer) dailyFallback(chunkCount, hourCount int, wordCount int64, topTopics []string) (string, []string) {
	text := fmt.Sprintf("Day contained %d transcript segments across %d hours with %d words.",
		chunkCount, hourCount, wordCount)
	highlights := make([]string, 0, len(topTopics))
	for _, topic := range topTopics {
		highlights = append(highlights, "Discussed: "+topic)
	}
	return text, highlights
}

// Weekly summarizes the inclusive day range [startDay, endDay]. Days
// without data are skipped; a range with no recorded days yields (nil, nil).
func (s *Summarizer) Weekly(ctx context.Context, userID string, startDay, endDay int) (*types.WeeklySummary, error) {
	if startDay < 1 || endDay < startDay {
		return nil, apperrors.NewValidation("day_range", "start must be >= 1 and end must not precede start")
	}

	var dailies []types.DailySummary
	for day := startDay; day <= endDay; day++ {
		daily, err := s.Daily(ctx, userID, day)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if daily == nil {
			continue
		}
		dailies = append(dailies, *daily)
	}
	if len(dailies) == 0 {
		return nil, nil
	}

	topicCounts := make(map[string]int)
	var topicOrder []string
	for i := range dailies {
		for _, topic := range dailies[i].TopTopics {
			if _, seen := topicCounts[topic]; !seen {
				topicOrder = append(topicOrder, topic)
			}
			topicCounts[topic]++
		}
	}
	topTopics := rankTopics(topicCounts, topicOrder, weeklyTopTopics)

	result := &types.WeeklySummary{
		StartDay:       startDay,
		EndDay:         endDay,
		DailySummaries: dailies,
		TopTopics:      topTopics,
	}

	generated, err := s.generateWeekly(ctx, dailies, topTopics)
	if err != nil {
		s.logger.WarnContext(ctx, "Weekly summary generation degraded, using template",
			"start_day", startDay,
			"end_day", endDay,
			"error", err,
		)
		result.Summary, result.Trends = s.weeklyFallback(dailies, topTopics)
		return result, nil
	}
	result.Summary = generated.Summary
	result.Trends = generated.Trends
	return result, nil
}

type weeklyResponse struct {
	Summary string   `json:"summary"`
	Trends  []string `json:"trends"`
}

func (s *Summarizer) generateWeekly(ctx context.Context, dailies []types.DailySummary, topTopics []string) (*weeklyResponse, error) {
	if s.generator == nil {
		return nil, apperrors.New(apperrors.ErrorCodeDependencyDegraded, "no text generator configured")
	}

	var b strings.Builder
	for i := range dailies {
		fmt.Fprintf(&b, "%s: %s\n", dailies[i].BucketName, dailies[i].Summary)
	}

	prompt := fmt.Sprintf(`These are daily summaries from a wearable audio recorder, in order.
Recurring topics: %s

%s
Return ONLY a JSON object of the form {"summary": "...", "trends": ["...", "..."]} with a cohesive weekly narrative and 3-5 trend statements. No other text.`,
		strings.Join(topTopics, ", "), b.String())

	raw, err := s.generator.Generate(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}

	var parsed weeklyResponse
	if err := json.Unmarshal([]byte(ai.CleanJSONResponse(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unparsable weekly response: %w", err)
	}
	if parsed.Summary == "" {
		return nil, fmt.Errorf("weekly response missing summary text")
	}
	return &parsed, nil
}

func (s *Summarizer) weeklyFallback(dailies []types.DailySummary, topTopics []string) (string, []string) {
	var totalWords int64
	for i := range dailies {
		totalWords += dailies[i].WordCount
	}
	text := fmt.Sprintf("Week covered %d recorded days with %d words total.", len(dailies), totalWords)
	trends := make([]string, 0, len(topTopics))
	for _, topic := range topTopics {
		trends = append(trends, "Recurring topic: "+topic)
	}
	return text, trends
}

// majoritySentiment picks the sentiment with the strictly highest total;
// any tie resolves to neutral.
func majoritySentiment(c types.SentimentCounts) types.Sentiment {
	switch {
	case c.Positive > c.Neutral && c.Positive > c.Negative:
		return types.SentimentPositive
	case c.Negative > c.Neutral && c.Negative > c.Positive:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

func topTopicsFromSegments(segments []types.Segment, n int) []string {
	counts := make(map[string]int)
	var order []string
	for i := range segments {
		for topic, count := range segments[i].Stats.TopicDistribution {
			if _, seen := counts[topic]; !seen {
				order = append(order, topic)
			}
			counts[topic] += int(count)
		}
	}
	// Map iteration order is random; sort the first-seen order once so the
	// ranking below is deterministic.
	sort.Strings(order)
	return rankTopics(counts, order, n)
}

func rankTopics(counts map[string]int, order []string, n int) []string {
	ranked := append([]string(nil), order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
