// Package analysis classifies transcript chunks: keyword-lexicon sentiment
// and topic extraction (LLM-assisted with a local frequency fallback).
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Anmol-TheDev/AI-pendant/internal/ai"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

const maxTopics = 5

var positiveWords = []string{
	"happy", "great", "good", "love", "excellent",
	"amazing", "wonderful", "fantastic", "awesome", "nice",
}

var negativeWords = []string{
	"bad", "sad", "hate", "terrible", "awful",
	"horrible", "angry", "frustrated", "annoyed", "disappointed",
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"the a an is are was were be been being have has had do does did " +
			"will would could should may might must shall can need dare ought " +
			"used to of in for on with at by from as into through during " +
			"before after above below between under again further then once " +
			"here there when where why how all each few more most other some " +
			"such no nor not only own same so than too very just and but if " +
			"or because until while although though i me my myself we our " +
			"ours ourselves you your yours yourself yourselves he him his " +
			"himself she her hers herself it its itself they them their " +
			"theirs themselves what which who whom this that these those am") {
		stopWords[w] = struct{}{}
	}
}

var wordPattern = regexp.MustCompile(`[a-z]{4,}`)

// Result holds the outcome of analyzing one chunk of text.
type Result struct {
	Sentiment types.Sentiment
	Topics    []string
}

// Analyzer classifies transcript text. A nil generator disables the LLM
// topic path and runs entirely on the local extractor.
type Analyzer struct {
	generator ai.Generator
	logger    logging.Logger
}

// NewAnalyzer creates an analyzer using the given text-generation adapter.
func NewAnalyzer(generator ai.Generator) *Analyzer {
	return &Analyzer{
		generator: generator,
		logger:    logging.WithComponent("analysis"),
	}
}

// Analyze returns sentiment and topics for text. It never fails: any LLM
// problem degrades to the local topic extractor.
func (a *Analyzer) Analyze(ctx context.Context, text string) Result {
	sentiment := Sentiment(text)

	topics, err := a.extractTopicsLLM(ctx, text)
	if err != nil {
		a.logger.WarnContext(ctx, "LLM topic extraction failed, using fallback", "error", err)
		topics = ExtractTopicsFallback(text)
	}

	return Result{Sentiment: sentiment, Topics: topics}
}

// AnalyzeBatch analyzes texts with the local extractor only (no LLM call
// per element).
func (a *Analyzer) AnalyzeBatch(texts []string) []Result {
	results := make([]Result, len(texts))
	for i, text := range texts {
		results[i] = Result{
			Sentiment: Sentiment(text),
			Topics:    ExtractTopicsFallback(text),
		}
	}
	return results
}

// Sentiment classifies text by counting fixed positive and negative keyword
// occurrences (case-insensitive substring match). Pure and deterministic.
func Sentiment(text string) types.Sentiment {
	lower := normalize(text)

	var positive, negative int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return types.SentimentPositive
	case negative > positive:
		return types.SentimentNegative
	default:
		return types.SentimentNeutral
	}
}

func (a *Analyzer) extractTopicsLLM(ctx context.Context, text string) ([]string, error) {
	if a.generator == nil {
		return nil, fmt.Errorf("no generator configured")
	}

	prompt := fmt.Sprintf(`Extract 1-5 main topics from this transcript text. Return ONLY a JSON array of topic strings, nothing else.
Text: %q
Example output: ["work", "meeting", "project deadline"]`, text)

	response, err := a.generator.Generate(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}

	var topics []string
	if err := json.Unmarshal([]byte(ai.CleanJSONResponse(response)), &topics); err != nil {
		return nil, fmt.Errorf("unparsable topic response: %w", err)
	}

	cleaned := make([]string, 0, maxTopics)
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		cleaned = append(cleaned, topic)
		if len(cleaned) == maxTopics {
			break
		}
	}
	return cleaned, nil
}

// ExtractTopicsFallback extracts up to 3 topics by word frequency: lowercase
// the text, drop stop words, keep tokens of length >= 4, rank by count.
// Ties keep first-seen order.
func ExtractTopicsFallback(text string) []string {
	words := wordPattern.FindAllString(normalize(text), -1)

	freq := make(map[string]int)
	order := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stopWords[w]; skip {
			continue
		}
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > 3 {
		order = order[:3]
	}
	return order
}

// normalize applies NFKC normalization and lowercasing so lexicon matching
// behaves consistently for composed and compatibility characters.
func normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}
