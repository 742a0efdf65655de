package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// GeminiGenerator implements Generator using the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  logging.Logger
}

// NewGeminiGenerator creates a Gemini-backed generator. The API key is
// required; callers that have no key should not construct one and should
// rely on local fallbacks instead.
func NewGeminiGenerator(ctx context.Context, cfg *config.GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiGenerator{
		client:  client,
		model:   cfg.GenerationModel,
		timeout: timeout,
		logger:  logging.WithComponent("gemini"),
	}, nil
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// Generate returns the full response for prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, history []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.model)

	var resp *genai.GenerateContentResponse
	var err error
	if len(history) > 0 {
		session := model.StartChat()
		session.History = toGenaiHistory(history)
		resp, err = session.SendMessage(ctx, genai.Text(prompt))
	} else {
		resp, err = model.GenerateContent(ctx, genai.Text(prompt))
	}
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

// GenerateStream delivers the response as a channel of fragments.
func (g *GeminiGenerator) GenerateStream(ctx context.Context, prompt string, history []Message) (<-chan StreamEvent, error) {
	model := g.client.GenerativeModel(g.model)

	var iter *genai.GenerateContentResponseIterator
	if len(history) > 0 {
		session := model.StartChat()
		session.History = toGenaiHistory(history)
		iter = session.SendMessageStream(ctx, genai.Text(prompt))
	} else {
		iter = model.GenerateContentStream(ctx, genai.Text(prompt))
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				events <- StreamEvent{Done: true}
				return
			}
			if err != nil {
				g.logger.ErrorContext(ctx, "Streaming generation aborted", "error", err)
				events <- StreamEvent{Err: fmt.Errorf("gemini stream failed: %w", err)}
				return
			}
			if text := responseText(resp); text != "" {
				select {
				case events <- StreamEvent{Text: text}:
				case <-ctx.Done():
					events <- StreamEvent{Err: ctx.Err()}
					return
				}
			}
		}
	}()
	return events, nil
}

func toGenaiHistory(history []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for i := range history {
		role := "user"
		if history[i].Role == types.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(history[i].Content)},
		})
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
