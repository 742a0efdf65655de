// Package chat runs the per-day chatrooms: an append-only message log for
// each day bucket plus grounded assistant replies generated over that day's
// recorded transcripts.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Anmol-TheDev/AI-pendant/internal/ai"
	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/internal/retrieval"
	"github.com/Anmol-TheDev/AI-pendant/internal/storage"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	// historyDepth bounds how many prior messages are replayed to the
	// generator per reply.
	historyDepth = 20

	// groundingHits is how many semantically similar chunks are quoted in
	// the reply prompt.
	groundingHits = 5
)

// degradedReplyNotice stands in for the assistant reply when generation is
// unavailable. The user message is already persisted by then.
const degradedReplyNotice = "I could not generate a reply right now. Your message was saved."

// Manager serves chatroom reads and generates grounded replies. The
// chatroom id for a day is its bucket id.
type Manager struct {
	meta      storage.MetaStore
	engine    *retrieval.Engine
	generator ai.Generator
	logger    logging.Logger
}

// NewManager creates a chat manager. The generator may be nil; replies then
// degrade to a fixed notice instead of failing the message write.
func NewManager(meta storage.MetaStore, engine *retrieval.Engine, generator ai.Generator, logger logging.Logger) *Manager {
	return &Manager{
		meta:      meta,
		engine:    engine,
		generator: generator,
		logger:    logger.WithComponent("chat"),
	}
}

func (m *Manager) chatroomFor(ctx context.Context, userID string, dayNumber int) (*types.DayBucket, error) {
	return m.meta.GetDayBucketByNumber(ctx, userID, dayNumber)
}

// Messages returns one page of a day's chat log in chronological order.
// cursor is the id of the oldest message of the previous page; empty means
// the newest page.
func (m *Manager) Messages(ctx context.Context, userID string, dayNumber int, cursor string, limit int) (*types.MessagePage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	bucket, err := m.chatroomFor(ctx, userID, dayNumber)
	if err != nil {
		return nil, err
	}

	var before *time.Time
	if cursor != "" {
		cursorMsg, err := m.meta.GetChatMessage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		if cursorMsg.ChatroomID != bucket.ID {
			return nil, apperrors.NewValidation("cursor", "does not belong to this chatroom")
		}
		before = &cursorMsg.CreatedAt
	}

	// Fetch one past the page to learn whether older messages remain.
	newestFirst, err := m.meta.ListChatMessagesBefore(ctx, bucket.ID, before, limit+1)
	if err != nil {
		return nil, err
	}
	hasMore := len(newestFirst) > limit
	if hasMore {
		newestFirst = newestFirst[:limit]
	}

	messages := make([]types.ChatMessage, len(newestFirst))
	for i, msg := range newestFirst {
		messages[len(newestFirst)-1-i] = msg
	}

	total, err := m.meta.CountChatMessages(ctx, bucket.ID)
	if err != nil {
		return nil, err
	}

	page := &types.MessagePage{
		Messages:   messages,
		HasMore:    hasMore,
		TotalCount: total,
	}
	if hasMore && len(messages) > 0 {
		page.NextCursor = messages[0].ID
	}
	return page, nil
}

// Send appends the user's message to the day's log, generates a grounded
// assistant reply, appends it too, and returns both. Reply generation never
// fails the call once the user message is persisted.
func (m *Manager) Send(ctx context.Context, userID string, dayNumber int, content string) (*types.ChatMessage, *types.ChatMessage, error) {
	userMsg, bucket, err := m.appendUserMessage(ctx, userID, dayNumber, content)
	if err != nil {
		return nil, nil, err
	}

	reply, err := m.generateReply(ctx, userID, bucket, content)
	if err != nil {
		m.logger.WarnContext(ctx, "Reply generation degraded",
			"bucket", bucket.Name,
			"error", err,
		)
		reply = degradedReplyNotice
	}

	assistantMsg, err := m.appendMessage(ctx, bucket.ID, "", types.RoleAssistant, reply)
	if err != nil {
		return nil, nil, err
	}
	return userMsg, assistantMsg, nil
}

// StreamReply appends the user's message, streams the assistant reply
// incrementally over the returned channel, and persists the full reply once
// the stream ends. The channel closes after the final event. When the
// stream cannot start, the channel carries the same degradation notice Send
// falls back to.
func (m *Manager) StreamReply(ctx context.Context, userID string, dayNumber int, content string) (<-chan ai.StreamEvent, error) {
	_, bucket, err := m.appendUserMessage(ctx, userID, dayNumber, content)
	if err != nil {
		return nil, err
	}

	inner, err := m.openReplyStream(ctx, userID, bucket, content)
	if err != nil {
		m.logger.WarnContext(ctx, "Reply generation degraded",
			"bucket", bucket.Name,
			"error", err,
		)
		return m.degradedStream(ctx, bucket), nil
	}

	out := make(chan ai.StreamEvent)
	go func() {
		defer close(out)
		var full strings.Builder
		for event := range inner {
			if event.Text != "" {
				full.WriteString(event.Text)
			}
			out <- event
		}
		if full.Len() > 0 {
			if _, err := m.appendMessage(ctx, bucket.ID, "", types.RoleAssistant, full.String()); err != nil {
				m.logger.WarnContext(ctx, "Failed to persist streamed reply",
					"bucket", bucket.Name,
					"error", err,
				)
			}
		}
	}()
	return out, nil
}

func (m *Manager) openReplyStream(ctx context.Context, userID string, bucket *types.DayBucket, content string) (<-chan ai.StreamEvent, error) {
	if m.generator == nil {
		return nil, apperrors.New(apperrors.ErrorCodeDependencyDegraded, "no text generator configured")
	}
	prompt, history, err := m.buildPrompt(ctx, userID, bucket, content)
	if err != nil {
		return nil, err
	}
	inner, err := m.generator.GenerateStream(ctx, prompt, history)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeDependencyDegraded, "reply stream failed to start", err)
	}
	return inner, nil
}

// degradedStream persists the degradation notice as the assistant reply and
// replays it as a one-fragment stream.
func (m *Manager) degradedStream(ctx context.Context, bucket *types.DayBucket) <-chan ai.StreamEvent {
	if _, err := m.appendMessage(ctx, bucket.ID, "", types.RoleAssistant, degradedReplyNotice); err != nil {
		m.logger.WarnContext(ctx, "Failed to persist streamed reply",
			"bucket", bucket.Name,
			"error", err,
		)
	}
	out := make(chan ai.StreamEvent, 2)
	out <- ai.StreamEvent{Text: degradedReplyNotice}
	out <- ai.StreamEvent{Done: true}
	close(out)
	return out
}

func (m *Manager) appendUserMessage(ctx context.Context, userID string, dayNumber int, content string) (*types.ChatMessage, *types.DayBucket, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil, apperrors.NewValidation("content", "must not be empty")
	}
	bucket, err := m.chatroomFor(ctx, userID, dayNumber)
	if err != nil {
		return nil, nil, err
	}
	msg, err := m.appendMessage(ctx, bucket.ID, userID, types.RoleUser, content)
	if err != nil {
		return nil, nil, err
	}
	return msg, bucket, nil
}

func (m *Manager) appendMessage(ctx context.Context, chatroomID, userID string, role types.MessageRole, content string) (*types.ChatMessage, error) {
	msg := &types.ChatMessage{
		ID:         uuid.New().String(),
		ChatroomID: chatroomID,
		UserID:     userID,
		Role:       role,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := m.meta.CreateChatMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (m *Manager) generateReply(ctx context.Context, userID string, bucket *types.DayBucket, question string) (string, error) {
	if m.generator == nil {
		return "", apperrors.New(apperrors.ErrorCodeDependencyDegraded, "no text generator configured")
	}
	prompt, history, err := m.buildPrompt(ctx, userID, bucket, question)
	if err != nil {
		return "", err
	}
	reply, err := m.generator.Generate(ctx, prompt, history)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrorCodeDependencyDegraded, "reply generation failed", err)
	}
	return reply, nil
}

// buildPrompt grounds the reply in the chunks most similar to the question
// and replays the recent chat history.
func (m *Manager) buildPrompt(ctx context.Context, userID string, bucket *types.DayBucket, question string) (string, []ai.Message, error) {
	var grounding strings.Builder
	results, err := m.engine.SemanticSearch(ctx, userID, question, retrieval.SearchOptions{Limit: groundingHits})
	if err != nil {
		// Grounding is best effort; answer from history alone.
		m.logger.DebugContext(ctx, "Chat grounding search failed", "error", err)
	} else {
		for _, r := range results.Results {
			fmt.Fprintf(&grounding, "- [%s, hour %d] %s\n", r.Metadata.BucketName, r.Metadata.Hour, r.Text)
		}
	}

	prompt := fmt.Sprintf(`You are the memory assistant for a wearable audio recorder. The user is asking about %s.
Relevant transcript excerpts:
%s
Question: %s

Answer from the excerpts when they are relevant; say so plainly when they are not.`,
		bucket.Name, grounding.String(), question)

	history, err := m.recentHistory(ctx, bucket.ID)
	if err != nil {
		return "", nil, err
	}
	return prompt, history, nil
}

func (m *Manager) recentHistory(ctx context.Context, chatroomID string) ([]ai.Message, error) {
	newestFirst, err := m.meta.ListChatMessagesBefore(ctx, chatroomID, nil, historyDepth)
	if err != nil {
		return nil, err
	}
	history := make([]ai.Message, len(newestFirst))
	for i, msg := range newestFirst {
		history[len(newestFirst)-1-i] = ai.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return history, nil
}
