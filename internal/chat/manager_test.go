package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anmol-TheDev/AI-pendant/internal/ai"
	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	"github.com/Anmol-TheDev/AI-pendant/internal/embeddings"
	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/internal/retrieval"
	"github.com/Anmol-TheDev/AI-pendant/internal/storage"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

type chatEnv struct {
	meta    *storage.MemoryMetaStore
	manager *Manager
}

func newChatEnv(generator ai.Generator) *chatEnv {
	meta := storage.NewMemoryMetaStore()
	logger := logging.NewNoOpLogger()
	engine := retrieval.NewEngine(
		meta,
		storage.NewMemoryVectorStore(),
		embeddings.NewResilientService(nil),
		config.SearchConfig{DefaultLimit: 10, MaxLimit: 100},
		logger,
	)
	return &chatEnv{
		meta:    meta,
		manager: NewManager(meta, engine, generator, logger),
	}
}

func (e *chatEnv) seedBucket(t *testing.T, id, userID string, dayNumber int) *types.DayBucket {
	t.Helper()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	bucket := &types.DayBucket{
		ID:        id,
		UserID:    userID,
		Name:      "Day 1",
		DayNumber: dayNumber,
		StartTime: start,
		EndTime:   start.Add(24 * time.Hour),
	}
	require.NoError(t, e.meta.CreateDayBucket(context.Background(), bucket))
	return bucket
}

func (e *chatEnv) seedMessage(t *testing.T, id, roomID string, role types.MessageRole, at time.Time) {
	t.Helper()
	require.NoError(t, e.meta.CreateChatMessage(context.Background(), &types.ChatMessage{
		ID:         id,
		ChatroomID: roomID,
		Role:       role,
		Content:    "msg " + id,
		CreatedAt:  at,
	}))
}

func TestMessages(t *testing.T) {
	env := newChatEnv(nil)
	ctx := context.Background()

	_, err := env.manager.Messages(ctx, "user-a", 1, "", 10)
	assert.True(t, apperrors.IsNotFound(err))

	bucket := env.seedBucket(t, "room-1", "user-a", 1)
	other := env.seedBucket(t, "room-2", "user-b", 1)
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		env.seedMessage(t, id, bucket.ID, types.RoleUser, base.Add(time.Duration(i)*time.Minute))
	}
	env.seedMessage(t, "x", other.ID, types.RoleUser, base)

	t.Run("newest page in chronological order", func(t *testing.T) {
		page, err := env.manager.Messages(ctx, "user-a", 1, "", 2)
		require.NoError(t, err)
		require.Len(t, page.Messages, 2)
		assert.Equal(t, "d", page.Messages[0].ID)
		assert.Equal(t, "e", page.Messages[1].ID)
		assert.True(t, page.HasMore)
		assert.Equal(t, "d", page.NextCursor)
		assert.Equal(t, int64(5), page.TotalCount)
	})

	t.Run("cursor walks backwards", func(t *testing.T) {
		page, err := env.manager.Messages(ctx, "user-a", 1, "d", 2)
		require.NoError(t, err)
		require.Len(t, page.Messages, 2)
		assert.Equal(t, "b", page.Messages[0].ID)
		assert.Equal(t, "c", page.Messages[1].ID)
		assert.True(t, page.HasMore)

		page, err = env.manager.Messages(ctx, "user-a", 1, "b", 2)
		require.NoError(t, err)
		require.Len(t, page.Messages, 1)
		assert.Equal(t, "a", page.Messages[0].ID)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("foreign cursor rejected", func(t *testing.T) {
		_, err := env.manager.Messages(ctx, "user-a", 1, "x", 2)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("empty content rejected", func(t *testing.T) {
		env := newChatEnv(nil)
		env.seedBucket(t, "room-1", "user-a", 1)
		_, _, err := env.manager.Send(ctx, "user-a", 1, "  ")
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("no generator degrades to notice", func(t *testing.T) {
		env := newChatEnv(nil)
		bucket := env.seedBucket(t, "room-1", "user-a", 1)

		userMsg, reply, err := env.manager.Send(ctx, "user-a", 1, "what did I do today?")
		require.NoError(t, err)
		assert.Equal(t, types.RoleUser, userMsg.Role)
		assert.Equal(t, types.RoleAssistant, reply.Role)
		assert.Equal(t, "I could not generate a reply right now. Your message was saved.", reply.Content)

		count, err := env.meta.CountChatMessages(ctx, bucket.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("generator reply is grounded and persisted", func(t *testing.T) {
		gen := &ai.MockGenerator{GenerateFunc: func(_ context.Context, prompt string, _ []ai.Message) (string, error) {
			return "You mostly talked about the garden.", nil
		}}
		env := newChatEnv(gen)
		bucket := env.seedBucket(t, "room-1", "user-a", 1)

		_, reply, err := env.manager.Send(ctx, "user-a", 1, "what did I talk about?")
		require.NoError(t, err)
		assert.Equal(t, "You mostly talked about the garden.", reply.Content)

		require.Len(t, gen.Calls, 1)
		assert.Contains(t, gen.Calls[0], "Day 1")
		assert.Contains(t, gen.Calls[0], "what did I talk about?")

		count, err := env.meta.CountChatMessages(ctx, bucket.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("generator failure still persists both messages", func(t *testing.T) {
		gen := &ai.MockGenerator{GenerateFunc: func(context.Context, string, []ai.Message) (string, error) {
			return "", context.DeadlineExceeded
		}}
		env := newChatEnv(gen)
		bucket := env.seedBucket(t, "room-1", "user-a", 1)

		_, reply, err := env.manager.Send(ctx, "user-a", 1, "hello?")
		require.NoError(t, err)
		assert.Contains(t, reply.Content, "could not generate a reply")

		count, err := env.meta.CountChatMessages(ctx, bucket.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestStreamReply(t *testing.T) {
	ctx := context.Background()

	t.Run("no generator streams the degradation notice", func(t *testing.T) {
		env := newChatEnv(nil)
		bucket := env.seedBucket(t, "room-1", "user-a", 1)

		events, err := env.manager.StreamReply(ctx, "user-a", 1, "hello")
		require.NoError(t, err)

		var full string
		var done bool
		for event := range events {
			full += event.Text
			done = done || event.Done
		}
		assert.Equal(t, "I could not generate a reply right now. Your message was saved.", full)
		assert.True(t, done)

		// Same degraded outcome as Send: both messages hit the log.
		count, err := env.meta.CountChatMessages(ctx, bucket.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		page, err := env.manager.Messages(ctx, "user-a", 1, "", 10)
		require.NoError(t, err)
		require.Len(t, page.Messages, 2)
		assert.Equal(t, types.RoleAssistant, page.Messages[1].Role)
		assert.Equal(t, "I could not generate a reply right now. Your message was saved.", page.Messages[1].Content)
	})

	t.Run("stream start failure degrades the same way", func(t *testing.T) {
		gen := &ai.MockGenerator{GenerateFunc: func(context.Context, string, []ai.Message) (string, error) {
			return "", errors.New("model offline")
		}}
		env := newChatEnv(gen)
		bucket := env.seedBucket(t, "room-1", "user-a", 1)

		events, err := env.manager.StreamReply(ctx, "user-a", 1, "hello")
		require.NoError(t, err)

		var full string
		for event := range events {
			full += event.Text
		}
		assert.Equal(t, "I could not generate a reply right now. Your message was saved.", full)

		count, err := env.meta.CountChatMessages(ctx, bucket.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("streams and persists the full reply", func(t *testing.T) {
		gen := &ai.MockGenerator{GenerateFunc: func(context.Context, string, []ai.Message) (string, error) {
			return "Streamed answer.", nil
		}}
		env := newChatEnv(gen)
		bucket := env.seedBucket(t, "room-1", "user-a", 1)

		events, err := env.manager.StreamReply(ctx, "user-a", 1, "what happened?")
		require.NoError(t, err)

		var full string
		var done bool
		for event := range events {
			full += event.Text
			done = done || event.Done
		}
		assert.Equal(t, "Streamed answer.", full)
		assert.True(t, done)

		// The channel closes only after the reply is written to the log.
		count, err := env.meta.CountChatMessages(ctx, bucket.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		page, err := env.manager.Messages(ctx, "user-a", 1, "", 10)
		require.NoError(t, err)
		require.Len(t, page.Messages, 2)
		assert.Equal(t, types.RoleAssistant, page.Messages[1].Role)
		assert.Equal(t, "Streamed answer.", page.Messages[1].Content)
	})
}
