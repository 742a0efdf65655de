package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

func newSQLiteStore(t *testing.T) *SQLiteMetaStore {
	t.Helper()
	store, err := NewSQLiteMetaStore(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedBucket(t *testing.T, store *SQLiteMetaStore, id, userID string, dayNumber int, start time.Time) *types.DayBucket {
	t.Helper()
	bucket := &types.DayBucket{
		ID:        id,
		UserID:    userID,
		Name:      fmt.Sprintf("Day %d", dayNumber),
		DayNumber: dayNumber,
		StartTime: start,
		EndTime:   start.Add(24 * time.Hour),
		CreatedAt: start,
		UpdatedAt: start,
	}
	require.NoError(t, store.CreateDayBucket(context.Background(), bucket))
	return bucket
}

func seedSegment(t *testing.T, store *SQLiteMetaStore, id, bucketID string, hour int, ts time.Time) *types.Segment {
	t.Helper()
	segment := &types.Segment{
		ID:          id,
		DayBucketID: bucketID,
		Hour:        hour,
		StartTime:   ts,
		EndTime:     ts,
		Stats:       types.SegmentStats{TopicDistribution: map[string]int64{}},
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	require.NoError(t, store.CreateSegment(context.Background(), segment))
	return segment
}

func TestSQLiteDayBuckets(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	bucket := seedBucket(t, store, "b1", "user-a", 1, start)
	seedBucket(t, store, "b2", "user-a", 2, start.Add(24*time.Hour))
	seedBucket(t, store, "b3", "user-b", 1, start)

	t.Run("duplicate day number conflicts", func(t *testing.T) {
		err := store.CreateDayBucket(ctx, &types.DayBucket{
			ID:        "b4",
			UserID:    "user-a",
			Name:      "Day 1",
			DayNumber: 1,
			StartTime: start,
			EndTime:   start.Add(24 * time.Hour),
		})
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("lookup by number", func(t *testing.T) {
		got, err := store.GetDayBucketByNumber(ctx, "user-a", 1)
		require.NoError(t, err)
		assert.Equal(t, bucket.ID, got.ID)
		assert.True(t, got.StartTime.Equal(start))

		_, err = store.GetDayBucketByNumber(ctx, "user-a", 9)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("lookup by time is half open", func(t *testing.T) {
		got, err := store.GetDayBucketByTime(ctx, "user-a", start.Add(23*time.Hour+59*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "b1", got.ID)

		got, err = store.GetDayBucketByTime(ctx, "user-a", start.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "b2", got.ID)

		_, err = store.GetDayBucketByTime(ctx, "user-a", start.Add(-time.Second))
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("latest and listing", func(t *testing.T) {
		latest, err := store.GetLatestDayBucket(ctx, "user-a")
		require.NoError(t, err)
		assert.Equal(t, 2, latest.DayNumber)

		listed, err := store.ListDayBuckets(ctx, "user-a", 10)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, 2, listed[0].DayNumber)

		ranged, err := store.ListDayBucketsInRange(ctx, "user-a", 1, 2)
		require.NoError(t, err)
		require.Len(t, ranged, 2)
		assert.Equal(t, 1, ranged[0].DayNumber)
	})

	t.Run("touch bumps updated time", func(t *testing.T) {
		now := start.Add(30 * time.Hour)
		require.NoError(t, store.TouchDayBucket(ctx, "b1", now))
		got, err := store.GetDayBucketByNumber(ctx, "user-a", 1)
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.Equal(now))
	})
}

func TestSQLiteSegmentStats(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	bucket := seedBucket(t, store, "b1", "user-a", 1, start)
	segment := seedSegment(t, store, "s1", bucket.ID, 9, start)

	t.Run("duplicate hour conflicts", func(t *testing.T) {
		err := store.CreateSegment(ctx, &types.Segment{
			ID:          "s2",
			DayBucketID: bucket.ID,
			Hour:        9,
			StartTime:   start,
			EndTime:     start,
		})
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("increments accumulate", func(t *testing.T) {
		require.NoError(t, store.IncrementSegmentStats(ctx, segment.ID, StatsDelta{
			WordCount: 5,
			Sentiment: types.SentimentPositive,
			Topics:    []string{"garden", "coffee"},
			Timestamp: start.Add(10 * time.Minute),
		}))
		require.NoError(t, store.IncrementSegmentStats(ctx, segment.ID, StatsDelta{
			WordCount: 3,
			Sentiment: types.SentimentNeutral,
			Topics:    []string{"garden"},
			Timestamp: start.Add(5 * time.Minute),
		}))

		got, err := store.GetSegment(ctx, bucket.ID, 9)
		require.NoError(t, err)
		assert.Equal(t, int64(8), got.Stats.WordCount)
		assert.Equal(t, int64(1), got.Stats.Sentiment.Positive)
		assert.Equal(t, int64(1), got.Stats.Sentiment.Neutral)
		assert.Equal(t, map[string]int64{"garden": 2, "coffee": 1}, got.Stats.TopicDistribution)
		// The later of the two timestamps wins even though it arrived first.
		assert.True(t, got.EndTime.Equal(start.Add(10*time.Minute)))
	})

	t.Run("unknown segment", func(t *testing.T) {
		err := store.IncrementSegmentStats(ctx, "nope", StatsDelta{WordCount: 1, Timestamp: start})
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("list includes topic distribution", func(t *testing.T) {
		segments, err := store.ListSegments(ctx, bucket.ID)
		require.NoError(t, err)
		require.Len(t, segments, 1)
		assert.Equal(t, int64(2), segments[0].Stats.TopicDistribution["garden"])
	})
}

func TestSQLiteChunks(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	bucket := seedBucket(t, store, "b1", "user-a", 1, start)
	segment := seedSegment(t, store, "s1", bucket.ID, 9, start)

	number := 7
	chunk := &types.Chunk{
		ID:          "c1",
		DayBucketID: bucket.ID,
		SegmentID:   segment.ID,
		Text:        "tea with milk",
		Timestamp:   start.Add(5 * time.Minute),
		ChunkNumber: &number,
		Sentiment:   types.SentimentNeutral,
		Topics:      []string{"milk"},
		EmbeddingID: "c1",
		CreatedAt:   start,
	}
	require.NoError(t, store.CreateChunk(ctx, chunk))
	require.NoError(t, store.CreateChunk(ctx, &types.Chunk{
		ID:          "c2",
		DayBucketID: bucket.ID,
		SegmentID:   segment.ID,
		Text:        "earlier thought",
		Timestamp:   start,
		Sentiment:   types.SentimentNeutral,
		Topics:      []string{},
		EmbeddingID: "c2",
		CreatedAt:   start,
	}))

	t.Run("round trip", func(t *testing.T) {
		got, err := store.GetChunk(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "tea with milk", got.Text)
		require.NotNil(t, got.ChunkNumber)
		assert.Equal(t, 7, *got.ChunkNumber)
		assert.Equal(t, []string{"milk"}, got.Topics)
		assert.Equal(t, "c1", got.EmbeddingID)

		_, err = store.GetChunk(ctx, "missing")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("segment listing is chronological", func(t *testing.T) {
		chunks, err := store.ListChunksBySegment(ctx, segment.ID)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, "c2", chunks[0].ID)
		assert.Nil(t, chunks[0].ChunkNumber)
	})

	t.Run("time range respects user", func(t *testing.T) {
		chunks, err := store.ListChunksByTimeRange(ctx, "user-a", start, start.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "c2", chunks[0].ID)

		chunks, err = store.ListChunksByTimeRange(ctx, "user-b", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}

func TestSQLiteChatMessages(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		require.NoError(t, store.CreateChatMessage(ctx, &types.ChatMessage{
			ID:         string(rune('a' + i)),
			ChatroomID: "room-1",
			UserID:     "user-a",
			Role:       role,
			Content:    "message",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("count", func(t *testing.T) {
		count, err := store.CountChatMessages(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("newest first pages", func(t *testing.T) {
		msgs, err := store.ListChatMessagesBefore(ctx, "room-1", nil, 2)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "e", msgs[0].ID)
		assert.Equal(t, "d", msgs[1].ID)
	})

	t.Run("cursor bounds the page", func(t *testing.T) {
		cursor := base.Add(2 * time.Minute)
		msgs, err := store.ListChatMessagesBefore(ctx, "room-1", &cursor, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "b", msgs[0].ID)
		assert.Equal(t, "a", msgs[1].ID)
	})

	t.Run("get by id", func(t *testing.T) {
		msg, err := store.GetChatMessage(ctx, "c")
		require.NoError(t, err)
		assert.Equal(t, types.RoleUser, msg.Role)
		assert.True(t, msg.CreatedAt.Equal(base.Add(2*time.Minute)))

		_, err = store.GetChatMessage(ctx, "zz")
		assert.True(t, apperrors.IsNotFound(err))
	})
}
