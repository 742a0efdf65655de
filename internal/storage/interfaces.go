// Package storage provides the durable document store and vector index
// abstractions behind the ingestion pipeline: a SQLite-backed meta store
// (source of truth) and a Qdrant-backed vector store (best-effort replica
// for semantic search), plus in-memory implementations for tests.
package storage

import (
	"context"
	"time"

	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// StatsDelta is one chunk's contribution to a segment's running aggregate.
// All fields are commutative increments so concurrent ingestion into the
// same segment converges regardless of arrival order.
type StatsDelta struct {
	WordCount int64
	Sentiment types.Sentiment
	Topics    []string
	Timestamp time.Time
}

// MetaStore is the durable document store. Create operations return a
// CONCURRENCY_CONFLICT error when a uniqueness constraint is violated;
// lookups return a NOT_FOUND error when no row matches.
type MetaStore interface {
	// Day buckets.
	CreateDayBucket(ctx context.Context, bucket *types.DayBucket) error
	GetDayBucketByTime(ctx context.Context, userID string, ts time.Time) (*types.DayBucket, error)
	GetDayBucketByNumber(ctx context.Context, userID string, dayNumber int) (*types.DayBucket, error)
	GetLatestDayBucket(ctx context.Context, userID string) (*types.DayBucket, error)
	ListDayBuckets(ctx context.Context, userID string, limit int) ([]types.DayBucket, error)
	ListDayBucketsInRange(ctx context.Context, userID string, startDay, endDay int) ([]types.DayBucket, error)
	TouchDayBucket(ctx context.Context, id string, now time.Time) error

	// Segments.
	CreateSegment(ctx context.Context, segment *types.Segment) error
	GetSegment(ctx context.Context, dayBucketID string, hour int) (*types.Segment, error)
	ListSegments(ctx context.Context, dayBucketID string) ([]types.Segment, error)
	IncrementSegmentStats(ctx context.Context, segmentID string, delta StatsDelta) error

	// Chunks.
	CreateChunk(ctx context.Context, chunk *types.Chunk) error
	GetChunk(ctx context.Context, id string) (*types.Chunk, error)
	ListChunksBySegment(ctx context.Context, segmentID string) ([]types.Chunk, error)
	ListChunksByBucket(ctx context.Context, dayBucketID string) ([]types.Chunk, error)
	ListChunksByTimeRange(ctx context.Context, userID string, start, end time.Time) ([]types.Chunk, error)

	// Chat messages.
	CreateChatMessage(ctx context.Context, msg *types.ChatMessage) error
	GetChatMessage(ctx context.Context, id string) (*types.ChatMessage, error)
	ListChatMessagesBefore(ctx context.Context, chatroomID string, before *time.Time, limit int) ([]types.ChatMessage, error)
	CountChatMessages(ctx context.Context, chatroomID string) (int64, error)

	HealthCheck(ctx context.Context) error
	Close() error
}

// VectorFilter restricts a nearest-neighbor query by scalar metadata.
type VectorFilter struct {
	UserID string
	Date   string // YYYY-MM-DD; empty means all dates
}

// VectorStore is the external vector index. Cosine similarity; entry ids
// equal chunk ids.
type VectorStore interface {
	Initialize(ctx context.Context) error
	Upsert(ctx context.Context, entry *types.VectorEntry) error
	Search(ctx context.Context, vector []float64, filter VectorFilter, limit int) ([]types.SearchResult, error)
	GetByID(ctx context.Context, id string) (*types.VectorEntry, error)
	DeleteByID(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	HealthCheck(ctx context.Context) error
	Close() error
}
