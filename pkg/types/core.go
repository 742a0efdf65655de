// Package types contains the core domain model shared across the transcript
// memory pipeline: day buckets, hourly segments, chunks, vector metadata and
// the structured views returned by the retrieval engine.
package types

import (
	"errors"
	"strings"
	"time"
)

// DefaultUserID is the well-known user id for single-user deployments.
const DefaultUserID = "000000000000000000000000"

// EmbeddingDimension is the fixed dimensionality of all vectors written to
// the index (Gemini text-embedding-004). The fallback embedder produces the
// same dimension so the index schema never varies.
const EmbeddingDimension = 768

// MaxChunkTextLength bounds the raw text accepted by the ingestion pipeline.
const MaxChunkTextLength = 16000

// Sentiment classifies a chunk's overall tone.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is one of the three known sentiment values.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// DayBucket is a rolling 24-hour window grouping one user's chunks.
// Buckets are numbered sequentially per user starting at 1 and are named
// "Day 1", "Day 2", and so on.
type DayBucket struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	DayNumber int       `json:"day_number"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether ts falls inside the bucket's [start, end) window.
func (b *DayBucket) Contains(ts time.Time) bool {
	return !ts.Before(b.StartTime) && ts.Before(b.EndTime)
}

// SentimentCounts holds per-sentiment chunk tallies for a segment.
type SentimentCounts struct {
	Positive int64 `json:"positive"`
	Neutral  int64 `json:"neutral"`
	Negative int64 `json:"negative"`
}

// Total returns the sum of the three counters.
func (c SentimentCounts) Total() int64 {
	return c.Positive + c.Neutral + c.Negative
}

// SegmentStats is the running aggregate maintained per hourly segment.
// All fields accumulate monotonically via commutative increments.
type SegmentStats struct {
	WordCount         int64            `json:"word_count"`
	Sentiment         SentimentCounts  `json:"sentiment"`
	TopicDistribution map[string]int64 `json:"topic_distribution"`
}

// Segment is an hour-granularity sub-bucket within a day bucket.
type Segment struct {
	ID          string       `json:"id"`
	DayBucketID string       `json:"day_bucket_id"`
	Hour        int          `json:"hour"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	Stats       SegmentStats `json:"stats"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Chunk is one ingested unit of transcribed text. EmbeddingID equals ID so
// the chunk's vector-index entry is always addressable by the chunk's own
// primary id.
type Chunk struct {
	ID          string    `json:"id"`
	DayBucketID string    `json:"day_bucket_id"`
	SegmentID   string    `json:"segment_id"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	ChunkNumber *int      `json:"chunk_number,omitempty"`
	Sentiment   Sentiment `json:"sentiment"`
	Topics      []string  `json:"topics"`
	EmbeddingID string    `json:"embedding_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the invariant-critical chunk fields.
func (c *Chunk) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("chunk text cannot be empty")
	}
	if c.Timestamp.IsZero() {
		return errors.New("chunk timestamp cannot be zero")
	}
	if !c.Sentiment.Valid() {
		return errors.New("chunk sentiment is invalid")
	}
	if c.EmbeddingID != c.ID {
		return errors.New("chunk embedding id must equal chunk id")
	}
	return nil
}

// VectorMetadata is the strongly-typed payload attached to every vector
// index entry. List-valued fields stay list-typed here; any flattening the
// index requires happens inside the index adapter.
type VectorMetadata struct {
	UserID      string    `json:"user_id"`
	DayBucketID string    `json:"day_bucket_id"`
	BucketName  string    `json:"bucket_name"`
	DayNumber   int       `json:"day_number"`
	SegmentID   string    `json:"segment_id"`
	Date        string    `json:"date"` // YYYY-MM-DD, UTC
	Hour        int       `json:"hour"`
	Sentiment   Sentiment `json:"sentiment"`
	Topics      []string  `json:"topics"`
	Timestamp   time.Time `json:"timestamp"`
}

// VectorEntry pairs an embedding with its source text and metadata.
type VectorEntry struct {
	ID       string         `json:"id"`
	Vector   []float64      `json:"vector"`
	Text     string         `json:"text"`
	Metadata VectorMetadata `json:"metadata"`
}

// SearchResult is one nearest-neighbor hit, scored by cosine similarity.
type SearchResult struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
	Metadata VectorMetadata `json:"metadata"`
}

// SearchResults carries the ranked hits for one query.
type SearchResults struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// ChunkView is the trimmed chunk representation used in context views.
type ChunkView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Sentiment Sentiment `json:"sentiment"`
	Topics    []string  `json:"topics"`
}

// SegmentView is one hour of a daily context.
type SegmentView struct {
	Hour   int          `json:"hour"`
	Chunks []ChunkView  `json:"chunks"`
	Stats  SegmentStats `json:"stats"`
}

// DailyContext is the structured view of a full day, segments ordered by
// hour ascending and chunks by timestamp ascending.
type DailyContext struct {
	BucketName  string        `json:"bucket_name"`
	DayNumber   int           `json:"day_number"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Segments    []SegmentView `json:"segments"`
	TotalChunks int           `json:"total_chunks"`
	TotalWords  int64         `json:"total_words"`
}

// HourlyContext is the structured view of a single hour segment.
type HourlyContext struct {
	BucketName string       `json:"bucket_name"`
	DayNumber  int          `json:"day_number"`
	Hour       int          `json:"hour"`
	Chunks     []ChunkView  `json:"chunks"`
	Stats      SegmentStats `json:"stats"`
}

// DailySummary is the LLM-generated (or templated fallback) digest of a day.
type DailySummary struct {
	BucketName string    `json:"bucket_name"`
	DayNumber  int       `json:"day_number"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Summary    string    `json:"summary"`
	Highlights []string  `json:"highlights"`
	TopTopics  []string  `json:"top_topics"`
	Sentiment  Sentiment `json:"sentiment"`
	WordCount  int64     `json:"word_count"`
}

// WeeklySummary aggregates daily summaries over an inclusive day range.
type WeeklySummary struct {
	StartDay       int            `json:"start_day"`
	EndDay         int            `json:"end_day"`
	Summary        string         `json:"summary"`
	DailySummaries []DailySummary `json:"daily_summaries"`
	Trends         []string       `json:"trends"`
	TopTopics      []string       `json:"top_topics"`
}

// MessageRole identifies the author side of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is one entry in a day-chatroom's append-only message log,
// ordered by CreatedAt.
type ChatMessage struct {
	ID         string      `json:"id"`
	ChatroomID string      `json:"chatroom_id"`
	UserID     string      `json:"user_id,omitempty"`
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	CreatedAt  time.Time   `json:"created_at"`
}

// MessagePage is a cursor-paginated slice of a chatroom's log, in
// chronological order.
type MessagePage struct {
	Messages   []ChatMessage `json:"messages"`
	HasMore    bool          `json:"has_more"`
	NextCursor string        `json:"next_cursor,omitempty"`
	TotalCount int64         `json:"total_count"`
}

// CountWords returns the whitespace-delimited token count of text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// DateKey formats ts as the UTC calendar date used in vector metadata.
func DateKey(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

// SegmentHour returns the hour-bucket key for ts: the timestamp's UTC
// calendar hour. Note this keys by wall-clock hour, not by offset from the
// enclosing bucket's start, so segments of a bucket that does not begin at
// midnight do not nest exactly inside its 24h window.
func SegmentHour(ts time.Time) int {
	return ts.UTC().Hour()
}
