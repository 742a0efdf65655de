package storage

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// MemoryMetaStore is an in-memory MetaStore used by tests and by the server
// when no database path is configured.
type MemoryMetaStore struct {
	mu       sync.RWMutex
	buckets  map[string]*types.DayBucket
	segments map[string]*types.Segment
	chunks   map[string]*types.Chunk
	messages map[string]*types.ChatMessage
}

// NewMemoryMetaStore creates an empty in-memory meta store.
func NewMemoryMetaStore() *MemoryMetaStore {
	return &MemoryMetaStore{
		buckets:  make(map[string]*types.DayBucket),
		segments: make(map[string]*types.Segment),
		chunks:   make(map[string]*types.Chunk),
		messages: make(map[string]*types.ChatMessage),
	}
}

func (m *MemoryMetaStore) Close() error                        { return nil }
func (m *MemoryMetaStore) HealthCheck(_ context.Context) error { return nil }

func copyBucket(b *types.DayBucket) *types.DayBucket {
	c := *b
	return &c
}

func copySegment(s *types.Segment) *types.Segment {
	c := *s
	c.Stats.TopicDistribution = make(map[string]int64, len(s.Stats.TopicDistribution))
	for topic, count := range s.Stats.TopicDistribution {
		c.Stats.TopicDistribution[topic] = count
	}
	return &c
}

func copyChunk(ch *types.Chunk) *types.Chunk {
	c := *ch
	c.Topics = append([]string(nil), ch.Topics...)
	if ch.ChunkNumber != nil {
		n := *ch.ChunkNumber
		c.ChunkNumber = &n
	}
	return &c
}

func (m *MemoryMetaStore) CreateDayBucket(_ context.Context, bucket *types.DayBucket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.buckets {
		if existing.UserID == bucket.UserID && existing.DayNumber == bucket.DayNumber {
			return apperrors.New(apperrors.ErrorCodeConcurrencyConflict, "day bucket already exists for this day number")
		}
	}
	m.buckets[bucket.ID] = copyBucket(bucket)
	return nil
}

func (m *MemoryMetaStore) GetDayBucketByTime(_ context.Context, userID string, ts time.Time) (*types.DayBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.buckets {
		if b.UserID == userID && b.Contains(ts) {
			return copyBucket(b), nil
		}
	}
	return nil, apperrors.NewNotFound("day bucket")
}

func (m *MemoryMetaStore) GetDayBucketByNumber(_ context.Context, userID string, dayNumber int) (*types.DayBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.buckets {
		if b.UserID == userID && b.DayNumber == dayNumber {
			return copyBucket(b), nil
		}
	}
	return nil, apperrors.NewNotFound("day bucket")
}

func (m *MemoryMetaStore) GetLatestDayBucket(_ context.Context, userID string) (*types.DayBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *types.DayBucket
	for _, b := range m.buckets {
		if b.UserID != userID {
			continue
		}
		if latest == nil || b.DayNumber > latest.DayNumber {
			latest = b
		}
	}
	if latest == nil {
		return nil, apperrors.NewNotFound("day bucket")
	}
	return copyBucket(latest), nil
}

func (m *MemoryMetaStore) userBuckets(userID string) []types.DayBucket {
	var buckets []types.DayBucket
	for _, b := range m.buckets {
		if b.UserID == userID {
			buckets = append(buckets, *b)
		}
	}
	return buckets
}

func (m *MemoryMetaStore) ListDayBuckets(_ context.Context, userID string, limit int) ([]types.DayBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	buckets := m.userBuckets(userID)
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].DayNumber > buckets[j].DayNumber })
	if len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets, nil
}

func (m *MemoryMetaStore) ListDayBucketsInRange(_ context.Context, userID string, startDay, endDay int) ([]types.DayBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var buckets []types.DayBucket
	for _, b := range m.userBuckets(userID) {
		if b.DayNumber >= startDay && b.DayNumber <= endDay {
			buckets = append(buckets, b)
		}
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].DayNumber < buckets[j].DayNumber })
	return buckets, nil
}

func (m *MemoryMetaStore) TouchDayBucket(_ context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buckets[id]; ok {
		b.UpdatedAt = now
	}
	return nil
}

func (m *MemoryMetaStore) CreateSegment(_ context.Context, segment *types.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.segments {
		if existing.DayBucketID == segment.DayBucketID && existing.Hour == segment.Hour {
			return apperrors.New(apperrors.ErrorCodeConcurrencyConflict, "segment already exists for this hour")
		}
	}
	stored := copySegment(segment)
	if stored.Stats.TopicDistribution == nil {
		stored.Stats.TopicDistribution = make(map[string]int64)
	}
	m.segments[segment.ID] = stored
	return nil
}

func (m *MemoryMetaStore) GetSegment(_ context.Context, dayBucketID string, hour int) (*types.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.segments {
		if s.DayBucketID == dayBucketID && s.Hour == hour {
			return copySegment(s), nil
		}
	}
	return nil, apperrors.NewNotFound("segment")
}

func (m *MemoryMetaStore) ListSegments(_ context.Context, dayBucketID string) ([]types.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var segments []types.Segment
	for _, s := range m.segments {
		if s.DayBucketID == dayBucketID {
			segments = append(segments, *copySegment(s))
		}
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Hour < segments[j].Hour })
	return segments, nil
}

func (m *MemoryMetaStore) IncrementSegmentStats(_ context.Context, segmentID string, delta StatsDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seg, ok := m.segments[segmentID]
	if !ok {
		return apperrors.NewNotFound("segment")
	}

	seg.Stats.WordCount += delta.WordCount
	switch delta.Sentiment {
	case types.SentimentPositive:
		seg.Stats.Sentiment.Positive++
	case types.SentimentNegative:
		seg.Stats.Sentiment.Negative++
	default:
		seg.Stats.Sentiment.Neutral++
	}
	for _, topic := range delta.Topics {
		seg.Stats.TopicDistribution[topic]++
	}
	if delta.Timestamp.After(seg.EndTime) {
		seg.EndTime = delta.Timestamp
	}
	seg.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryMetaStore) CreateChunk(_ context.Context, chunk *types.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[chunk.ID] = copyChunk(chunk)
	return nil
}

func (m *MemoryMetaStore) GetChunk(_ context.Context, id string) (*types.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.chunks[id]; ok {
		return copyChunk(c), nil
	}
	return nil, apperrors.NewNotFound("chunk")
}

func sortChunksByTime(chunks []types.Chunk) {
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Timestamp.Before(chunks[j].Timestamp) })
}

func (m *MemoryMetaStore) ListChunksBySegment(_ context.Context, segmentID string) ([]types.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var chunks []types.Chunk
	for _, c := range m.chunks {
		if c.SegmentID == segmentID {
			chunks = append(chunks, *copyChunk(c))
		}
	}
	sortChunksByTime(chunks)
	return chunks, nil
}

func (m *MemoryMetaStore) ListChunksByBucket(_ context.Context, dayBucketID string) ([]types.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var chunks []types.Chunk
	for _, c := range m.chunks {
		if c.DayBucketID == dayBucketID {
			chunks = append(chunks, *copyChunk(c))
		}
	}
	sortChunksByTime(chunks)
	return chunks, nil
}

func (m *MemoryMetaStore) ListChunksByTimeRange(_ context.Context, userID string, start, end time.Time) ([]types.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var chunks []types.Chunk
	for _, c := range m.chunks {
		bucket, ok := m.buckets[c.DayBucketID]
		if !ok || bucket.UserID != userID {
			continue
		}
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		chunks = append(chunks, *copyChunk(c))
	}
	sortChunksByTime(chunks)
	return chunks, nil
}

func (m *MemoryMetaStore) CreateChatMessage(_ context.Context, msg *types.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *msg
	m.messages[msg.ID] = &stored
	return nil
}

func (m *MemoryMetaStore) GetChatMessage(_ context.Context, id string) (*types.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if msg, ok := m.messages[id]; ok {
		copied := *msg
		return &copied, nil
	}
	return nil, apperrors.NewNotFound("chat message")
}

func (m *MemoryMetaStore) ListChatMessagesBefore(_ context.Context, chatroomID string, before *time.Time, limit int) ([]types.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var messages []types.ChatMessage
	for _, msg := range m.messages {
		if msg.ChatroomID != chatroomID {
			continue
		}
		if before != nil && !msg.CreatedAt.Before(*before) {
			continue
		}
		messages = append(messages, *msg)
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].CreatedAt.After(messages[j].CreatedAt) })
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (m *MemoryMetaStore) CountChatMessages(_ context.Context, chatroomID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, msg := range m.messages {
		if msg.ChatroomID == chatroomID {
			count++
		}
	}
	return count, nil
}

// MemoryVectorStore is an in-memory VectorStore with in-process cosine
// similarity. It mirrors the Qdrant store's behavior for tests and for
// running without a vector database.
type MemoryVectorStore struct {
	mu      sync.RWMutex
	entries map[string]*types.VectorEntry
}

// NewMemoryVectorStore creates an empty in-memory vector store.
func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{entries: make(map[string]*types.VectorEntry)}
}

func (m *MemoryVectorStore) Initialize(_ context.Context) error  { return nil }
func (m *MemoryVectorStore) HealthCheck(_ context.Context) error { return nil }
func (m *MemoryVectorStore) Close() error                        { return nil }

func copyEntry(e *types.VectorEntry) *types.VectorEntry {
	c := *e
	c.Vector = append([]float64(nil), e.Vector...)
	c.Metadata.Topics = append([]string(nil), e.Metadata.Topics...)
	return &c
}

func (m *MemoryVectorStore) Upsert(_ context.Context, entry *types.VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (m *MemoryVectorStore) GetByID(_ context.Context, id string) (*types.VectorEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return copyEntry(e), nil
	}
	return nil, apperrors.NewNotFound("vector entry")
}

func (m *MemoryVectorStore) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *MemoryVectorStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries)), nil
}

func (m *MemoryVectorStore) Search(_ context.Context, vector []float64, filter VectorFilter, limit int) ([]types.SearchResult, error) {
	if len(vector) == 0 {
		return nil, apperrors.New(apperrors.ErrorCodeValidation, "search vector cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]types.SearchResult, 0, len(m.entries))
	for _, e := range m.entries {
		if filter.UserID != "" && e.Metadata.UserID != filter.UserID {
			continue
		}
		if filter.Date != "" && e.Metadata.Date != filter.Date {
			continue
		}
		results = append(results, types.SearchResult{
			ID:       e.ID,
			Text:     e.Text,
			Score:    cosineSimilarity(vector, e.Vector),
			Metadata: e.Metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
