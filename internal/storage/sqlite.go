package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS day_buckets (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	day_number  INTEGER NOT NULL CHECK (day_number >= 1),
	start_time  INTEGER NOT NULL,
	end_time    INTEGER NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	UNIQUE (user_id, day_number)
);
CREATE INDEX IF NOT EXISTS idx_day_buckets_window ON day_buckets (user_id, start_time, end_time);

CREATE TABLE IF NOT EXISTS segments (
	id             TEXT PRIMARY KEY,
	day_bucket_id  TEXT NOT NULL REFERENCES day_buckets (id),
	hour           INTEGER NOT NULL CHECK (hour BETWEEN 0 AND 23),
	start_time     INTEGER NOT NULL,
	end_time       INTEGER NOT NULL,
	word_count     INTEGER NOT NULL DEFAULT 0,
	positive_count INTEGER NOT NULL DEFAULT 0,
	neutral_count  INTEGER NOT NULL DEFAULT 0,
	negative_count INTEGER NOT NULL DEFAULT 0,
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL,
	UNIQUE (day_bucket_id, hour)
);

CREATE TABLE IF NOT EXISTS segment_topics (
	segment_id  TEXT NOT NULL REFERENCES segments (id),
	topic       TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (segment_id, topic)
);

CREATE TABLE IF NOT EXISTS chunks (
	id             TEXT PRIMARY KEY,
	day_bucket_id  TEXT NOT NULL REFERENCES day_buckets (id),
	segment_id     TEXT NOT NULL REFERENCES segments (id),
	text           TEXT NOT NULL,
	timestamp      INTEGER NOT NULL,
	chunk_number   INTEGER,
	sentiment      TEXT NOT NULL,
	topics         TEXT NOT NULL,
	embedding_id   TEXT NOT NULL,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_segment_ts ON chunks (segment_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_chunks_bucket_ts ON chunks (day_bucket_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_chunks_ts ON chunks (timestamp);

CREATE TABLE IF NOT EXISTS chat_messages (
	id           TEXT PRIMARY KEY,
	chatroom_id  TEXT NOT NULL,
	user_id      TEXT,
	role         TEXT NOT NULL,
	content      TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages (chatroom_id, created_at);
`

// SQLiteMetaStore implements MetaStore on SQLite.
type SQLiteMetaStore struct {
	db *sql.DB
}

// NewSQLiteMetaStore opens (and creates, if needed) the database at path and
// applies the schema. Use ":memory:" for an ephemeral store.
func NewSQLiteMetaStore(path string) (*SQLiteMetaStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise open its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteMetaStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteMetaStore) Close() error {
	return s.db.Close()
}

// HealthCheck pings the database.
func (s *SQLiteMetaStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mapWriteErr converts sqlite constraint violations into the conflict error
// the bucket resolver retries on.
func mapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return apperrors.Wrap(apperrors.ErrorCodeConcurrencyConflict, op+" hit a uniqueness conflict", err)
	}
	return apperrors.Wrap(apperrors.ErrorCodeStore, op+" failed", err)
}

// CreateDayBucket inserts a bucket; (user_id, day_number) is unique.
func (s *SQLiteMetaStore) CreateDayBucket(ctx context.Context, bucket *types.DayBucket) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO day_buckets (id, user_id, name, day_number, start_time, end_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bucket.ID, bucket.UserID, bucket.Name, bucket.DayNumber,
		bucket.StartTime.UnixNano(), bucket.EndTime.UnixNano(),
		bucket.CreatedAt.UnixNano(), bucket.UpdatedAt.UnixNano(),
	)
	return mapWriteErr("create day bucket", err)
}

const dayBucketColumns = "id, user_id, name, day_number, start_time, end_time, created_at, updated_at"

func scanDayBucket(row interface{ Scan(...interface{}) error }) (*types.DayBucket, error) {
	var b types.DayBucket
	var start, end, created, updated int64
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.DayNumber, &start, &end, &created, &updated); err != nil {
		return nil, err
	}
	b.StartTime = time.Unix(0, start).UTC()
	b.EndTime = time.Unix(0, end).UTC()
	b.CreatedAt = time.Unix(0, created).UTC()
	b.UpdatedAt = time.Unix(0, updated).UTC()
	return &b, nil
}

func (s *SQLiteMetaStore) getDayBucket(ctx context.Context, query string, args ...interface{}) (*types.DayBucket, error) {
	bucket, err := scanDayBucket(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("day bucket")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "day bucket lookup failed", err)
	}
	return bucket, nil
}

// GetDayBucketByTime finds the bucket whose [start, end) window contains ts.
func (s *SQLiteMetaStore) GetDayBucketByTime(ctx context.Context, userID string, ts time.Time) (*types.DayBucket, error) {
	return s.getDayBucket(ctx, `
		SELECT `+dayBucketColumns+` FROM day_buckets
		WHERE user_id = ? AND start_time <= ? AND end_time > ?
		LIMIT 1`,
		userID, ts.UnixNano(), ts.UnixNano(),
	)
}

// GetDayBucketByNumber finds the bucket with the given day number.
func (s *SQLiteMetaStore) GetDayBucketByNumber(ctx context.Context, userID string, dayNumber int) (*types.DayBucket, error) {
	return s.getDayBucket(ctx, `
		SELECT `+dayBucketColumns+` FROM day_buckets
		WHERE user_id = ? AND day_number = ?`,
		userID, dayNumber,
	)
}

// GetLatestDayBucket finds the bucket with the highest day number.
func (s *SQLiteMetaStore) GetLatestDayBucket(ctx context.Context, userID string) (*types.DayBucket, error) {
	return s.getDayBucket(ctx, `
		SELECT `+dayBucketColumns+` FROM day_buckets
		WHERE user_id = ?
		ORDER BY day_number DESC
		LIMIT 1`,
		userID,
	)
}

// ListDayBuckets lists buckets by descending day number.
func (s *SQLiteMetaStore) ListDayBuckets(ctx context.Context, userID string, limit int) ([]types.DayBucket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dayBucketColumns+` FROM day_buckets
		WHERE user_id = ?
		ORDER BY day_number DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "day bucket listing failed", err)
	}
	defer rows.Close()
	return collectDayBuckets(rows)
}

// ListDayBucketsInRange lists buckets with day numbers in [startDay, endDay],
// ascending.
func (s *SQLiteMetaStore) ListDayBucketsInRange(ctx context.Context, userID string, startDay, endDay int) ([]types.DayBucket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dayBucketColumns+` FROM day_buckets
		WHERE user_id = ? AND day_number BETWEEN ? AND ?
		ORDER BY day_number ASC`,
		userID, startDay, endDay,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "day bucket range listing failed", err)
	}
	defer rows.Close()
	return collectDayBuckets(rows)
}

func collectDayBuckets(rows *sql.Rows) ([]types.DayBucket, error) {
	var buckets []types.DayBucket
	for rows.Next() {
		bucket, err := scanDayBucket(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "day bucket scan failed", err)
		}
		buckets = append(buckets, *bucket)
	}
	return buckets, rows.Err()
}

// TouchDayBucket updates a bucket's updated_at bookkeeping field.
func (s *SQLiteMetaStore) TouchDayBucket(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE day_buckets SET updated_at = ? WHERE id = ?`,
		now.UnixNano(), id,
	)
	return mapWriteErr("touch day bucket", err)
}

// CreateSegment inserts a segment; (day_bucket_id, hour) is unique.
func (s *SQLiteMetaStore) CreateSegment(ctx context.Context, segment *types.Segment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO segments (id, day_bucket_id, hour, start_time, end_time,
			word_count, positive_count, neutral_count, negative_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		segment.ID, segment.DayBucketID, segment.Hour,
		segment.StartTime.UnixNano(), segment.EndTime.UnixNano(),
		segment.Stats.WordCount, segment.Stats.Sentiment.Positive,
		segment.Stats.Sentiment.Neutral, segment.Stats.Sentiment.Negative,
		segment.CreatedAt.UnixNano(), segment.UpdatedAt.UnixNano(),
	)
	return mapWriteErr("create segment", err)
}

const segmentColumns = `id, day_bucket_id, hour, start_time, end_time,
	word_count, positive_count, neutral_count, negative_count, created_at, updated_at`

func scanSegment(row interface{ Scan(...interface{}) error }) (*types.Segment, error) {
	var seg types.Segment
	var start, end, created, updated int64
	if err := row.Scan(&seg.ID, &seg.DayBucketID, &seg.Hour, &start, &end,
		&seg.Stats.WordCount, &seg.Stats.Sentiment.Positive,
		&seg.Stats.Sentiment.Neutral, &seg.Stats.Sentiment.Negative,
		&created, &updated); err != nil {
		return nil, err
	}
	seg.StartTime = time.Unix(0, start).UTC()
	seg.EndTime = time.Unix(0, end).UTC()
	seg.CreatedAt = time.Unix(0, created).UTC()
	seg.UpdatedAt = time.Unix(0, updated).UTC()
	seg.Stats.TopicDistribution = make(map[string]int64)
	return &seg, nil
}

func (s *SQLiteMetaStore) loadSegmentTopics(ctx context.Context, segments map[string]*types.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	ids := make([]interface{}, 0, len(segments))
	placeholders := make([]string, 0, len(segments))
	for id := range segments {
		ids = append(ids, id)
		placeholders = append(placeholders, "?")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT segment_id, topic, count FROM segment_topics WHERE segment_id IN (`+strings.Join(placeholders, ",")+`)`,
		ids...,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var segmentID, topic string
		var count int64
		if err := rows.Scan(&segmentID, &topic, &count); err != nil {
			return err
		}
		if seg, ok := segments[segmentID]; ok {
			seg.Stats.TopicDistribution[topic] = count
		}
	}
	return rows.Err()
}

// GetSegment finds the segment for (dayBucketID, hour) with its topic
// distribution populated.
func (s *SQLiteMetaStore) GetSegment(ctx context.Context, dayBucketID string, hour int) (*types.Segment, error) {
	seg, err := scanSegment(s.db.QueryRowContext(ctx, `
		SELECT `+segmentColumns+` FROM segments
		WHERE day_bucket_id = ? AND hour = ?`,
		dayBucketID, hour,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("segment")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "segment lookup failed", err)
	}
	if err := s.loadSegmentTopics(ctx, map[string]*types.Segment{seg.ID: seg}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "segment topics lookup failed", err)
	}
	return seg, nil
}

// ListSegments lists a bucket's segments ordered by hour ascending.
func (s *SQLiteMetaStore) ListSegments(ctx context.Context, dayBucketID string) ([]types.Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+segmentColumns+` FROM segments
		WHERE day_bucket_id = ?
		ORDER BY hour ASC`,
		dayBucketID,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "segment listing failed", err)
	}
	defer rows.Close()

	var ordered []*types.Segment
	byID := make(map[string]*types.Segment)
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "segment scan failed", err)
		}
		ordered = append(ordered, seg)
		byID[seg.ID] = seg
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "segment listing failed", err)
	}
	if err := s.loadSegmentTopics(ctx, byID); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "segment topics lookup failed", err)
	}

	segments := make([]types.Segment, len(ordered))
	for i, seg := range ordered {
		segments[i] = *seg
	}
	return segments, nil
}

// IncrementSegmentStats applies one chunk's contribution as relative
// increments in a single transaction, never read-modify-write, so
// concurrent ingestion into the same hour cannot lose updates.
func (s *SQLiteMetaStore) IncrementSegmentStats(ctx context.Context, segmentID string, delta StatsDelta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeStore, "stats update failed", err)
	}
	defer func() { _ = tx.Rollback() }()

	var positive, neutral, negative int64
	switch delta.Sentiment {
	case types.SentimentPositive:
		positive = 1
	case types.SentimentNegative:
		negative = 1
	default:
		neutral = 1
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE segments SET
			word_count = word_count + ?,
			positive_count = positive_count + ?,
			neutral_count = neutral_count + ?,
			negative_count = negative_count + ?,
			end_time = MAX(end_time, ?),
			updated_at = ?
		WHERE id = ?`,
		delta.WordCount, positive, neutral, negative,
		delta.Timestamp.UnixNano(), time.Now().UTC().UnixNano(), segmentID,
	)
	if err != nil {
		return mapWriteErr("increment segment stats", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFound("segment")
	}

	for _, topic := range delta.Topics {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO segment_topics (segment_id, topic, count) VALUES (?, ?, 1)
			ON CONFLICT (segment_id, topic) DO UPDATE SET count = count + 1`,
			segmentID, topic,
		); err != nil {
			return mapWriteErr("increment topic count", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeStore, "stats update commit failed", err)
	}
	return nil
}

// CreateChunk inserts a chunk record.
func (s *SQLiteMetaStore) CreateChunk(ctx context.Context, chunk *types.Chunk) error {
	topics, err := json.Marshal(chunk.Topics)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeStore, "topic encoding failed", err)
	}

	var chunkNumber sql.NullInt64
	if chunk.ChunkNumber != nil {
		chunkNumber = sql.NullInt64{Int64: int64(*chunk.ChunkNumber), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, day_bucket_id, segment_id, text, timestamp,
			chunk_number, sentiment, topics, embedding_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.DayBucketID, chunk.SegmentID, chunk.Text,
		chunk.Timestamp.UnixNano(), chunkNumber, string(chunk.Sentiment),
		string(topics), chunk.EmbeddingID, chunk.CreatedAt.UnixNano(),
	)
	return mapWriteErr("create chunk", err)
}

const chunkColumns = `id, day_bucket_id, segment_id, text, timestamp,
	chunk_number, sentiment, topics, embedding_id, created_at`

func scanChunk(row interface{ Scan(...interface{}) error }) (*types.Chunk, error) {
	var c types.Chunk
	var ts, created int64
	var chunkNumber sql.NullInt64
	var sentiment, topics string
	if err := row.Scan(&c.ID, &c.DayBucketID, &c.SegmentID, &c.Text, &ts,
		&chunkNumber, &sentiment, &topics, &c.EmbeddingID, &created); err != nil {
		return nil, err
	}
	c.Timestamp = time.Unix(0, ts).UTC()
	c.CreatedAt = time.Unix(0, created).UTC()
	c.Sentiment = types.Sentiment(sentiment)
	if chunkNumber.Valid {
		n := int(chunkNumber.Int64)
		c.ChunkNumber = &n
	}
	if err := json.Unmarshal([]byte(topics), &c.Topics); err != nil {
		c.Topics = nil
	}
	return &c, nil
}

// GetChunk loads one chunk by id.
func (s *SQLiteMetaStore) GetChunk(ctx context.Context, id string) (*types.Chunk, error) {
	chunk, err := scanChunk(s.db.QueryRowContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("chunk")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "chunk lookup failed", err)
	}
	return chunk, nil
}

func (s *SQLiteMetaStore) listChunks(ctx context.Context, query string, args ...interface{}) ([]types.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "chunk listing failed", err)
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "chunk scan failed", err)
		}
		chunks = append(chunks, *chunk)
	}
	return chunks, rows.Err()
}

// ListChunksBySegment lists a segment's chunks by timestamp ascending.
func (s *SQLiteMetaStore) ListChunksBySegment(ctx context.Context, segmentID string) ([]types.Chunk, error) {
	return s.listChunks(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE segment_id = ? ORDER BY timestamp ASC`,
		segmentID,
	)
}

// ListChunksByBucket lists a bucket's chunks by timestamp ascending.
func (s *SQLiteMetaStore) ListChunksByBucket(ctx context.Context, dayBucketID string) ([]types.Chunk, error) {
	return s.listChunks(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE day_bucket_id = ? ORDER BY timestamp ASC`,
		dayBucketID,
	)
}

// ListChunksByTimeRange lists a user's chunks with timestamps in
// [start, end], ascending.
func (s *SQLiteMetaStore) ListChunksByTimeRange(ctx context.Context, userID string, start, end time.Time) ([]types.Chunk, error) {
	return s.listChunks(ctx, `
		SELECT c.id, c.day_bucket_id, c.segment_id, c.text, c.timestamp,
			c.chunk_number, c.sentiment, c.topics, c.embedding_id, c.created_at
		FROM chunks c
		JOIN day_buckets b ON c.day_bucket_id = b.id
		WHERE b.user_id = ? AND c.timestamp BETWEEN ? AND ?
		ORDER BY c.timestamp ASC`,
		userID, start.UnixNano(), end.UnixNano(),
	)
}

// CreateChatMessage appends one message to a chatroom's log.
func (s *SQLiteMetaStore) CreateChatMessage(ctx context.Context, msg *types.ChatMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, chatroom_id, user_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatroomID, msg.UserID, string(msg.Role), msg.Content,
		msg.CreatedAt.UnixNano(),
	)
	return mapWriteErr("create chat message", err)
}

func scanChatMessage(row interface{ Scan(...interface{}) error }) (*types.ChatMessage, error) {
	var m types.ChatMessage
	var created int64
	var role string
	var userID sql.NullString
	if err := row.Scan(&m.ID, &m.ChatroomID, &userID, &role, &m.Content, &created); err != nil {
		return nil, err
	}
	m.UserID = userID.String
	m.Role = types.MessageRole(role)
	m.CreatedAt = time.Unix(0, created).UTC()
	return &m, nil
}

// GetChatMessage loads one message by id (used to resolve pagination
// cursors).
func (s *SQLiteMetaStore) GetChatMessage(ctx context.Context, id string) (*types.ChatMessage, error) {
	msg, err := scanChatMessage(s.db.QueryRowContext(ctx,
		`SELECT id, chatroom_id, user_id, role, content, created_at FROM chat_messages WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("chat message")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "chat message lookup failed", err)
	}
	return msg, nil
}

// ListChatMessagesBefore lists up to limit messages older than before
// (all messages when before is nil), newest first.
func (s *SQLiteMetaStore) ListChatMessagesBefore(ctx context.Context, chatroomID string, before *time.Time, limit int) ([]types.ChatMessage, error) {
	query := `SELECT id, chatroom_id, user_id, role, content, created_at
		FROM chat_messages WHERE chatroom_id = ?`
	args := []interface{}{chatroomID}
	if before != nil {
		query += ` AND created_at < ?`
		args = append(args, before.UnixNano())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "chat message listing failed", err)
	}
	defer rows.Close()

	var messages []types.ChatMessage
	for rows.Next() {
		msg, err := scanChatMessage(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrorCodeStore, "chat message scan failed", err)
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

// CountChatMessages counts a chatroom's messages.
func (s *SQLiteMetaStore) CountChatMessages(ctx context.Context, chatroomID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE chatroom_id = ?`, chatroomID,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrorCodeStore, "chat message count failed", err)
	}
	return count, nil
}
