// Package pipeline implements the per-chunk ingestion flow: bucket and
// segment resolution, enrichment, the durable chunk write, and the
// best-effort vector-index and statistics writes that follow it.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Anmol-TheDev/AI-pendant/internal/analysis"
	"github.com/Anmol-TheDev/AI-pendant/internal/buckets"
	"github.com/Anmol-TheDev/AI-pendant/internal/embeddings"
	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/internal/storage"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// IngestRequest is one transcript chunk to ingest. A zero Timestamp means
// "now"; an empty UserID means the default wearer.
type IngestRequest struct {
	UserID      string
	Text        string
	Timestamp   time.Time
	ChunkNumber *int
}

// IngestResult carries the identifiers produced by a successful ingestion.
// EmbeddingID always equals ChunkID.
type IngestResult struct {
	ChunkID     string `json:"chunk_id"`
	DayBucketID string `json:"day_bucket_id"`
	SegmentID   string `json:"segment_id"`
	EmbeddingID string `json:"embedding_id"`
}

// Ingestor runs the ingestion pipeline.
type Ingestor struct {
	resolver *buckets.Resolver
	analyzer *analysis.Analyzer
	embedder embeddings.EmbeddingService
	meta     storage.MetaStore
	vectors  storage.VectorStore
	logger   logging.Logger
}

// NewIngestor wires the pipeline's collaborators.
func NewIngestor(
	resolver *buckets.Resolver,
	analyzer *analysis.Analyzer,
	embedder embeddings.EmbeddingService,
	meta storage.MetaStore,
	vectors storage.VectorStore,
	logger logging.Logger,
) *Ingestor {
	return &Ingestor{
		resolver: resolver,
		analyzer: analyzer,
		embedder: embedder,
		meta:     meta,
		vectors:  vectors,
		logger:   logger.WithComponent("pipeline"),
	}
}

// Ingest runs one chunk through the pipeline. A failure before or during
// the durable chunk write aborts the whole operation; failures in the
// vector-index write, the segment statistics update, or the bucket touch
// are logged and do not fail the call, because the durable store is the
// source of truth.
func (in *Ingestor) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperrors.NewValidation("text", "must not be empty")
	}
	if len(req.Text) > types.MaxChunkTextLength {
		return nil, apperrors.NewValidation("text",
			fmt.Sprintf("exceeds maximum length of %d characters", types.MaxChunkTextLength))
	}
	if req.UserID == "" {
		req.UserID = types.DefaultUserID
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}
	ts := req.Timestamp.UTC()

	bucket, err := in.resolver.ResolveBucket(ctx, req.UserID, ts)
	if err != nil {
		return nil, err
	}
	segment, err := in.resolver.ResolveSegment(ctx, bucket, ts)
	if err != nil {
		return nil, err
	}

	enrichment := in.analyzer.Analyze(ctx, req.Text)

	chunkID := uuid.New().String()
	now := time.Now().UTC()
	chunk := &types.Chunk{
		ID:          chunkID,
		DayBucketID: bucket.ID,
		SegmentID:   segment.ID,
		Text:        req.Text,
		Timestamp:   ts,
		ChunkNumber: req.ChunkNumber,
		Sentiment:   enrichment.Sentiment,
		Topics:      enrichment.Topics,
		EmbeddingID: chunkID,
		CreatedAt:   now,
	}
	if err := chunk.Validate(); err != nil {
		return nil, apperrors.NewValidation("chunk", err.Error())
	}
	if err := in.meta.CreateChunk(ctx, chunk); err != nil {
		return nil, err
	}

	result := &IngestResult{
		ChunkID:     chunkID,
		DayBucketID: bucket.ID,
		SegmentID:   segment.ID,
		EmbeddingID: chunkID,
	}

	in.writeVector(ctx, chunk, bucket)
	in.updateStats(ctx, chunk, segment)
	in.touchBucket(ctx, bucket)

	in.logger.InfoContext(ctx, "Ingested chunk",
		"chunk_id", chunkID,
		"bucket", bucket.Name,
		"hour", segment.Hour,
		"sentiment", string(chunk.Sentiment),
	)
	return result, nil
}

// writeVector embeds the chunk text and upserts the vector entry under the
// chunk's own id. A failure leaves the chunk reachable by structured reads
// only, until reconciled.
func (in *Ingestor) writeVector(ctx context.Context, chunk *types.Chunk, bucket *types.DayBucket) {
	vector, err := in.embedder.GenerateEmbedding(ctx, chunk.Text)
	if err != nil {
		// The resilient embedder falls back internally; an error here means
		// even the fallback path broke.
		in.logVectorFailure(ctx, chunk, "embedding generation failed", err)
		return
	}

	entry := &types.VectorEntry{
		ID:     chunk.EmbeddingID,
		Vector: vector,
		Text:   chunk.Text,
		Metadata: types.VectorMetadata{
			UserID:      bucket.UserID,
			DayBucketID: bucket.ID,
			BucketName:  bucket.Name,
			DayNumber:   bucket.DayNumber,
			SegmentID:   chunk.SegmentID,
			Date:        types.DateKey(chunk.Timestamp),
			Hour:        types.SegmentHour(chunk.Timestamp),
			Sentiment:   chunk.Sentiment,
			Topics:      chunk.Topics,
			Timestamp:   chunk.Timestamp,
		},
	}
	if err := in.vectors.Upsert(ctx, entry); err != nil {
		in.logVectorFailure(ctx, chunk, "vector index write failed", err)
	}
}

func (in *Ingestor) logVectorFailure(ctx context.Context, chunk *types.Chunk, msg string, err error) {
	partial := apperrors.Wrap(apperrors.ErrorCodePartialWrite, msg, err)
	in.logger.WarnContext(ctx, "Chunk persisted without vector entry",
		"chunk_id", chunk.ID,
		"error", partial,
	)
}

// updateStats applies the chunk's contribution to its segment aggregate as
// commutative increments.
func (in *Ingestor) updateStats(ctx context.Context, chunk *types.Chunk, segment *types.Segment) {
	delta := storage.StatsDelta{
		WordCount: int64(types.CountWords(chunk.Text)),
		Sentiment: chunk.Sentiment,
		Topics:    chunk.Topics,
		Timestamp: chunk.Timestamp,
	}
	if err := in.meta.IncrementSegmentStats(ctx, segment.ID, delta); err != nil {
		in.logger.WarnContext(ctx, "Segment stats update failed",
			"chunk_id", chunk.ID,
			"segment_id", segment.ID,
			"error", err,
		)
	}
}

func (in *Ingestor) touchBucket(ctx context.Context, bucket *types.DayBucket) {
	if err := in.meta.TouchDayBucket(ctx, bucket.ID, time.Now().UTC()); err != nil {
		in.logger.WarnContext(ctx, "Day bucket touch failed",
			"bucket_id", bucket.ID,
			"error", err,
		)
	}
}
