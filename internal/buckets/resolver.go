// Package buckets maps incoming transcript timestamps onto rolling 24-hour
// day buckets and their hourly segments, creating them on first use.
package buckets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/internal/storage"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// BucketDuration is the fixed length of a day bucket's window.
const BucketDuration = 24 * time.Hour

// creationAttempts bounds the re-read loop when two ingests race to create
// the same bucket or segment.
const creationAttempts = 3

// Resolver finds or creates the day bucket and hourly segment a timestamp
// belongs to.
type Resolver struct {
	store  storage.MetaStore
	logger logging.Logger
}

// NewResolver creates a bucket resolver.
func NewResolver(store storage.MetaStore, logger logging.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger.WithComponent("buckets"),
	}
}

// ResolveBucket returns the day bucket whose window contains ts, creating a
// new bucket when none does. New buckets continue the user's day numbering:
// the first bucket is "Day 1" starting at ts; a timestamp at or past the
// latest bucket's end opens the next day starting exactly at that end, so
// consecutive days stay contiguous; a timestamp before the latest bucket's
// window that matches no existing bucket still opens a new day, anchored at
// its own timestamp.
func (r *Resolver) ResolveBucket(ctx context.Context, userID string, ts time.Time) (*types.DayBucket, error) {
	for attempt := 0; attempt < creationAttempts; attempt++ {
		bucket, err := r.store.GetDayBucketByTime(ctx, userID, ts)
		if err == nil {
			return bucket, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}

		bucket, err = r.createNextBucket(ctx, userID, ts)
		if err == nil {
			return bucket, nil
		}
		if !apperrors.IsConflict(err) {
			return nil, err
		}
		// Lost a creation race; the winner's bucket shows up on re-read.
		r.logger.DebugContext(ctx, "Day bucket creation conflict, re-reading", "user_id", userID)
	}
	return nil, apperrors.New(apperrors.ErrorCodeConcurrencyConflict,
		fmt.Sprintf("day bucket resolution did not converge after %d attempts", creationAttempts))
}

func (r *Resolver) createNextBucket(ctx context.Context, userID string, ts time.Time) (*types.DayBucket, error) {
	dayNumber := 1
	start := ts

	latest, err := r.store.GetLatestDayBucket(ctx, userID)
	switch {
	case err == nil:
		if latest.Contains(ts) {
			// A concurrent creator's bucket landed between our by-time
			// read and this one; reuse it.
			return latest, nil
		}
		dayNumber = latest.DayNumber + 1
		if !ts.Before(latest.EndTime) {
			start = latest.EndTime
		}
	case apperrors.IsNotFound(err):
		// First bucket for this user.
	default:
		return nil, err
	}

	now := time.Now().UTC()
	bucket := &types.DayBucket{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      fmt.Sprintf("Day %d", dayNumber),
		DayNumber: dayNumber,
		StartTime: start,
		EndTime:   start.Add(BucketDuration),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.CreateDayBucket(ctx, bucket); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Created day bucket",
		"user_id", userID,
		"name", bucket.Name,
		"start_time", bucket.StartTime.Format(time.RFC3339),
	)
	return bucket, nil
}

// ResolveSegment returns the bucket's segment for ts's hour, creating it
// with empty stats when the hour has no segment yet.
func (r *Resolver) ResolveSegment(ctx context.Context, bucket *types.DayBucket, ts time.Time) (*types.Segment, error) {
	hour := types.SegmentHour(ts)

	for attempt := 0; attempt < creationAttempts; attempt++ {
		segment, err := r.store.GetSegment(ctx, bucket.ID, hour)
		if err == nil {
			return segment, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}

		now := time.Now().UTC()
		segment = &types.Segment{
			ID:          uuid.New().String(),
			DayBucketID: bucket.ID,
			Hour:        hour,
			StartTime:   ts,
			EndTime:     ts,
			Stats: types.SegmentStats{
				TopicDistribution: make(map[string]int64),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = r.store.CreateSegment(ctx, segment)
		if err == nil {
			r.logger.DebugContext(ctx, "Created segment", "bucket", bucket.Name, "hour", hour)
			return segment, nil
		}
		if !apperrors.IsConflict(err) {
			return nil, err
		}
		r.logger.DebugContext(ctx, "Segment creation conflict, re-reading", "bucket", bucket.Name, "hour", hour)
	}
	return nil, apperrors.New(apperrors.ErrorCodeConcurrencyConflict,
		fmt.Sprintf("segment resolution did not converge after %d attempts", creationAttempts))
}
