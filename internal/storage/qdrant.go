package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// QdrantStore implements VectorStore on a Qdrant collection.
type QdrantStore struct {
	client         *qdrant.Client
	config         *config.QdrantConfig
	logger         logging.Logger
	collectionName string
}

// NewQdrantStore creates a Qdrant-backed vector store. Initialize must be
// called before any other method.
func NewQdrantStore(cfg *config.QdrantConfig, logger logging.Logger) *QdrantStore {
	return &QdrantStore{
		config:         cfg,
		logger:         logger.WithComponent("qdrant"),
		collectionName: cfg.Collection,
	}
}

// Initialize connects to Qdrant and creates the collection if it does not
// exist yet.
func (qs *QdrantStore) Initialize(ctx context.Context) error {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   qs.config.Host,
		Port:   qs.config.Port,
		APIKey: qs.config.APIKey,
		UseTLS: qs.config.UseTLS,
	})
	if err != nil {
		return fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	qs.client = client

	collections, err := qs.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	collectionExists := false
	for _, name := range collections {
		if name == qs.collectionName {
			collectionExists = true
			break
		}
	}

	if !collectionExists {
		err = qs.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: qs.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(types.EmbeddingDimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", qs.collectionName, err)
		}
		qs.logger.Info("Created Qdrant collection", "collection", qs.collectionName)
	}

	qs.logger.Info("Qdrant collection initialized", "collection", qs.collectionName)
	return nil
}

// Upsert writes one embedding entry, replacing any existing point with the
// same id.
func (qs *QdrantStore) Upsert(ctx context.Context, entry *types.VectorEntry) error {
	if len(entry.Vector) != types.EmbeddingDimension {
		return apperrors.New(apperrors.ErrorCodeValidation,
			fmt.Sprintf("vector dimension %d does not match collection dimension %d", len(entry.Vector), types.EmbeddingDimension))
	}

	_, err := qs.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: qs.collectionName,
		Points:         []*qdrant.PointStruct{qs.entryToPoint(entry)},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert entry in Qdrant: %w", err)
	}

	qs.logger.Debug("Upserted vector entry",
		"id", entry.ID,
		"bucket", entry.Metadata.BucketName,
		"hour", entry.Metadata.Hour,
	)
	return nil
}

// Search runs a cosine-similarity query over the collection, narrowed by the
// optional filter fields.
func (qs *QdrantStore) Search(ctx context.Context, vector []float64, filter VectorFilter, limit int) ([]types.SearchResult, error) {
	if len(vector) == 0 {
		return nil, apperrors.New(apperrors.ErrorCodeValidation, "search vector cannot be empty")
	}

	scored, err := qs.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: qs.collectionName,
		Query:          qdrant.NewQuery(float64ToFloat32(vector)...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         qs.buildFilter(filter),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search in Qdrant: %w", err)
	}

	results := make([]types.SearchResult, 0, len(scored))
	for _, point := range scored {
		result, err := qs.scoredPointToResult(point)
		if err != nil {
			qs.logger.ErrorContext(ctx, "Failed to convert point to result", "error", err, "point_id", point.GetId())
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// GetByID retrieves one entry, vector included.
func (qs *QdrantStore) GetByID(ctx context.Context, id string) (*types.VectorEntry, error) {
	points, err := qs.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: qs.collectionName,
		Ids:            []*qdrant.PointId{stringToPointID(id)},
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entry from Qdrant: %w", err)
	}
	if len(points) == 0 {
		return nil, apperrors.NewNotFound("vector entry")
	}
	return qs.pointToEntry(points[0])
}

// DeleteByID removes one entry.
func (qs *QdrantStore) DeleteByID(ctx context.Context, id string) error {
	_, err := qs.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: qs.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: []*qdrant.PointId{stringToPointID(id)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete entry from Qdrant: %w", err)
	}
	return nil
}

// Count returns the number of points in the collection.
func (qs *QdrantStore) Count(ctx context.Context) (int64, error) {
	count, err := qs.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: qs.collectionName,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count entries in Qdrant: %w", err)
	}
	return int64(count), nil
}

// HealthCheck verifies the collection is reachable.
func (qs *QdrantStore) HealthCheck(ctx context.Context) error {
	_, err := qs.client.GetCollectionInfo(ctx, qs.collectionName)
	if err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// Close releases the connection. The Qdrant client has no explicit close.
func (qs *QdrantStore) Close() error {
	if qs.client != nil {
		qs.logger.Info("Qdrant connection closed")
	}
	return nil
}

// entryToPoint converts a VectorEntry to a Qdrant point. Topics are stored
// as a list value so a payload index can filter on them later.
func (qs *QdrantStore) entryToPoint(entry *types.VectorEntry) *qdrant.PointStruct {
	m := entry.Metadata
	payload := map[string]*qdrant.Value{
		"text":          stringToValue(entry.Text),
		"user_id":       stringToValue(m.UserID),
		"day_bucket_id": stringToValue(m.DayBucketID),
		"bucket_name":   stringToValue(m.BucketName),
		"day_number":    int64ToValue(int64(m.DayNumber)),
		"segment_id":    stringToValue(m.SegmentID),
		"date":          stringToValue(m.Date),
		"hour":          int64ToValue(int64(m.Hour)),
		"sentiment":     stringToValue(string(m.Sentiment)),
		"timestamp":     int64ToValue(m.Timestamp.Unix()),
	}
	if len(m.Topics) > 0 {
		payload["topics"] = stringSliceToValue(m.Topics)
	}

	return &qdrant.PointStruct{
		Id:      stringToPointID(entry.ID),
		Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: float64ToFloat32(entry.Vector)}}},
		Payload: payload,
	}
}

func metadataFromPayload(payload map[string]*qdrant.Value) (types.VectorMetadata, error) {
	timestampValue, ok := payload["timestamp"]
	if !ok {
		return types.VectorMetadata{}, fmt.Errorf("missing timestamp in payload")
	}
	return types.VectorMetadata{
		UserID:      getStringFromPayload(payload, "user_id"),
		DayBucketID: getStringFromPayload(payload, "day_bucket_id"),
		BucketName:  getStringFromPayload(payload, "bucket_name"),
		DayNumber:   int(getIntFromPayload(payload, "day_number")),
		SegmentID:   getStringFromPayload(payload, "segment_id"),
		Date:        getStringFromPayload(payload, "date"),
		Hour:        int(getIntFromPayload(payload, "hour")),
		Sentiment:   types.Sentiment(getStringFromPayload(payload, "sentiment")),
		Topics:      getStringSliceFromPayload(payload, "topics"),
		Timestamp:   time.Unix(timestampValue.GetIntegerValue(), 0).UTC(),
	}, nil
}

func (qs *QdrantStore) pointToEntry(point *qdrant.RetrievedPoint) (*types.VectorEntry, error) {
	metadata, err := metadataFromPayload(point.GetPayload())
	if err != nil {
		return nil, err
	}

	var vector []float64
	if vectors := point.GetVectors(); vectors != nil {
		if v := vectors.GetVector(); v != nil {
			vector = float32ToFloat64(v.GetData())
		}
	}

	return &types.VectorEntry{
		ID:       pointIDToString(point.GetId()),
		Vector:   vector,
		Text:     getStringFromPayload(point.GetPayload(), "text"),
		Metadata: metadata,
	}, nil
}

func (qs *QdrantStore) scoredPointToResult(point *qdrant.ScoredPoint) (*types.SearchResult, error) {
	metadata, err := metadataFromPayload(point.GetPayload())
	if err != nil {
		return nil, err
	}
	return &types.SearchResult{
		ID:       pointIDToString(point.GetId()),
		Text:     getStringFromPayload(point.GetPayload(), "text"),
		Score:    float64(point.GetScore()),
		Metadata: metadata,
	}, nil
}

// buildFilter translates a VectorFilter into Qdrant match conditions.
func (qs *QdrantStore) buildFilter(filter VectorFilter) *qdrant.Filter {
	conditions := make([]*qdrant.Condition, 0, 2)

	if filter.UserID != "" {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: "user_id",
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: filter.UserID},
					},
				},
			},
		})
	}

	if filter.Date != "" {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: "date",
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: filter.Date},
					},
				},
			},
		})
	}

	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}

func stringToValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func int64ToValue(i int64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: i}}
}

func stringSliceToValue(slice []string) *qdrant.Value {
	values := make([]*qdrant.Value, len(slice))
	for i, s := range slice {
		values[i] = stringToValue(s)
	}
	return &qdrant.Value{Kind: &qdrant.Value_ListValue{
		ListValue: &qdrant.ListValue{Values: values},
	}}
}

func stringToPointID(s string) *qdrant.PointId {
	return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: s}}
}

func pointIDToString(id *qdrant.PointId) string {
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func float64ToFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}

func float32ToFloat64(f32 []float32) []float64 {
	f64 := make([]float64, len(f32))
	for i, v := range f32 {
		f64[i] = float64(v)
	}
	return f64
}

func getStringFromPayload(payload map[string]*qdrant.Value, key string) string {
	if value, ok := payload[key]; ok {
		return value.GetStringValue()
	}
	return ""
}

func getIntFromPayload(payload map[string]*qdrant.Value, key string) int64 {
	if value, ok := payload[key]; ok {
		return value.GetIntegerValue()
	}
	return 0
}

func getStringSliceFromPayload(payload map[string]*qdrant.Value, key string) []string {
	if value, ok := payload[key]; ok {
		if listValue := value.GetListValue(); listValue != nil {
			values := listValue.GetValues()
			result := make([]string, len(values))
			for i, v := range values {
				result[i] = v.GetStringValue()
			}
			return result
		}
	}
	return nil
}
