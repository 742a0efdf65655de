package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

func l2Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func TestFallbackEmbedding_Deterministic(t *testing.T) {
	a := FallbackEmbedding("walked the dog in the park this morning")
	b := FallbackEmbedding("walked the dog in the park this morning")
	assert.Equal(t, a, b)
}

func TestFallbackEmbedding_Dimension(t *testing.T) {
	v := FallbackEmbedding("short")
	assert.Len(t, v, types.EmbeddingDimension)
}

func TestFallbackEmbedding_UnitNorm(t *testing.T) {
	for _, text := range []string{
		"hello",
		"a longer sentence with several different words in it",
		"Mixed CASE and punctuation, too!",
	} {
		v := FallbackEmbedding(text)
		assert.InDelta(t, 1.0, l2Norm(v), 1e-9, "text %q", text)
	}
}

func TestFallbackEmbedding_EmptyText(t *testing.T) {
	v := FallbackEmbedding("")
	require.Len(t, v, types.EmbeddingDimension)
	assert.Zero(t, l2Norm(v))
}

func TestFallbackEmbedding_DistinctTexts(t *testing.T) {
	a := FallbackEmbedding("grocery shopping list")
	b := FallbackEmbedding("quarterly budget review")
	assert.NotEqual(t, a, b)
}

func TestFallbackEmbedder_Batch(t *testing.T) {
	embedder := NewFallbackEmbedder()

	vectors, err := embedder.GenerateBatchEmbeddings(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, FallbackEmbedding("one"), vectors[0])
	assert.Equal(t, FallbackEmbedding("two"), vectors[1])
	assert.Equal(t, types.EmbeddingDimension, embedder.GetDimension())
}
