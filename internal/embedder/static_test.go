package embedder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sureshkumar/semdesk/internal/embedder"
)

func TestStaticEmbedderIsDeterministic(t *testing.T) {
	e := embedder.NewStatic()
	a, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestStaticEmbedderProducesFixedDimension(t *testing.T) {
	e := embedder.NewStatic()
	vec, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, vec, embedder.Dimensions)
	require.Equal(t, embedder.Dimensions, e.Dimensions())
}

func TestStaticEmbedderDistinguishesDifferentText(t *testing.T) {
	e := embedder.NewStatic()
	a, _ := e.Embed(context.Background(), "apples and oranges")
	b, _ := e.Embed(context.Background(), "quantum mechanics")
	require.NotEqual(t, a, b)
}

func TestStaticEmbedderBatchMatchesSingle(t *testing.T) {
	e := embedder.NewStatic()
	single, _ := e.Embed(context.Background(), "batch me")
	batch, err := e.EmbedBatch(context.Background(), []string{"batch me"})
	require.NoError(t, err)
	require.Equal(t, single, batch[0])
}

func TestStaticEmbedderEmptyTextYieldsZeroVector(t *testing.T) {
	e := embedder.NewStatic()
	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	for _, v := range vec {
		require.Zero(t, v)
	}
}
