package indexer_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/sureshkumar/semdesk/internal/indexer"
	"github.com/sureshkumar/semdesk/internal/vectorindex"
)

type fakeEmbedder struct{ dim int }

func (f *fakeEmbedder) Dimensions() int { return f.dim }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.EmbedBatch(ctx, []string{text})
	return vs[0], err
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dim)
		if len(t) > 0 {
			v[int(t[0])%f.dim] = 1
		}
		out[i] = v
	}
	return out, nil
}

type fakeIDs struct{ next uint64 }

func (f *fakeIDs) NextID(context.Context) (uint64, error) {
	f.next++
	return f.next, nil
}

func TestChunkTextSplitsAtFixedByteSize(t *testing.T) {
	text := strings.Repeat("a", indexer.ChunkSize*2+10)
	chunks := indexer.ChunkText(text, indexer.ChunkSize, indexer.MaxChunks)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], indexer.ChunkSize)
	require.Len(t, chunks[2], 10)
}

func TestChunkTextCapsAtMaxChunks(t *testing.T) {
	text := strings.Repeat("a", indexer.ChunkSize*(indexer.MaxChunks+5))
	chunks := indexer.ChunkText(text, indexer.ChunkSize, indexer.MaxChunks)
	require.Len(t, chunks, indexer.MaxChunks)
}

func TestChunkTextDropsInvalidUTF8Boundary(t *testing.T) {
	// A 3-byte rune ("é" is 2 bytes; use a 3-byte one) split exactly at the
	// chunk boundary so the first chunk ends mid-rune.
	rune3 := "\xe2\x82\xac" // the Euro sign, 3 bytes
	text := strings.Repeat("a", indexer.ChunkSize-1) + rune3
	chunks := indexer.ChunkText(text, indexer.ChunkSize, indexer.MaxChunks)
	// First chunk (chunkSize bytes) ends 1 byte into the euro sign: invalid, dropped.
	require.False(t, utf8.ValidString(text[:indexer.ChunkSize]))
	// Second chunk holds only the euro sign's two continuation bytes: also
	// invalid, also dropped.
	require.Empty(t, chunks)
}

func TestChunkTextDropsBlankChunks(t *testing.T) {
	chunks := indexer.ChunkText("   \n\t  ", indexer.ChunkSize, indexer.MaxChunks)
	require.Empty(t, chunks)
}

func newTestIndexer(t *testing.T) (*indexer.Indexer, chan indexer.AddDocumentRequest, chan indexer.RetrieveDocumentRequest) {
	t.Helper()
	ix, _, addCh, readCh := newTestIndexerWithPath(t)
	return ix, addCh, readCh
}

func newTestIndexerWithPath(t *testing.T) (*indexer.Indexer, string, chan indexer.AddDocumentRequest, chan indexer.RetrieveDocumentRequest) {
	t.Helper()
	emb := &fakeEmbedder{dim: 8}
	store := vectorindex.New(8)
	ids := &fakeIDs{}
	addCh := make(chan indexer.AddDocumentRequest, 4)
	readCh := make(chan indexer.RetrieveDocumentRequest, 4)
	indexPath := t.TempDir() + "/index.bin"
	ix := indexer.New(emb, store, ids, indexPath, addCh, readCh)
	return ix, indexPath, addCh, readCh
}

func TestAddDocumentAssignsOneIDToShortDocument(t *testing.T) {
	ix, addCh, _ := newTestIndexer(t)
	_ = addCh

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran atomic.Bool
	go func() {
		ran.Store(true)
		_ = ix.Run(ctx)
	}()

	reply := ix.AddDocument(ctx, strings.Repeat("x", 10), "doc1.txt")
	require.NoError(t, reply.Err)
	require.Equal(t, "doc1.txt", reply.Loc)
	require.Len(t, reply.IDs, 1)
	require.True(t, ran.Load())
}

func TestRetrieveDocumentFiltersByScoreThreshold(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ix.Run(ctx) }()

	_ = ix.AddDocument(ctx, "a document about apples", "a.txt")

	reply := ix.RetrieveDocument(ctx, "a document about apples")
	require.NoError(t, reply.Err)
	for _, hit := range reply.Hits {
		require.GreaterOrEqual(t, hit.Score, float32(indexer.ScoreThreshold))
	}
}

func TestRunPersistsOnShutdownWhenMutated(t *testing.T) {
	ix, indexPath, _, _ := newTestIndexerWithPath(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ix.Run(ctx) }()

	_ = ix.AddDocument(ctx, "hello", "h.txt")
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}

	cpInfo, err := indexer.LoadCheckpointInfo(indexPath)
	require.NoError(t, err)
	require.True(t, cpInfo.Clean)
	require.False(t, cpInfo.PersistedAt.IsZero())
}

func TestLoadCheckpointInfoMissingFileReportsClean(t *testing.T) {
	cpInfo, err := indexer.LoadCheckpointInfo(t.TempDir() + "/does-not-exist.bin")
	require.NoError(t, err)
	require.True(t, cpInfo.Clean)
	require.True(t, cpInfo.PersistedAt.IsZero())
}
