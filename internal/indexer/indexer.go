// Package indexer implements the Indexer worker: the only goroutine that
// touches the embedding model and the vector index. It exposes its work
// queue as two buffered channels (add and read) carrying request/reply
// pairs, mirroring the original's mpsc-channel-per-actor design.
package indexer

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/sureshkumar/semdesk/internal/embedder"
	"github.com/sureshkumar/semdesk/internal/vectorindex"
)

const (
	// ChunkSize is the fixed byte width documents are sliced into before
	// embedding — not token-aware, by design.
	ChunkSize = 384
	// MaxChunks caps how many chunks of a single document get indexed.
	MaxChunks = 50
	// SearchTopK is how many candidate hits Search asks the index for
	// before the score threshold is applied.
	SearchTopK = 6
	// ScoreThreshold drops any hit whose inner-product score falls below
	// it, matching the original's retrieve_document cutoff.
	ScoreThreshold = 0.10
	// PersistEveryPolls is how many scheduling-loop iterations pass
	// between persistence checks when the index has been mutated.
	PersistEveryPolls = 2000
	// PollInterval is how long the scheduling loop sleeps between polls.
	PollInterval = 100 * time.Millisecond
)

// IDSource draws fresh, monotonically increasing vector IDs. Satisfied by
// *catalog.Store.
type IDSource interface {
	NextID(ctx context.Context) (uint64, error)
}

// VectorStore is the subset of vectorindex.Index the Indexer depends on,
// kept as an interface so tests can substitute a fake.
type VectorStore interface {
	Add(id uint64, vec []float32) error
	Search(query []float32, k int) ([]vectorindex.Result, error)
	Save(path string) error
	Mutated() bool
}

// AddDocumentRequest asks the Indexer to chunk, embed, and index document
// text from source loc (typically a file path).
type AddDocumentRequest struct {
	Text  string
	Loc   string
	Reply chan<- AddDocumentReply
}

// AddDocumentReply reports the vector IDs assigned to the document's
// chunks, in chunk order.
type AddDocumentReply struct {
	Loc string
	IDs []uint64
	Err error
}

// RetrieveDocumentRequest asks the Indexer to run a similarity search.
type RetrieveDocumentRequest struct {
	Query string
	Reply chan<- RetrieveDocumentReply
}

// RetrieveDocumentReply carries the surviving hits after the score
// threshold filter, highest score first.
type RetrieveDocumentReply struct {
	Hits []vectorindex.Result
	Err  error
}

// Indexer owns the embedding model and vector index exclusively; nothing
// else in the process may call either directly.
type Indexer struct {
	embedder  embedder.Embedder
	store     VectorStore
	ids       IDSource
	indexPath string

	addCh  chan AddDocumentRequest
	readCh chan RetrieveDocumentRequest

	pollsSinceCheckpoint int
}

// CheckpointInfo reports whether the index at indexPath was last saved as
// part of a clean shutdown, for the caller to log at startup. A missing
// checkpoint (fresh index, or one from before this sidecar existed) reports
// a zero PersistedAt and Clean=true.
type CheckpointInfo struct {
	PersistedAt time.Time
	Clean       bool
}

// LoadCheckpointInfo reads the checkpoint sidecar for indexPath, if any.
func LoadCheckpointInfo(indexPath string) (CheckpointInfo, error) {
	cp, err := loadCheckpoint(indexPath)
	if err != nil {
		return CheckpointInfo{}, err
	}
	if cp.PersistedAt.IsZero() {
		return CheckpointInfo{Clean: true}, nil
	}
	return CheckpointInfo{PersistedAt: cp.PersistedAt, Clean: cp.Clean}, nil
}

// New builds an Indexer. addCh/readCh should be buffered by the caller to
// the size it wants callers able to queue without blocking.
func New(emb embedder.Embedder, store VectorStore, ids IDSource, indexPath string, addCh chan AddDocumentRequest, readCh chan RetrieveDocumentRequest) *Indexer {
	return &Indexer{
		embedder:  emb,
		store:     store,
		ids:       ids,
		indexPath: indexPath,
		addCh:     addCh,
		readCh:    readCh,
	}
}

// AddDocument is a synchronous convenience wrapper for callers (the
// Crawler) that want to submit a document and block for its reply.
func (ix *Indexer) AddDocument(ctx context.Context, text, loc string) AddDocumentReply {
	reply := make(chan AddDocumentReply, 1)
	select {
	case ix.addCh <- AddDocumentRequest{Text: text, Loc: loc, Reply: reply}:
	case <-ctx.Done():
		return AddDocumentReply{Loc: loc, Err: ctx.Err()}
	}
	select {
	case r := <-reply:
		return r
	case <-ctx.Done():
		return AddDocumentReply{Loc: loc, Err: ctx.Err()}
	}
}

// RetrieveDocument is a synchronous convenience wrapper for callers (the
// Retriever) that want to run a query and block for its reply.
func (ix *Indexer) RetrieveDocument(ctx context.Context, query string) RetrieveDocumentReply {
	reply := make(chan RetrieveDocumentReply, 1)
	select {
	case ix.readCh <- RetrieveDocumentRequest{Query: query, Reply: reply}:
	case <-ctx.Done():
		return RetrieveDocumentReply{Err: ctx.Err()}
	}
	select {
	case r := <-reply:
		return r
	case <-ctx.Done():
		return RetrieveDocumentReply{Err: ctx.Err()}
	}
}

// Run drives the Indexer's scheduling loop until ctx is canceled: drain all
// pending reads, service at most one add, persist every PersistEveryPolls
// iterations if mutated, then sleep. Both mailboxes are served from this
// single goroutine, so the embedder and vector index are never touched
// concurrently.
func (ix *Indexer) Run(ctx context.Context) error {
	polls := 0
	for {
		if ctx.Err() != nil {
			return ix.persistIfMutated(true)
		}

		for {
			req, ok := tryRecvRead(ix.readCh)
			if !ok {
				break
			}
			ix.handleRetrieve(ctx, req)
		}

		if req, ok := tryRecvAdd(ix.addCh); ok {
			ix.handleAdd(ctx, req)
		}

		polls++
		ix.pollsSinceCheckpoint++
		if polls >= PersistEveryPolls {
			polls = 0
			if err := ix.persistIfMutated(false); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ix.persistIfMutated(true)
		case <-time.After(PollInterval):
		}
	}
}

// persistIfMutated saves the vector index and refreshes its checkpoint
// sidecar when the store has pending mutations. clean marks a graceful
// (context-canceled) shutdown persist versus a routine periodic one. A clean
// shutdown with nothing pending marks the existing checkpoint clean.
func (ix *Indexer) persistIfMutated(clean bool) error {
	if !ix.store.Mutated() {
		if !clean {
			return nil
		}
		cp, err := loadCheckpoint(ix.indexPath)
		if err != nil || cp.PersistedAt.IsZero() || cp.Clean {
			return nil
		}
		cp.Clean = true
		return saveCheckpoint(ix.indexPath, cp)
	}
	if err := ix.store.Save(ix.indexPath); err != nil {
		return err
	}

	cp := checkpoint{PersistedAt: time.Now(), Polls: ix.pollsSinceCheckpoint, Clean: clean}
	ix.pollsSinceCheckpoint = 0
	return saveCheckpoint(ix.indexPath, cp)
}

func tryRecvAdd(ch <-chan AddDocumentRequest) (AddDocumentRequest, bool) {
	select {
	case req := <-ch:
		return req, true
	default:
		return AddDocumentRequest{}, false
	}
}

func tryRecvRead(ch <-chan RetrieveDocumentRequest) (RetrieveDocumentRequest, bool) {
	select {
	case req := <-ch:
		return req, true
	default:
		return RetrieveDocumentRequest{}, false
	}
}

func (ix *Indexer) handleAdd(ctx context.Context, req AddDocumentRequest) {
	chunks := ChunkText(req.Text, ChunkSize, MaxChunks)
	if len(chunks) == 0 {
		req.Reply <- AddDocumentReply{Loc: req.Loc}
		return
	}

	vecs, err := ix.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		req.Reply <- AddDocumentReply{Loc: req.Loc, Err: err}
		return
	}

	ids := make([]uint64, 0, len(vecs))
	for _, vec := range vecs {
		fitted := fitDimension(vec, ix.embedder.Dimensions())
		vectorindex.NormalizeL2(fitted)

		id, err := ix.ids.NextID(ctx)
		if err != nil {
			req.Reply <- AddDocumentReply{Loc: req.Loc, IDs: ids, Err: err}
			return
		}
		if err := ix.store.Add(id, fitted); err != nil {
			req.Reply <- AddDocumentReply{Loc: req.Loc, IDs: ids, Err: err}
			return
		}
		ids = append(ids, id)
	}

	req.Reply <- AddDocumentReply{Loc: req.Loc, IDs: ids}
}

func (ix *Indexer) handleRetrieve(ctx context.Context, req RetrieveDocumentRequest) {
	vecs, err := ix.embedder.EmbedBatch(ctx, []string{req.Query})
	if err != nil {
		req.Reply <- RetrieveDocumentReply{Err: err}
		return
	}
	query := fitDimension(vecs[0], ix.embedder.Dimensions())
	vectorindex.NormalizeL2(query)

	hits, err := ix.store.Search(query, SearchTopK)
	if err != nil {
		req.Reply <- RetrieveDocumentReply{Err: err}
		return
	}

	filtered := make([]vectorindex.Result, 0, len(hits))
	for _, h := range hits {
		if h.Score < ScoreThreshold {
			continue
		}
		filtered = append(filtered, h)
	}

	req.Reply <- RetrieveDocumentReply{Hits: filtered}
}

// fitDimension zero-pads or truncates vec to exactly dim entries, matching
// the original's zero-pad-short-vectors behavior before renormalization.
func fitDimension(vec []float32, dim int) []float32 {
	if len(vec) == dim {
		return vec
	}
	fitted := make([]float32, dim)
	copy(fitted, vec)
	return fitted
}

// ChunkText slices text into at most maxChunks chunks of at most
// chunkSize bytes each. A chunk boundary landing inside a multi-byte UTF-8
// rune produces an invalid chunk, which is dropped entirely — matching the
// original's String::from_utf8(chunk) failing closed rather than repairing
// the boundary. Empty or whitespace-only chunks are dropped too.
func ChunkText(text string, chunkSize, maxChunks int) []string {
	raw := []byte(text)
	chunks := make([]string, 0, maxChunks)

	for i := 0; i < len(raw) && len(chunks) < maxChunks; i += chunkSize {
		end := i + chunkSize
		if end > len(raw) {
			end = len(raw)
		}
		piece := raw[i:end]
		if !utf8.Valid(piece) {
			continue
		}
		s := string(piece)
		if isBlank(s) {
			continue
		}
		chunks = append(chunks, s)
	}

	return chunks
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
