// Package retriever implements the Retriever worker: it turns an ANN
// query into a deduplicated list of (path, full document text) pairs by
// looking up each hit's owning file in the Catalog and re-parsing it.
package retriever

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sureshkumar/semdesk/internal/catalog"
	"github.com/sureshkumar/semdesk/internal/indexer"
	"github.com/sureshkumar/semdesk/internal/semerr"
)

// docCacheSize bounds the per-process cache of parsed document text shared
// across queries within one Query Processor lifetime.
const docCacheSize = 256

// Catalog is the subset of *catalog.Store the Retriever depends on.
type Catalog interface {
	GetByIndex(ctx context.Context, id uint64) (catalog.Entry, error)
	ContainsFile(ctx context.Context, filename string) (bool, error)
}

// Indexer is the subset of *indexer.Indexer the Retriever depends on.
type Indexer interface {
	RetrieveDocument(ctx context.Context, query string) indexer.RetrieveDocumentReply
}

// Parser turns a file on disk into plain text.
type Parser interface {
	Parse(ctx context.Context, path string) (string, error)
}

// Doc is one retrieved document: its path and full text.
type Doc struct {
	Filename string
	Text     string
}

// Retriever owns no exclusive resource; it composes the Catalog, the
// Indexer's mailbox, and the Parser.
type Retriever struct {
	catalog Catalog
	indexer Indexer
	parser  Parser
	cache   *lru.Cache[string, string]
}

// New builds a Retriever.
func New(cat Catalog, ix Indexer, parser Parser) *Retriever {
	cache, _ := lru.New[string, string](docCacheSize)
	return &Retriever{catalog: cat, indexer: ix, parser: parser, cache: cache}
}

// RetrieveByQuery runs query through the Indexer, resolves each hit to its
// owning filename via the Catalog (deduplicating — hit order after dedup
// is not guaranteed, matching the original's HashSet-based dedup), and
// returns the parsed text of every surviving file that is still cataloged.
func (r *Retriever) RetrieveByQuery(ctx context.Context, query string) ([]Doc, error) {
	reply := r.indexer.RetrieveDocument(ctx, query)
	if reply.Err != nil {
		return nil, reply.Err
	}

	seen := make(map[string]struct{})
	for _, hit := range reply.Hits {
		entry, err := r.catalog.GetByIndex(ctx, hit.ID)
		if err != nil {
			continue
		}
		seen[entry.Filename] = struct{}{}
	}

	docs := make([]Doc, 0, len(seen))
	for filename := range seen {
		ok, err := r.catalog.ContainsFile(ctx, filename)
		if err != nil || !ok {
			continue
		}

		text, err := r.parseCached(ctx, filename)
		if err != nil {
			continue
		}
		docs = append(docs, Doc{Filename: filename, Text: text})
	}

	return docs, nil
}

func (r *Retriever) parseCached(ctx context.Context, filename string) (string, error) {
	if text, ok := r.cache.Get(filename); ok {
		return text, nil
	}
	text, err := r.parser.Parse(ctx, filename)
	if err != nil {
		return "", err
	}
	r.cache.Add(filename, text)
	return text, nil
}

// RetrieveByPath returns the parsed text of a single already-cataloged
// file, for debugging — mirrors the original's retrieve_by_path helper.
func (r *Retriever) RetrieveByPath(ctx context.Context, path string) (string, error) {
	ok, err := r.catalog.ContainsFile(ctx, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", semerr.NotFound("file not cataloged: " + path)
	}
	return r.parseCached(ctx, path)
}

// RetrieveByID returns the parsed text of the file owning vector id, for
// debugging — mirrors the original's retrieve_by_id helper.
func (r *Retriever) RetrieveByID(ctx context.Context, id uint64) (string, error) {
	entry, err := r.catalog.GetByIndex(ctx, id)
	if err != nil {
		return "", err
	}
	return r.parseCached(ctx, entry.Filename)
}
