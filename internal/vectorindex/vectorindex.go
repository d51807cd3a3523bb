// Package vectorindex implements a flat, exact inner-product vector index —
// the Go equivalent of the original's faiss "IDMap,Flat" index. There is no
// training phase and no approximation: every Search does a full linear scan.
// This deliberately diverges from the teacher's HNSWStore (an approximate
// graph index), which cannot satisfy the exactness this system requires.
package vectorindex

import (
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sureshkumar/semdesk/internal/semerr"
)

// Result is one scored hit from Search.
type Result struct {
	ID    uint64
	Score float32
}

// Index is a flat, exact inner-product vector index over L2-normalized
// vectors of a fixed dimension.
type Index struct {
	mu      sync.RWMutex
	dim     int
	ids     []uint64
	vectors [][]float32
	mutated bool
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) *Index {
	return &Index{dim: dim}
}

// Dimensions returns the vector dimension this index was built for.
func (idx *Index) Dimensions() int {
	return idx.dim
}

// Count returns the number of vectors currently stored.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Mutated reports whether the index has changed since the last Save.
func (idx *Index) Mutated() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.mutated
}

// NormalizeL2 renormalizes vec in place to unit length, matching the
// original's faiss_fvec_renorm_L2 call. A zero vector is left unchanged.
func NormalizeL2(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}

// Add inserts a vector under id. vec must already be L2-normalized and
// exactly Dimensions() long; callers pad/normalize before calling Add.
func (idx *Index) Add(id uint64, vec []float32) error {
	if len(vec) != idx.dim {
		return semerr.New(semerr.CodeInternal, "vector dimension mismatch")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cp := make([]float32, len(vec))
	copy(cp, vec)
	idx.ids = append(idx.ids, id)
	idx.vectors = append(idx.vectors, cp)
	idx.mutated = true
	return nil
}

// innerProduct computes the dot product of two equal-length vectors.
func innerProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Search returns the top-k hits by inner product against query, which must
// already be L2-normalized and Dimensions() long. Results are sorted by
// descending score.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != idx.dim {
		return nil, semerr.New(semerr.CodeInternal, "query dimension mismatch")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]Result, 0, len(idx.ids))
	for i, v := range idx.vectors {
		results = append(results, Result{ID: idx.ids[i], Score: innerProduct(query, v)})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if k >= 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// persistedIndex is the gob-encoded on-disk representation, mirroring the
// teacher's metadata-sidecar approach but kept as a single file since a flat
// index has no graph structure to separate out.
type persistedIndex struct {
	Dim     int
	IDs     []uint64
	Vectors [][]float32
}

// Save persists the index to path, rotating any existing file to
// path+".bak" first. The new generation is written in place, not through a
// temporary file: a crash partway through the write leaves the ".bak"
// intact and the primary path possibly truncated, and Load then reads
// ".bak" instead.
func (idx *Index) Save(path string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return semerr.Wrap(semerr.CodeIO, "create index directory", err)
	}

	if _, err := os.Stat(path); err == nil {
		bakPath := path + ".bak"
		_ = os.Remove(bakPath)
		if err := os.Rename(path, bakPath); err != nil {
			return semerr.Wrap(semerr.CodeIO, "rotate index backup", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return semerr.Wrap(semerr.CodeIO, "create index file", err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	if err := enc.Encode(persistedIndex{Dim: idx.dim, IDs: idx.ids, Vectors: idx.vectors}); err != nil {
		return semerr.Wrap(semerr.CodeIO, "encode index", err)
	}

	idx.mutated = false
	return nil
}

// Load replaces the index contents with what is stored at path. If path
// does not exist, Load leaves an empty index of the configured dimension
// (the first run has no index to load yet), whether or not a ".bak" exists.
// If path exists but does not decode, Load decodes path+".bak" instead.
func Load(path string, dim int) (*Index, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(dim), nil
	}
	if err != nil {
		return nil, semerr.Wrap(semerr.CodeIO, "open index file", err)
	}
	defer f.Close()

	var p persistedIndex
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		bak, bakErr := os.Open(path + ".bak")
		if bakErr != nil {
			return nil, semerr.Wrap(semerr.CodeIO, "decode index file", err)
		}
		defer bak.Close()
		p = persistedIndex{}
		if bakErr := gob.NewDecoder(bak).Decode(&p); bakErr != nil {
			return nil, semerr.Wrap(semerr.CodeIO, "decode index file", err)
		}
	}

	return &Index{dim: p.Dim, ids: p.IDs, vectors: p.Vectors}, nil
}
