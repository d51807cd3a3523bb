package embedder

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// Dimensions is the fixed vector width semdesk's index and chunker assume
// throughout (384, matching the original's sentence-transformer model).
const Dimensions = 384

// StaticEmbedder is a deterministic, model-free Embedder: it hashes
// tokens into buckets of a fixed-width vector. It produces no semantic
// understanding, but is stable, dependency-free, and good enough to drive
// the rest of the pipeline (chunking, indexing, retrieval, QA) end to end
// without downloading a real model — the same role the original's
// StaticEmbedder plays as a fallback / offline mode.
type StaticEmbedder struct {
	dim int
}

// NewStatic creates a StaticEmbedder producing Dimensions-wide vectors.
func NewStatic() *StaticEmbedder {
	return &StaticEmbedder{dim: Dimensions}
}

func (e *StaticEmbedder) Dimensions() int { return e.dim }

func (e *StaticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *StaticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *StaticEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, tok := range tokenize(text) {
		bucket := hashToken(tok) % uint32(e.dim)
		vec[bucket] += 1
		for _, gram := range trigrams(tok) {
			b2 := hashToken(gram) % uint32(e.dim)
			vec[b2] += 0.5
		}
	}
	return vec
}

// tokenize splits on non-letter/digit runes and further splits camelCase
// and snake_case identifiers, mirroring the kind of code/prose mix the
// original static embedder was designed to hash reasonably for.
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tokens = append(tokens, strings.ToLower(cur.String()))
		cur.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if r == '_' {
				flush()
				continue
			}
			if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
				flush()
			}
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	tokens = filterStopWords(tokens)
	return tokens
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "of": {}, "to": {}, "and": {}, "in": {}, "it": {},
}

func filterStopWords(tokens []string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if _, stop := stopWords[t]; stop || t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func trigrams(tok string) []string {
	if len(tok) < 4 {
		return nil
	}
	grams := make([]string, 0, len(tok)-2)
	for i := 0; i+3 <= len(tok); i++ {
		grams = append(grams, tok[i:i+3])
	}
	return grams
}

func hashToken(tok string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tok))
	return h.Sum32()
}
