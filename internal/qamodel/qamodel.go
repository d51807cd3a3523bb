// Package qamodel defines the narrow interface semdesk uses to extract
// answers from a candidate document given a question, plus a deterministic
// default implementation. Like Embedder, a real extractive QA model is an
// external black box per the system's scope; nothing in the retrieval pack
// implements one, so this interface is designed fresh in the same style as
// embedder.Embedder, and Predict's signature mirrors the original's
// qa_model.predict(&[QaInput{question, context}], topK, maxAnswerLen) call.
package qamodel

import (
	"context"
	"sort"
	"strings"
)

// Answer is one extracted answer span with its confidence score.
type Answer struct {
	Text  string
	Score float32
}

// Model extracts answers to a question from a context document.
type Model interface {
	// Predict returns up to topK answers, each truncated to at most
	// maxAnswerLen words, ordered by descending score.
	Predict(ctx context.Context, question, document string, topK, maxAnswerLen int) ([]Answer, error)
}

// StaticModel is a deterministic, model-free Model: it scores each sentence
// of the document by the fraction of its words that appear in the question, and
// returns the best-scoring sentences truncated to maxAnswerLen words. It
// performs no real language understanding, but — like StaticEmbedder —
// drives the rest of the query pipeline end to end without downloading a
// model.
type StaticModel struct{}

// NewStatic creates a StaticModel.
func NewStatic() *StaticModel {
	return &StaticModel{}
}

func (m *StaticModel) Predict(_ context.Context, question, document string, topK, maxAnswerLen int) ([]Answer, error) {
	qWords := wordSet(question)
	if len(qWords) == 0 {
		return nil, nil
	}

	sentences := splitSentences(document)
	scored := make([]Answer, 0, len(sentences))
	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		score := overlapScore(qWords, trimmed)
		if score == 0 {
			continue
		}
		scored = append(scored, Answer{Text: truncateWords(trimmed, maxAnswerLen), Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if topK >= 0 && topK < len(scored) {
		scored = scored[:topK]
	}
	return scored, nil
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[strings.Trim(w, ".,!?;:\"'()")] = struct{}{}
	}
	delete(set, "")
	return set
}

func overlapScore(qWords map[string]struct{}, sentence string) float32 {
	words := strings.Fields(strings.ToLower(sentence))
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if _, ok := qWords[strings.Trim(w, ".,!?;:\"'()")]; ok {
			hits++
		}
	}
	return float32(hits) / float32(len(words))
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n' || r == '!' || r == '?'
	})
}

func truncateWords(s string, max int) string {
	if max <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}
