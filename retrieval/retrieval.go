// Package retrieval provides an in-memory vector index over chapter
// text for prior-context lookup during drafting.
//
// Chapters are embedded on upsert; a search embeds the query and ranks
// stored documents by cosine similarity. The index is small (one novel
// per process), so brute-force scoring is sufficient.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// DefaultTopK is the number of matches returned when the caller asks
// for zero or a negative count.
const DefaultTopK = 5

// excerptLimit bounds how much of a document is carried into a match,
// in runes. Prompts assemble several excerpts, so each stays short.
const excerptLimit = 400

// Embedder converts text into a vector representation.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Document is an indexable unit of chapter text.
type Document struct {
	// ChapterID is the stable chapter identifier.
	ChapterID string

	// Label is a short human-readable tag (e.g. the chapter title).
	Label string

	// Text is the full document body.
	Text string
}

// Match is a scored search result.
type Match struct {
	ChapterID string
	Label     string
	Excerpt   string
	Score     float64
}

// Index is a brute-force cosine similarity index.
//
// Safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	embedder Embedder
	docs     map[string]indexedDoc // keyed by ChapterID
}

type indexedDoc struct {
	doc    Document
	vector []float32
}

// NewIndex creates an index backed by the given embedder.
func NewIndex(embedder Embedder) *Index {
	return &Index{
		embedder: embedder,
		docs:     make(map[string]indexedDoc),
	}
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Upsert embeds and stores a document, replacing any previous document
// with the same ChapterID.
func (ix *Index) Upsert(ctx context.Context, doc Document) error {
	if doc.ChapterID == "" {
		return errors.New("retrieval: document needs a chapter ID")
	}

	vector, err := ix.embedder.Embed(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("retrieval: embed %s: %w", doc.ChapterID, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs[doc.ChapterID] = indexedDoc{doc: doc, vector: vector}
	return nil
}

// Search returns the k highest-scoring documents for query.
//
// Results are ordered by descending score; equal scores tie-break by
// ascending chapter ID so ranking is deterministic. k <= 0 uses
// DefaultTopK.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	ix.mu.RLock()
	matches := make([]Match, 0, len(ix.docs))
	for _, entry := range ix.docs {
		matches = append(matches, Match{
			ChapterID: entry.doc.ChapterID,
			Label:     entry.doc.Label,
			Excerpt:   excerpt(entry.doc.Text),
			Score:     cosine(queryVec, entry.vector),
		})
	}
	ix.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ChapterID < matches[j].ChapterID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// cosine computes cosine similarity clamped to [0, 1]. Mismatched or
// zero-magnitude vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// excerpt truncates text to excerptLimit runes.
func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "…"
}
