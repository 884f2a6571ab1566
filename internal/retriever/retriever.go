// Package retriever adapts the vector index into the record-oriented read
// contract the answering loop depends on.
package retriever

import (
	"context"

	"webmemory/internal/domain"
)

// Retriever embeds a free-text query and returns the top matching records,
// relevance-descending. It is read-only and safe for concurrent use as long
// as its embedder is.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	topK     int
}

// New builds a retriever with a fixed fan-out. topK defaults to 8.
func New(embedder domain.Embedder, store domain.VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 8
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Search returns up to topK records for the query. Zero results is an empty
// slice, not an error.
func (r *Retriever) Search(ctx context.Context, query string) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec, err := r.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	results, err := r.store.Search(vec, r.topK)
	if err != nil {
		return nil, err
	}
	records := make([]domain.Record, 0, len(results))
	for _, res := range results {
		records = append(records, recordFromChunk(res.Chunk))
	}
	return records, nil
}

// recordFromChunk applies the sentinel defaults for missing metadata.
func recordFromChunk(c domain.Chunk) domain.Record {
	rec := domain.Record{
		Content: c.Text,
		Title:   c.Title,
		Source:  c.Source,
		Date:    c.Date,
	}
	if rec.Title == "" {
		rec.Title = domain.NoTitle
	}
	if rec.Source == "" {
		rec.Source = domain.NoSource
	}
	if rec.Date == "" {
		rec.Date = domain.NoDate
	}
	return rec
}
