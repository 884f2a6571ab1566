// Package ingest builds the searchable archive: it extracts visits from a
// browser history database, fetches and strips the pages, chunks them with
// their metadata, and indexes the embeddings.
package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"webmemory/internal/domain"
)

// Stats summarizes one pipeline run.
type Stats struct {
	Visits  int
	Fetched int
	Skipped int
	Chunks  int
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	fetcher   *Fetcher
	chunker   domain.Chunker
	embedder  domain.Embedder
	store     domain.VectorStore
	batchSize int
	log       *zap.Logger

	titles  []string
	allText strings.Builder
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(fetcher *Fetcher, chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, batchSize int, log *zap.Logger) *Pipeline {
	if batchSize <= 0 {
		batchSize = 50
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		fetcher:   fetcher,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		log:       log,
	}
}

// Run fetches and indexes the given visits. Fetch failures are logged and
// skipped; the run fails only when nothing at all could be indexed.
func (p *Pipeline) Run(ctx context.Context, visits []Visit) (Stats, error) {
	stats := Stats{Visits: len(visits)}

	filtered := p.fetcher.FilterVisits(visits)
	stats.Skipped = len(visits) - len(filtered)
	p.log.Info("fetching pages",
		zap.Int("total", len(visits)),
		zap.Int("eligible", len(filtered)),
		zap.Int("batch_size", p.batchSize))

	var chunks []domain.Chunk
	for start := 0; start < len(filtered); start += p.batchSize {
		end := start + p.batchSize
		if end > len(filtered) {
			end = len(filtered)
		}
		for _, visit := range filtered[start:end] {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			page, err := p.fetcher.Fetch(ctx, visit.URL)
			if err != nil {
				p.log.Warn("skipping page", zap.String("url", visit.URL), zap.Error(err))
				stats.Skipped++
				continue
			}
			stats.Fetched++
			meta := p.recordMeta(visit, page)
			pageChunks, err := p.chunker.Chunk(hashString(visit.URL), page.Text, meta)
			if err != nil {
				return stats, fmt.Errorf("chunk %s: %w", visit.URL, err)
			}
			chunks = append(chunks, pageChunks...)
			p.titles = append(p.titles, meta.Title)
			p.allText.WriteString("\n")
			p.allText.WriteString(page.Text)
		}
		p.log.Info("batch done",
			zap.Int("batch", start/p.batchSize+1),
			zap.Int("fetched", stats.Fetched))
	}

	if len(chunks) == 0 {
		return stats, fmt.Errorf("no pages could be indexed")
	}
	stats.Chunks = len(chunks)

	corpus := make([]string, len(chunks))
	for i := range chunks {
		corpus[i] = chunks[i].Text
	}
	if err := p.embedder.Prepare(corpus); err != nil {
		return stats, fmt.Errorf("prepare embedder: %w", err)
	}

	vectors := make([][]float64, len(chunks))
	for i := range chunks {
		vec, err := p.embedder.Embed(chunks[i].Text)
		if err != nil {
			return stats, fmt.Errorf("embed chunk %s: %w", chunks[i].ID, err)
		}
		vectors[i] = vec
	}

	if err := p.store.Init(p.embedder.Dimension()); err != nil {
		return stats, fmt.Errorf("init vector store: %w", err)
	}
	if err := p.store.Clear(); err != nil {
		return stats, fmt.Errorf("clear vector store: %w", err)
	}
	if err := p.store.Upsert(chunks, vectors); err != nil {
		return stats, fmt.Errorf("upsert vectors: %w", err)
	}

	p.log.Info("ingestion complete",
		zap.Int("fetched", stats.Fetched),
		zap.Int("chunks", stats.Chunks))
	return stats, nil
}

// Titles returns the titles of all indexed pages, for profile generation.
func (p *Pipeline) Titles() []string { return p.titles }

// Text returns the concatenated text of all indexed pages.
func (p *Pipeline) Text() string { return p.allText.String() }

// recordMeta merges history metadata with what the fetch discovered. The
// history title wins; the page title fills gaps.
func (p *Pipeline) recordMeta(visit Visit, page Page) domain.Record {
	title := strings.TrimSpace(visit.Title)
	if title == "" {
		title = strings.TrimSpace(page.Title)
	}
	if title == "" {
		title = domain.NoTitle
	}
	return domain.Record{
		Title:  title,
		Source: visit.URL,
		Date:   visit.VisitedAt.Format("2006-01-02"),
	}
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
