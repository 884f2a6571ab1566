package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"webmemory/internal/domain"
)

// SentenceChunker splits page text into sentence-based chunks with overlap.
// Page metadata (title, source, date) is copied onto every chunk so search
// results can be rendered without a second lookup.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

// NewSentenceChunker creates a chunker. sentencesPerChunk defaults to 5.
func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits text into overlapping sentence windows tagged with the page
// metadata. Empty text yields no chunks.
func (c *SentenceChunker) Chunk(pageID string, text string, meta domain.Record) ([]domain.Chunk, error) {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil, nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var chunks []domain.Chunk
	i := 0
	idx := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, domain.Chunk{
			ID:     pageID + ":" + strconv.Itoa(idx),
			PageID: pageID,
			Index:  idx,
			Text:   strings.Join(sentences[i:end], " "),
			Title:  meta.Title,
			Source: meta.Source,
			Date:   meta.Date,
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		if i < 0 {
			i = 0
		}
		idx++
	}
	return chunks, nil
}
