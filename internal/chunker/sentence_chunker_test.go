package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"webmemory/internal/domain"
)

func TestChunkWindowsWithOverlap(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	text := "One. Two. Three. Four."

	chunks, err := c.Chunk("p1", text, domain.Record{})
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Equal(t, "One. Two.", chunks[0].Text)
	require.Equal(t, "Two. Three.", chunks[1].Text)
	require.Equal(t, "Three. Four.", chunks[2].Text)
}

func TestChunkCopiesMetadata(t *testing.T) {
	c := NewSentenceChunker(1, 0)
	meta := domain.Record{Title: "A Page", Source: "https://a.example.com/x", Date: "2024-05-01"}

	chunks, err := c.Chunk("page-9", "First. Second.", meta)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for i, ch := range chunks {
		require.Equal(t, "A Page", ch.Title)
		require.Equal(t, "https://a.example.com/x", ch.Source)
		require.Equal(t, "2024-05-01", ch.Date)
		require.Equal(t, "page-9", ch.PageID)
		require.Equal(t, i, ch.Index)
	}
	require.Equal(t, "page-9:0", chunks[0].ID)
	require.Equal(t, "page-9:1", chunks[1].ID)
}

func TestChunkEmptyText(t *testing.T) {
	c := NewSentenceChunker(3, 1)
	chunks, err := c.Chunk("p", "   \n  ", domain.Record{})
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestChunkTextWithoutTerminators(t *testing.T) {
	c := NewSentenceChunker(3, 0)
	chunks, err := c.Chunk("p", "a fragment with no punctuation", domain.Record{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "a fragment with no punctuation", chunks[0].Text)
}

func TestChunkCoversAllSentences(t *testing.T) {
	c := NewSentenceChunker(4, 2)
	var sb strings.Builder
	for i := 0; i < 15; i++ {
		sb.WriteString("Sentence number ")
		sb.WriteString(strings.Repeat("x", i+1))
		sb.WriteString(". ")
	}

	chunks, err := c.Chunk("p", sb.String(), domain.Record{})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	joined := ""
	for _, ch := range chunks {
		joined += ch.Text + " "
	}
	require.Contains(t, joined, strings.Repeat("x", 15))
}
