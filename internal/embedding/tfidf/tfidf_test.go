package tfidf

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"golang goroutines channels concurrency",
	"golang generics type parameters",
	"sourdough bread starter fermentation",
}

func preparedEmbedder(t *testing.T) *Embedder {
	t.Helper()
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	return e
}

func TestPrepareRequiresCorpus(t *testing.T) {
	e := NewEmbedder()
	require.Error(t, e.Prepare(nil))
}

func TestEmbedBeforePrepareFails(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed("anything")
	require.Error(t, err)
}

func TestEmbedVectorsAreNormalized(t *testing.T) {
	e := preparedEmbedder(t)
	vec, err := e.Embed("golang channels concurrency")
	require.NoError(t, err)
	require.Len(t, vec, e.Dimension())

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedSimilarityOrdering(t *testing.T) {
	e := preparedEmbedder(t)
	query, err := e.Embed("goroutines and channels")
	require.NoError(t, err)

	docVec := func(text string) []float64 {
		v, err := e.Embed(text)
		require.NoError(t, err)
		return v
	}
	cos := func(a, b []float64) float64 {
		sum := 0.0
		for i := range a {
			sum += a[i] * b[i]
		}
		return sum
	}

	concurrency := cos(query, docVec(corpus[0]))
	baking := cos(query, docVec(corpus[2]))
	require.Greater(t, concurrency, baking)
}

func TestEmbedUnknownTokensYieldZeroVector(t *testing.T) {
	e := preparedEmbedder(t)
	vec, err := e.Embed("quantum chromodynamics")
	require.NoError(t, err)
	for _, v := range vec {
		require.Zero(t, v)
	}
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tfidf.gob")
	e := preparedEmbedder(t)
	want, err := e.Embed("golang goroutines")
	require.NoError(t, err)
	require.NoError(t, e.SaveFile(path))

	restored := NewEmbedder()
	require.NoError(t, restored.LoadFile(path))
	require.Equal(t, e.Dimension(), restored.Dimension())
	got, err := restored.Embed("golang goroutines")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSaveFileRequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	require.Error(t, e.SaveFile(filepath.Join(t.TempDir(), "tfidf.gob")))
}
