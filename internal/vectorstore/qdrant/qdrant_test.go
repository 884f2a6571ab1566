package qdrant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"webmemory/internal/domain"
)

func TestInitCreatesCollection(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/collections/user-history-data", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"result":true,"status":"ok"}`))
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, APIKey: "secret", Timeout: time.Second})
	require.NoError(t, s.Init(128))
	vectors := gotBody["vectors"].(map[string]any)
	require.Equal(t, float64(128), vectors["size"])
	require.Equal(t, "Cosine", vectors["distance"])
}

func TestUpsertSendsPayloads(t *testing.T) {
	var gotBody struct {
		Points []struct {
			ID      string         `json:"id"`
			Vector  []float64      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/archive/points", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("wait"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, Collection: "archive"})
	err := s.Upsert(
		[]domain.Chunk{{ID: "p:0", PageID: "p", Index: 0, Text: "hello", Title: "T", Source: "https://t.example.com", Date: "2024-01-02"}},
		[][]float64{{0.5, 0.5}},
	)
	require.NoError(t, err)
	require.Len(t, gotBody.Points, 1)
	require.NotEmpty(t, gotBody.Points[0].ID)
	require.Equal(t, "p:0", gotBody.Points[0].Payload["chunk_id"])
	require.Equal(t, "https://t.example.com", gotBody.Points[0].Payload["source"])
	require.Equal(t, "2024-01-02", gotBody.Points[0].Payload["date"])
}

func TestUpsertLengthMismatch(t *testing.T) {
	s := NewStorage(Config{URL: "http://unused.invalid"})
	require.Error(t, s.Upsert([]domain.Chunk{{ID: "a"}}, nil))
}

func TestSearchParsesPayloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/user-history-data/points/search", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, float64(3), req["limit"])
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.91,"payload":{"chunk_id":"c1","page_id":"p1","index":2,"text":"body","title":"A Title","source":"https://a.example.com","date":"2024-03-04"}},
			{"score":0.42,"payload":{"chunk_id":"c2","text":"other"}}
		]}`))
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL})
	results, err := s.Search([]float64{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "c1", results[0].Chunk.ID)
	require.Equal(t, 2, results[0].Chunk.Index)
	require.Equal(t, "A Title", results[0].Chunk.Title)
	require.Equal(t, "https://a.example.com", results[0].Chunk.Source)
	require.InDelta(t, 0.91, results[0].Score, 1e-9)
	require.Empty(t, results[1].Chunk.Source)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL})
	_, err := s.Search([]float64{1}, 1)
	require.Error(t, err)
}
