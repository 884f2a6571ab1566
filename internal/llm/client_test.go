package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"webmemory/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_API_KEY", "test-key")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_API_KEY", Model: "gpt-4o"})
	require.NoError(t, err)
	return c, srv
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("EMPTY_KEY_ENV", "")
	_, err := NewClient(Config{APIKeyEnv: "EMPTY_KEY_ENV"})
	require.Error(t, err)
}

func TestCompleteFinalMessage(t *testing.T) {
	var gotReq chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"answer\":\"done\"}"},"finish_reason":"stop"}]}`))
	})

	msg, err := client.Complete(context.Background(),
		[]domain.Message{
			{Role: domain.RoleSystem, Content: "instructions"},
			{Role: domain.RoleUser, Content: "question"},
		},
		[]domain.ToolSpec{{Name: "search_history", Description: "search", Parameters: map[string]any{"type": "object"}}},
	)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAssistant, msg.Role)
	require.Empty(t, msg.ToolCalls)
	require.Contains(t, msg.Content, "done")

	// The request carried the tool registry, pinned sampling and the
	// answer schema.
	require.Equal(t, float64(0), gotReq.Temperature)
	require.Len(t, gotReq.Tools, 1)
	require.Equal(t, "search_history", gotReq.Tools[0].Function.Name)
	require.Equal(t, "auto", gotReq.ToolChoice)
	require.NotNil(t, gotReq.ResponseFormat)
	require.Len(t, gotReq.Messages, 2)
}

func TestCompleteToolCall(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[{"id":"call-7","type":"function","function":{"name":"search_history","arguments":"{\"query\":\"rag patterns\"}"}}]},"finish_reason":"tool_calls"}]}`))
	})

	msg, err := client.Complete(context.Background(),
		[]domain.Message{{Role: domain.RoleUser, Content: "q"}}, nil)
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	require.Equal(t, "call-7", msg.ToolCalls[0].ID)
	require.Equal(t, "search_history", msg.ToolCalls[0].Name)
	require.JSONEq(t, `{"query":"rag patterns"}`, msg.ToolCalls[0].Arguments)
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"answer\":\"ok\"}"}}]}`))
	})

	_, err := client.Complete(context.Background(),
		[]domain.Message{{Role: domain.RoleUser, Content: "q"}}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
}

func TestCompleteSurfacesClientErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Complete(context.Background(),
		[]domain.Message{{Role: domain.RoleUser, Content: "q"}}, nil)
	require.Error(t, err)
}

func TestToWireCarriesToolPlumbing(t *testing.T) {
	msgs := toWire([]domain.Message{
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "c1", Name: "search_history", Arguments: `{"query":"x"}`}}},
		{Role: domain.RoleTool, Content: "result", ToolCallID: "c1"},
	})
	require.Len(t, msgs[0].ToolCalls, 1)
	require.Equal(t, "function", msgs[0].ToolCalls[0].Type)
	require.Equal(t, "c1", msgs[1].ToolCallID)
}
