package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"webmemory/internal/domain"
)

type fakeAsker struct {
	answer   string
	err      error
	threadID string
	question string
}

func (f *fakeAsker) Ask(_ context.Context, threadID, question string) (domain.Answer, error) {
	f.threadID = threadID
	f.question = question
	if f.err != nil {
		return domain.Answer{}, f.err
	}
	return domain.Answer{Text: f.answer}, nil
}

func doAsk(t *testing.T, asker *fakeAsker, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(asker, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	h.Router().ServeHTTP(rec, req)
	return rec
}

func TestAskReturnsAnswerAndThread(t *testing.T) {
	asker := &fakeAsker{answer: "you browsed three Go blogs"}
	rec := doAsk(t, asker, `{"question":"what did I read?","thread_id":"t-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "you browsed three Go blogs", resp.Answer)
	require.Equal(t, "t-1", resp.ThreadID)
	require.Equal(t, "t-1", asker.threadID)
	require.Equal(t, "what did I read?", asker.question)
}

func TestAskGeneratesThreadID(t *testing.T) {
	asker := &fakeAsker{answer: "ok"}
	rec := doAsk(t, asker, `{"question":"hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ThreadID)
	require.Equal(t, resp.ThreadID, asker.threadID)
}

func TestAskRejectsMissingQuestion(t *testing.T) {
	rec := doAsk(t, &fakeAsker{}, `{"question":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskRejectsInvalidBody(t *testing.T) {
	rec := doAsk(t, &fakeAsker{}, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskHidesInternalErrors(t *testing.T) {
	asker := &fakeAsker{err: errors.New("retrieved snippet: secret medical page")}
	rec := doAsk(t, asker, `{"question":"anything"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "secret")
	require.Contains(t, rec.Body.String(), "an internal error occurred")
}

func TestHealthz(t *testing.T) {
	h := NewHandler(&fakeAsker{}, nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
