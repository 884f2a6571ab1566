package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"webmemory/internal/domain"
)

// Tool names exposed to the model.
const (
	ToolSearchHistory = "search_history"
	ToolGetLinks      = "get_links"
)

const (
	msgNoHistory   = "No relevant browsing history found."
	msgNoLinks     = "No source links found for this query."
	msgNoUniqLinks = "No unique source links found."
	msgInvalidArgs = "Invalid tool arguments: expected a JSON object with a \"query\" string."
)

// Tools is the callable action layer between the model and the document
// store. Every tool is read-only, safe on empty input and never returns an
// error to the loop: retrieval failures degrade into a "not found" result.
type Tools struct {
	retriever domain.Retriever
	log       *zap.Logger
}

// NewTools builds the tool layer over a retriever.
func NewTools(retriever domain.Retriever, log *zap.Logger) *Tools {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tools{retriever: retriever, log: log}
}

// Specs describes the available tools to the model.
func (t *Tools) Specs() []domain.ToolSpec {
	queryParams := func(desc string) map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": desc,
				},
			},
			"required": []string{"query"},
		}
	}
	return []domain.ToolSpec{
		{
			Name:        ToolSearchHistory,
			Description: "Comprehensive search of the user's web browsing history INCLUDING DATES.",
			Parameters:  queryParams("Free-text search query over the browsing archive."),
		},
		{
			Name:        ToolGetLinks,
			Description: "Extract source URLs/domains from browsing history. Use ONLY when the user explicitly asks for links, sources, domains or websites.",
			Parameters:  queryParams("Free-text query to find sources for."),
		},
	}
}

// Execute runs the named tool and returns its textual result. An unknown
// tool name yields a recoverable message naming the valid tools instead of
// an error, so a hallucinated name cannot crash the loop.
func (t *Tools) Execute(ctx context.Context, call domain.ToolCall) string {
	switch call.Name {
	case ToolSearchHistory:
		query, ok := decodeQuery(call.Arguments)
		if !ok {
			return msgInvalidArgs
		}
		return t.SearchHistory(ctx, query)
	case ToolGetLinks:
		query, ok := decodeQuery(call.Arguments)
		if !ok {
			return msgInvalidArgs
		}
		return t.GetLinks(ctx, query)
	default:
		t.log.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return fmt.Sprintf("Unknown tool %q. Available tools: %s, %s.",
			call.Name, ToolSearchHistory, ToolGetLinks)
	}
}

// SearchHistory retrieves the most relevant records and renders them as a
// dated context block.
func (t *Tools) SearchHistory(ctx context.Context, query string) string {
	records := t.retrieve(ctx, query)
	if len(records) == 0 {
		return msgNoHistory
	}
	block, _ := FormatRecords(records)
	return block
}

// GetLinks retrieves records and emits one citation line per distinct
// domain, keeping the first (most relevant) occurrence of each.
func (t *Tools) GetLinks(ctx context.Context, query string) string {
	records := t.retrieve(ctx, query)
	if len(records) == 0 {
		return msgNoLinks
	}

	seen := make(map[string]struct{})
	var lines []string
	for _, rec := range records {
		if rec.Source == "" || rec.Source == domain.NoSource {
			continue
		}
		host, _ := DomainOf(rec.Source)
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		title := rec.Title
		if title == "" {
			title = domain.NoTitle
		}
		date := rec.Date
		if date == "" {
			date = domain.NoDate
		}
		lines = append(lines, fmt.Sprintf("• %s (%s): %s [%s]", title, date, rec.Source, host))
	}
	if len(lines) == 0 {
		return msgNoUniqLinks
	}
	return fmt.Sprintf("FOUND %d UNIQUE SOURCE LINKS:\n%s", len(lines), strings.Join(lines, "\n"))
}

// retrieve absorbs retriever failures: the loop must keep going even when
// the index is unreachable.
func (t *Tools) retrieve(ctx context.Context, query string) []domain.Record {
	records, err := t.retriever.Search(ctx, query)
	if err != nil {
		t.log.Warn("retrieval failed, degrading to empty result",
			zap.String("query", query), zap.Error(err))
		return nil
	}
	return records
}

func decodeQuery(raw string) (string, bool) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", false
	}
	return args.Query, true
}
