package domain

import "context"

// Sentinel metadata values used when the ingestion pipeline had nothing better.
const (
	NoTitle  = "No Title"
	NoSource = "No Source"
	NoDate   = "No date available"
)

// Record is one retrieved unit of browsing content together with the
// metadata captured at ingestion time. It is immutable once retrieved.
type Record struct {
	Content string
	Title   string
	Source  string
	Date    string
}

// Roles of conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model-issued request to execute a named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object
}

// Message is one turn in a conversation thread. Tool-originated messages
// carry the ToolCallID of the request that produced them.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// Answer is the structured final output of the answering loop.
type Answer struct {
	Text string `json:"answer"`
}

// Retriever returns the top matching records for a free-text query,
// ordered by descending relevance. An empty result is not an error.
type Retriever interface {
	Search(ctx context.Context, query string) ([]Record, error)
}

// ChatModel is a chat-completion provider. It receives the full message
// history plus tool definitions and returns either a tool-call request or
// a final assistant message.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message, tools []ToolSpec) (Message, error)
}

// ToolSpec describes one callable tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ThreadStore keeps per-thread ordered message history. Messages are
// append-only; implementations must serialize writers of the same thread.
type ThreadStore interface {
	Append(threadID string, msgs ...Message)
	Messages(threadID string) []Message
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// Chunk is an indexable slice of a fetched page, carrying the page metadata
// so search results can be rendered with title, source and visit date.
type Chunk struct {
	ID     string
	PageID string
	Index  int
	Text   string
	Title  string
	Source string
	Date   string
}

// SearchResult is a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// VectorStore persists vectors and supports similarity search.
type VectorStore interface {
	Init(dimension int) error
	Upsert(chunks []Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]SearchResult, error)
	Clear() error
}

// Chunker splits page text into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(pageID string, text string, meta Record) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
