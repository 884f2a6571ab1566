package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"webmemory/internal/domain"
)

var (
	// ErrSchemaViolation reports a final model response that does not
	// conform to the {"answer": string} contract.
	ErrSchemaViolation = errors.New("model response does not match the answer schema")
	// ErrMaxSteps reports that the loop hit its step ceiling without the
	// model ever producing a final answer.
	ErrMaxSteps = errors.New("step limit reached without a final answer")
)

const defaultMaxSteps = 8

// Agent runs the retrieval-augmented answering loop: it feeds the thread's
// message history to the model, services at most one tool call per model
// turn, and stops when the model emits a final structured answer or the
// step ceiling is reached.
type Agent struct {
	model    domain.ChatModel
	tools    *Tools
	threads  domain.ThreadStore
	log      *zap.Logger
	maxSteps int
	system   string

	locks sync.Map // thread id -> *sync.Mutex
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxSteps bounds the number of model turns per question.
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithLogger sets the agent logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Agent) {
		if log != nil {
			a.log = log
		}
	}
}

// New builds an Agent. The profile text is injected verbatim into the
// system prompt.
func New(model domain.ChatModel, tools *Tools, threads domain.ThreadStore, profile string, opts ...Option) *Agent {
	a := &Agent{
		model:    model,
		tools:    tools,
		threads:  threads,
		log:      zap.NewNop(),
		maxSteps: defaultMaxSteps,
		system:   SystemPrompt(profile),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers one user question within the given thread. It blocks until
// the model produces a final answer, the step ceiling is hit, or ctx is
// done. Calls against the same thread are serialized; different threads
// may run concurrently.
func (a *Agent) Ask(ctx context.Context, threadID, question string) (domain.Answer, error) {
	mu := a.threadLock(threadID)
	mu.Lock()
	defer mu.Unlock()

	a.threads.Append(threadID, domain.Message{Role: domain.RoleUser, Content: question})

	for step := 1; step <= a.maxSteps; step++ {
		history := a.threads.Messages(threadID)
		messages := make([]domain.Message, 0, len(history)+1)
		messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: a.system})
		messages = append(messages, history...)

		resp, err := a.model.Complete(ctx, messages, a.tools.Specs())
		if err != nil {
			return domain.Answer{}, fmt.Errorf("model call: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			answer, err := parseAnswer(resp.Content)
			if err != nil {
				return domain.Answer{}, err
			}
			a.threads.Append(threadID, domain.Message{Role: domain.RoleAssistant, Content: answer.Text})
			a.log.Debug("answer produced",
				zap.String("thread", threadID), zap.Int("steps", step))
			return answer, nil
		}

		// At most one tool call is serviced per turn; extras are dropped.
		call := resp.ToolCalls[0]
		if len(resp.ToolCalls) > 1 {
			a.log.Warn("model requested multiple tool calls, servicing the first",
				zap.String("thread", threadID), zap.Int("requested", len(resp.ToolCalls)))
			resp.ToolCalls = resp.ToolCalls[:1]
		}
		a.threads.Append(threadID, resp)

		result := a.tools.Execute(ctx, call)
		a.threads.Append(threadID, domain.Message{
			Role:       domain.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
		})
		a.log.Debug("tool executed",
			zap.String("thread", threadID),
			zap.String("tool", call.Name),
			zap.Int("step", step))
	}

	return domain.Answer{}, fmt.Errorf("%w (max %d)", ErrMaxSteps, a.maxSteps)
}

func (a *Agent) threadLock(threadID string) *sync.Mutex {
	v, _ := a.locks.LoadOrStore(threadID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// parseAnswer validates the final model output against the answer schema.
// A fenced JSON block is tolerated; anything that does not yield a
// non-empty "answer" field is a schema violation.
func parseAnswer(content string) (domain.Answer, error) {
	raw := strings.TrimSpace(content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var out struct {
		Answer *string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if out.Answer == nil {
		return domain.Answer{}, fmt.Errorf("%w: missing answer field", ErrSchemaViolation)
	}
	return domain.Answer{Text: *out.Answer}, nil
}
