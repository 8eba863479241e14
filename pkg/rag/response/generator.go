package response

import (
	"context"
	"log"
	"time"

	"pdf-chat-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.7
	DefaultTimeout     = 60 * time.Second
)

// ContextBuilder produces the document context for a question.
type ContextBuilder interface {
	BuildContext(ctx context.Context, documentID uuid.UUID, question string) string
}

// ChatResponse is the assistant reply. Usage is nil when the call failed or
// the provider reported none.
type ChatResponse struct {
	Content string     `json:"content"`
	Usage   *llm.Usage `json:"usage,omitempty"`
}

type Generator struct {
	llmProvider llm.LLMProvider
	contexts    ContextBuilder
	model       string
	temperature float64
	timeout     time.Duration
	logger      *log.Logger
}

type GeneratorOption func(*Generator)

func WithModel(model string) GeneratorOption {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

func WithTemperature(temp float64) GeneratorOption {
	return func(g *Generator) { g.temperature = temp }
}

func WithTimeout(timeout time.Duration) GeneratorOption {
	return func(g *Generator) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

func NewGenerator(llmProvider llm.LLMProvider, contexts ContextBuilder, logger *log.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	g := &Generator{
		llmProvider: llmProvider,
		contexts:    contexts,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate answers the latest user question in history against the document.
// Provider failures are turned into reply text; no error is ever returned.
func (g *Generator) Generate(ctx context.Context, history []llm.Message, documentID uuid.UUID) ChatResponse {
	question := latestQuestion(history)
	pdfContext := g.contexts.BuildContext(ctx, documentID, question)

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt(pdfContext)})
	messages = append(messages, history...)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	completion, err := g.llmProvider.Complete(callCtx, messages,
		llm.WithModel(g.model),
		llm.WithTemperature(g.temperature),
	)
	if err != nil {
		g.logger.Printf("[ERROR] LLM generation failed for document %s (kind: %s): %v", documentID, llm.KindOf(err), err)
		return ChatResponse{Content: userFacingError(err)}
	}

	if completion.Content == "" {
		return ChatResponse{Content: msgEmptyCompletion, Usage: completion.Usage}
	}
	return ChatResponse{Content: completion.Content, Usage: completion.Usage}
}

// TestConnection reports whether the provider answers a minimal prompt.
func (g *Generator) TestConnection(ctx context.Context) bool {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	content, err := g.llmProvider.Generate(callCtx, "Hello",
		llm.WithModel(g.model),
		llm.WithMaxTokens(10),
	)
	if err != nil {
		g.logger.Printf("[ERROR] LLM connection test failed (kind: %s): %v", llm.KindOf(err), err)
		return false
	}
	return content != ""
}

func latestQuestion(history []llm.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser {
			return history[i].Content
		}
	}
	return ""
}
