package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Compile-time interface check
var _ Completer = (*GroqClient)(nil)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultTimeout bounds a single completion call. No retries.
	DefaultTimeout = 40 * time.Second

	systemPrompt = "You are a financial assistant for Stock In."

	maxTokens   = 800
	temperature = 0.3
)

// ChatService defines the interface for making chat completion API calls.
// This abstraction enables testing without calling the real provider.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// GroqClient implements Completer against Groq's OpenAI-compatible API.
type GroqClient struct {
	chat    ChatService
	model   openai.ChatModel
	timeout time.Duration
}

// NewGroqClient creates a completion client. An empty apiKey is allowed;
// every Ask then degrades with a configuration placeholder.
func NewGroqClient(apiKey, model, baseURL string, timeout time.Duration) *GroqClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var chat ChatService
	if apiKey != "" {
		client := openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
		)
		chat = client.Chat.Completions
	}

	return &GroqClient{
		chat:    chat,
		model:   openai.ChatModel(model),
		timeout: timeout,
	}
}

// Ask builds the fixed prompt template around company/tab/question and fires
// a single bounded completion call. Any failure degrades into a placeholder
// answer rather than an error.
func (c *GroqClient) Ask(ctx context.Context, company, tab, question string) Answer {
	if c.chat == nil {
		return Answer{
			Text:     "[research unavailable: no completion API key configured]",
			Degraded: true,
			Reason:   "missing API key",
		}
	}

	prompt := fmt.Sprintf(
		"You are a financial assistant. Provide concise, factual information about %s focusing on %s. Question: %s",
		company, tab, question,
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		}),
		Model:       openai.F(c.model),
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		slog.Warn("completion call failed", "model", string(c.model), "error", err)
		return Answer{
			Text:     fmt.Sprintf("[research provider error: %v]", err),
			Degraded: true,
			Reason:   err.Error(),
		}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Answer{
			Text:     "[no content returned]",
			Degraded: true,
			Reason:   "empty completion",
		}
	}

	return Answer{Text: resp.Choices[0].Message.Content}
}

// ModelName returns the configured completion model.
func (c *GroqClient) ModelName() string {
	return string(c.model)
}
