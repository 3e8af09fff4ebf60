package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	openAIBaseURL       = "https://api.openai.com/v1"
	mistralBaseURL      = "https://api.mistral.ai/v1"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultMistralModel = "mistral-large-latest"
)

// OpenAIGateway speaks the chat-completions protocol shared by OpenAI and
// Mistral. The base URL selects the provider; everything else is identical
// on the wire.
type OpenAIGateway struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
}

// Option customizes the gateway.
type Option func(*OpenAIGateway)

// WithHTTPClient overrides the default HTTP client (useful for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(g *OpenAIGateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithBaseURL points the gateway at a different chat-completions endpoint.
func WithBaseURL(base string) Option {
	return func(g *OpenAIGateway) {
		base = strings.TrimSpace(base)
		if base != "" {
			g.baseURL = strings.TrimRight(base, "/")
		}
	}
}

func NewOpenAIGateway(apiKey, model string, temperature float64, maxTokens int, timeout time.Duration, logger *zap.Logger, opts ...Option) *OpenAIGateway {
	if model == "" {
		model = defaultOpenAIModel
	}
	g := &OpenAIGateway{
		apiKey:      apiKey,
		baseURL:     openAIBaseURL,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewMistralGateway is the Mistral flavor of the same protocol.
func NewMistralGateway(apiKey, model string, temperature float64, maxTokens int, timeout time.Duration, logger *zap.Logger, opts ...Option) *OpenAIGateway {
	if model == "" {
		model = defaultMistralModel
	}
	opts = append([]Option{WithBaseURL(mistralBaseURL)}, opts...)
	return NewOpenAIGateway(apiKey, model, temperature, maxTokens, timeout, logger, opts...)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *OpenAIGateway) Invoke(ctx context.Context, messages []Message) (string, Usage, error) {
	reqBody := chatRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", Usage{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", Usage{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("chat completion call failed", zap.Error(err))
		return "", Usage{}, fmt.Errorf("chat completion error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Usage{}, fmt.Errorf("reading response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", Usage{}, fmt.Errorf("parsing chat response: %w", err)
	}

	if chatResp.Error != nil {
		g.logger.Error("chat completion api error", zap.String("message", chatResp.Error.Message))
		return "", Usage{}, fmt.Errorf("chat completion error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", Usage{}, fmt.Errorf("chat completion returned status %d", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("no choices in chat response")
	}

	usage := Usage{}
	if chatResp.Usage != nil {
		usage.InputTokens = chatResp.Usage.PromptTokens
		usage.OutputTokens = chatResp.Usage.CompletionTokens
	}

	content := chatResp.Choices[0].Message.Content
	g.logger.Debug("chat completion response",
		zap.Int("size", len(content)),
		zap.Int64("tokens_in", usage.InputTokens),
		zap.Int64("tokens_out", usage.OutputTokens))
	return content, usage, nil
}
