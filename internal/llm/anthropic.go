package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicGateway invokes the Anthropic Messages API. System blocks are
// sent with ephemeral cache control so the taxonomy prompt is cached across
// classifications.
type AnthropicGateway struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

func NewAnthropicGateway(apiKey, model string, maxTokens int, logger *zap.Logger) *AnthropicGateway {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicGateway{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
		logger:    logger,
	}
}

func (g *AnthropicGateway) Invoke(ctx context.Context, messages []Message) (string, Usage, error) {
	systemTexts, rest := SplitSystem(messages)

	var system []anthropic.TextBlockParam
	for _, text := range systemTexts {
		system = append(system, anthropic.TextBlockParam{
			Text:         text,
			CacheControl: anthropic.NewCacheControlEphemeralParam(),
		})
	}

	var params []anthropic.MessageParam
	for _, m := range rest {
		params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    system,
		Messages:  params,
	})
	if err != nil {
		g.logger.Error("anthropic call failed", zap.Error(err))
		return "", Usage{}, fmt.Errorf("Anthropic API error: %w", err)
	}

	usage := Usage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			g.logger.Debug("anthropic response",
				zap.Int("size", len(block.Text)),
				zap.Int64("tokens_in", usage.InputTokens),
				zap.Int64("tokens_out", usage.OutputTokens),
				zap.Int64("cache_read", usage.CacheReadInputTokens))
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text content in Anthropic response")
}
