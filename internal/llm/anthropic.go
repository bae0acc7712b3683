// Package llm provides content generator implementations.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	. "github.com/roelfdiedericks/switchboard/internal/logging"
)

// anthropicGenerator implements Generator for Anthropic's Claude API,
// serving the API-key hosted provider kind.
type anthropicGenerator struct {
	name   string
	cfg    GeneratorConfig
	client *anthropic.Client
}

// newAnthropicGenerator creates an Anthropic generator. An API key is
// required; a custom BaseURL is honored for Anthropic-compatible APIs.
func newAnthropicGenerator(cfg GeneratorConfig) (*anthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ConfigError{Kind: cfg.Kind, Setting: "ANTHROPIC_API_KEY"}
	}
	if cfg.Model == "" {
		return nil, ConfigError{Kind: cfg.Kind, Setting: "model"}
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	L_debug("anthropic generator created", "model", cfg.Model, "baseURL", cfg.BaseURL)

	return &anthropicGenerator{
		name:   string(cfg.Kind),
		cfg:    cfg,
		client: &client,
	}, nil
}

func (g *anthropicGenerator) Name() string       { return g.name }
func (g *anthropicGenerator) Kind() ProviderKind { return g.cfg.Kind }
func (g *anthropicGenerator) Model() string      { return g.cfg.Model }

// buildParams converts messages into Anthropic request params. System
// messages become the params-level system prompt.
func (g *anthropicGenerator) buildParams(messages []Message, opts *GenerateOptions) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var converted []anthropic.MessageParam

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case RoleUser:
			if m.Content != "" {
				converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		case RoleAssistant:
			if m.Content != "" {
				converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			}
		}
	}

	maxTokens := g.cfg.MaxTokens
	if opts != nil && opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: int64(maxTokens),
		Messages:  converted,
	}
	if len(system) > 0 {
		params.System = system
	}

	temperature := g.cfg.Temperature
	if opts != nil && opts.Temperature > 0 {
		temperature = opts.Temperature
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(float64(temperature))
	}
	if g.cfg.TopP > 0 {
		params.TopP = anthropic.Float(float64(g.cfg.TopP))
	}
	if g.cfg.TopK > 0 {
		params.TopK = anthropic.Int(int64(g.cfg.TopK))
	}

	return params
}

// Generate sends a non-streaming message request.
func (g *anthropicGenerator) Generate(ctx context.Context, messages []Message, opts *GenerateOptions) (*Response, error) {
	startTime := time.Now()
	params := g.buildParams(messages, opts)

	L_debug("anthropic: request started", "model", g.cfg.Model, "messages", len(messages))

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		L_error("anthropic: request failed", "model", g.cfg.Model, "error", err)
		return nil, fmt.Errorf("message request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(b.Text)
		}
	}

	L_debug("anthropic: request completed", "model", g.cfg.Model, "duration", time.Since(startTime).Round(time.Millisecond))

	return &Response{
		Text:         text.String(),
		Model:        string(msg.Model),
		StopReason:   string(msg.StopReason),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

// Stream sends a streaming message request, calling onDelta per text chunk.
func (g *anthropicGenerator) Stream(ctx context.Context, messages []Message, opts *GenerateOptions, onDelta func(delta string)) (*Response, error) {
	params := g.buildParams(messages, opts)

	stream := g.client.Messages.NewStreaming(ctx, params)
	response := &Response{Model: g.cfg.Model}
	message := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulate error: %w", err)
		}

		if ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
				response.Text += delta.Text
				if onDelta != nil {
					onDelta(delta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		L_error("anthropic: stream failed", "model", g.cfg.Model, "error", err)
		return nil, fmt.Errorf("stream error: %w", err)
	}

	response.StopReason = string(message.StopReason)
	response.InputTokens = int(message.Usage.InputTokens)
	response.OutputTokens = int(message.Usage.OutputTokens)
	return response, nil
}

// CountTokens uses the provider's token-counting endpoint.
func (g *anthropicGenerator) CountTokens(ctx context.Context, messages []Message) (int, error) {
	params := g.buildParams(messages, nil)

	count, err := g.client.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
		Model:    params.Model,
		Messages: params.Messages,
		System:   anthropic.MessageCountTokensParamsSystemUnion{OfTextBlockArray: params.System},
	})
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return int(count.InputTokens), nil
}

// Embed is not supported by Anthropic.
func (g *anthropicGenerator) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrNotSupported{Provider: g.name, Operation: "embeddings"}
}
