// Package llm provides content generator implementations.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/roelfdiedericks/switchboard/internal/logging"
	"github.com/roelfdiedericks/switchboard/internal/tokens"
)

// localExtras describes the capability extensions a local inference server
// adds on top of the plain OpenAI-compatible API: a model-listing path and
// a liveness-probe path, plus the remedy hint for probe failures.
// This is composition, not subclassing: the generator behaves identically
// for content generation with or without extras.
type localExtras struct {
	listPath  string // e.g. "/api/tags" (Ollama), "/v1/models" (LM Studio)
	probePath string // usually the same as listPath
	startHint string // e.g. "start it with 'ollama serve'"
}

// openaiGenerator implements Generator for OpenAI-compatible APIs.
// It serves remote compatible endpoints (including OAuth/cloud-shell hosted
// deployments carrying a bearer token) and, with extras attached, local
// Ollama and LM Studio servers.
type openaiGenerator struct {
	name    string
	kind    ProviderKind
	cfg     GeneratorConfig
	client  *openai.Client
	extras  *localExtras
	httpc   *http.Client // raw client for listing endpoints outside /v1
	baseURL string       // server root: configured base with any /v1 suffix stripped
}

// newOpenAIGenerator creates an OpenAI-compatible generator.
// The API key is optional for local servers; hosted kinds enforce it in the
// factory before this constructor runs.
func newOpenAIGenerator(cfg GeneratorConfig, extras *localExtras) (*openaiGenerator, error) {
	if cfg.Model == "" {
		return nil, ConfigError{Kind: cfg.Kind, Setting: "model"}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "not-needed" // placeholder for local servers that skip auth
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		// OpenAI-compatible APIs live under /v1
		v1 := cfg.BaseURL
		if !strings.HasSuffix(v1, "/v1") && !strings.HasSuffix(v1, "/v1/") {
			v1 = strings.TrimSuffix(v1, "/") + "/v1"
		}
		clientCfg.BaseURL = v1
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	// Listing paths are rooted at the server, not at /v1, so a base
	// URL configured with the /v1 suffix is normalized back off.
	root := strings.TrimSuffix(cfg.BaseURL, "/")
	root = strings.TrimSuffix(root, "/v1")

	g := &openaiGenerator{
		name:    string(cfg.Kind),
		kind:    cfg.Kind,
		cfg:     cfg,
		client:  openai.NewClientWithConfig(clientCfg),
		extras:  extras,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		baseURL: root,
	}

	L_debug("openai-compat generator created", "kind", cfg.Kind, "model", cfg.Model, "baseURL", cfg.BaseURL, "local", extras != nil)
	return g, nil
}

func (g *openaiGenerator) Name() string       { return g.name }
func (g *openaiGenerator) Kind() ProviderKind { return g.kind }
func (g *openaiGenerator) Model() string      { return g.cfg.Model }

// buildRequest converts provider-agnostic messages into a chat completion
// request, applying config-level sampling and per-call overrides.
func (g *openaiGenerator) buildRequest(messages []Message, opts *GenerateOptions) openai.ChatCompletionRequest {
	oaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaiMessages = append(oaiMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:            g.cfg.Model,
		Messages:         oaiMessages,
		Temperature:      g.cfg.Temperature,
		TopP:             g.cfg.TopP,
		FrequencyPenalty: g.cfg.FrequencyPenalty,
		PresencePenalty:  g.cfg.PresencePenalty,
		MaxTokens:        g.cfg.MaxTokens,
	}
	if opts != nil {
		if opts.Temperature > 0 {
			req.Temperature = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			req.MaxTokens = opts.MaxTokens
		}
	}
	return req
}

// Generate sends a non-streaming chat completion request.
func (g *openaiGenerator) Generate(ctx context.Context, messages []Message, opts *GenerateOptions) (*Response, error) {
	startTime := time.Now()
	req := g.buildRequest(messages, opts)

	L_debug("openai-compat: request started", "kind", g.kind, "model", g.cfg.Model, "messages", len(messages))

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		L_error("openai-compat: request failed", "kind", g.kind, "model", g.cfg.Model, "error", err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty choices")
	}

	choice := resp.Choices[0]
	L_debug("openai-compat: request completed", "kind", g.kind, "duration", time.Since(startTime).Round(time.Millisecond), "chars", len(choice.Message.Content))

	return &Response{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		StopReason:   string(choice.FinishReason),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Stream sends a streaming chat completion request, calling onDelta for
// each text chunk.
func (g *openaiGenerator) Stream(ctx context.Context, messages []Message, opts *GenerateOptions, onDelta func(delta string)) (*Response, error) {
	req := g.buildRequest(messages, opts)
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := g.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		L_error("openai-compat: stream creation failed", "kind", g.kind, "model", g.cfg.Model, "error", err)
		return nil, fmt.Errorf("stream error: %w", err)
	}
	defer stream.Close()

	response := &Response{Model: g.cfg.Model}
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			L_error("openai-compat: stream recv failed", "kind", g.kind, "model", g.cfg.Model, "error", err)
			return nil, fmt.Errorf("stream error: %w", err)
		}

		if chunk.Usage != nil {
			response.InputTokens = chunk.Usage.PromptTokens
			response.OutputTokens = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta != "" {
			response.Text += delta
			if onDelta != nil {
				onDelta(delta)
			}
		}
		if chunk.Choices[0].FinishReason != "" {
			response.StopReason = string(chunk.Choices[0].FinishReason)
		}
	}

	return response, nil
}

// CountTokens estimates tokens locally with tiktoken. Compatible servers
// expose no counting endpoint, and the estimate only gates compression.
func (g *openaiGenerator) CountTokens(_ context.Context, messages []Message) (int, error) {
	est := tokens.Get()
	total := 0
	for _, m := range messages {
		total += est.CountWithOverhead(m.Content, tokens.MessageOverhead)
	}
	return total, nil
}

// Embed generates an embedding using the /v1/embeddings endpoint.
func (g *openaiGenerator) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(g.cfg.Model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding returned no data")
	}

	embedding := make([]float32, len(resp.Data[0].Embedding))
	copy(embedding, resp.Data[0].Embedding)
	return embedding, nil
}

// listingResponse covers both listing shapes we talk to: OpenAI-style
// {"data":[{"id":...}]} and Ollama's native {"models":[{"name":...}]}.
type listingResponse struct {
	Data []struct {
		ID               string `json:"id"`
		ContextLength    int    `json:"context_length"`     // OpenRouter
		MaxContextLength int    `json:"max_context_length"` // LM Studio
	} `json:"data"`
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels queries the provider's model-listing endpoint. Only available
// when the generator was built with local extras.
func (g *openaiGenerator) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if g.extras == nil || g.extras.listPath == "" {
		return nil, ErrNotSupported{Provider: g.name, Operation: "model listing"}
	}

	url := g.baseURL + g.extras.listPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create listing request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list models: status %d: %s", resp.StatusCode, string(body))
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	var models []ModelInfo
	for _, m := range listing.Data {
		if m.ID == "" {
			continue
		}
		ctxLen := m.ContextLength
		if ctxLen == 0 {
			ctxLen = m.MaxContextLength
		}
		models = append(models, ModelInfo{ID: m.ID, ContextTokens: ctxLen})
	}
	for _, m := range listing.Models {
		if m.Name != "" {
			models = append(models, ModelInfo{ID: m.Name})
		}
	}

	L_debug("openai-compat: listed models", "kind", g.kind, "count", len(models))
	return models, nil
}
