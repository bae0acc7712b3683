package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	. "github.com/roelfdiedericks/switchboard/internal/logging"
)

// DefaultContextTokens is the context window assumed when a provider
// cannot report one. Discovery never fails hard: any lookup error
// falls back to this value.
const DefaultContextTokens = 32768

// contextTable maps model-name substrings to known context windows,
// ordered most specific first. First match wins.
var contextTable = []struct {
	substr string
	tokens int
}{
	{"claude-opus-4", 200000},
	{"claude-sonnet-4", 200000},
	{"claude-haiku-4", 200000},
	{"claude-3-5", 200000},
	{"claude", 200000},
	{"gpt-4o-mini", 128000},
	{"gpt-4o", 128000},
	{"gpt-4-turbo", 128000},
	{"gpt-4.1", 1000000},
	{"gpt-4", 8192},
	{"gpt-3.5-turbo-16k", 16384},
	{"gpt-3.5", 16384},
	{"o3-mini", 200000},
	{"o3", 200000},
	{"o1", 200000},
	{"deepseek-r1", 131072},
	{"deepseek", 65536},
	{"qwen2.5-coder", 32768},
	{"qwen2.5", 131072},
	{"qwen", 32768},
	{"llama-3.3", 131072},
	{"llama3.3", 131072},
	{"llama-3.1", 131072},
	{"llama3.1", 131072},
	{"llama3", 8192},
	{"llama", 8192},
	{"mistral-large", 131072},
	{"mistral", 32768},
	{"mixtral", 32768},
	{"gemma2", 8192},
	{"gemma", 8192},
	{"phi-4", 16384},
	{"phi", 16384},
	{"codestral", 32768},
	{"gemini-1.5", 1000000},
	{"gemini", 1000000},
}

// ResolveContextLength determines a model's context window in tokens.
// Local servers are queried live; everything else comes from the
// static table. Returns DefaultContextTokens when nothing matches.
func ResolveContextLength(ctx context.Context, kind ProviderKind, model, baseURL string) int {
	switch kind {
	case KindOllama:
		// Live lookup or the default; the static table is for models
		// this process cannot ask about.
		if n := ollamaContextLength(ctx, baseURL, model); n > 0 {
			return n
		}
		L_debug("context length unknown, using default", "model", model, "default", DefaultContextTokens)
		return DefaultContextTokens
	case KindLMStudio:
		if n := lmstudioContextLength(ctx, baseURL, model); n > 0 {
			return n
		}
		L_debug("context length unknown, using default", "model", model, "default", DefaultContextTokens)
		return DefaultContextTokens
	case KindOpenAICompat:
		// Aggregators front many upstream models; the listing endpoint
		// reports per-model context lengths.
		if isAggregator(baseURL) {
			if n := lmstudioContextLength(ctx, baseURL, model); n > 0 {
				return n
			}
		}
	}

	if n := lookupContextTable(model); n > 0 {
		return n
	}

	L_debug("context length unknown, using default", "model", model, "default", DefaultContextTokens)
	return DefaultContextTokens
}

func isAggregator(baseURL string) bool {
	return strings.Contains(baseURL, "openrouter")
}

func lookupContextTable(model string) int {
	lower := strings.ToLower(model)
	for _, entry := range contextTable {
		if strings.Contains(lower, entry.substr) {
			L_trace("context length from table", "model", model, "match", entry.substr, "tokens", entry.tokens)
			return entry.tokens
		}
	}
	return 0
}

// ollamaContextLength queries Ollama's native show endpoint. The
// context window lives in model_info under an architecture-prefixed
// key like "llama.context_length", so keys are scanned by suffix.
func ollamaContextLength(ctx context.Context, baseURL, model string) int {
	base := strings.TrimSuffix(baseURL, "/")
	base = strings.TrimSuffix(base, "/v1")

	body, err := json.Marshal(map[string]string{"model": model})
	if err != nil {
		return 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/show", bytes.NewReader(body))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		L_debug("ollama show failed", "model", model, "error", err)
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0
	}

	var show struct {
		ModelInfo     map[string]any `json:"model_info"`
		ContextLength int            `json:"context_length"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&show); err != nil {
		L_debug("ollama show decode failed", "model", model, "error", err)
		return 0
	}

	for key, value := range show.ModelInfo {
		if strings.Contains(key, "context_length") {
			if n, ok := value.(float64); ok && n > 0 {
				L_debug("context length from ollama", "model", model, "tokens", int(n))
				return int(n)
			}
		}
	}
	return show.ContextLength
}

// lmstudioContextLength queries an OpenAI-style model listing and
// matches the model id exactly.
func lmstudioContextLength(ctx context.Context, baseURL, model string) int {
	base := strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/models", nil)
	if err != nil {
		return 0
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		L_debug("model listing failed", "baseURL", baseURL, "error", err)
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		L_debug("model listing decode failed", "baseURL", baseURL, "error", err)
		return 0
	}

	for _, m := range listing.Data {
		if m.ID != model {
			continue
		}
		if m.ContextLength > 0 {
			L_debug("context length from listing", "model", model, "tokens", m.ContextLength)
			return m.ContextLength
		}
		if m.MaxContextLength > 0 {
			return m.MaxContextLength
		}
	}
	return 0
}
