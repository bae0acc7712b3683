// Package llm - generator configuration and per-provider model pairs.
package llm

import (
	"os"
)

// GeneratorConfig is the resolved configuration for a single generator.
// It is a value object: a switch always derives a new config from the old
// one via WithModel/WithKind, never mutates one in place.
type GeneratorConfig struct {
	Model   string       `json:"model"`
	APIKey  string       `json:"apiKey,omitempty"`
	BaseURL string       `json:"baseURL,omitempty"`
	Kind    ProviderKind `json:"kind"`

	// Sampling parameters (0 = provider default)
	Temperature      float32 `json:"temperature,omitempty"`
	TopP             float32 `json:"topP,omitempty"`
	TopK             int     `json:"topK,omitempty"`
	FrequencyPenalty float32 `json:"frequencyPenalty,omitempty"`
	PresencePenalty  float32 `json:"presencePenalty,omitempty"`
	MaxTokens        int     `json:"maxTokens,omitempty"`

	// Transport limits (0 = default)
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
	MaxRetries     int `json:"maxRetries,omitempty"`
}

// WithModel returns a copy of the config with the model overridden.
func (c GeneratorConfig) WithModel(model string) GeneratorConfig {
	c.Model = model
	return c
}

// WithKind returns a copy of the config with the provider kind overridden.
// The base URL and API key are re-resolved from the environment when the
// kind actually changes, since credentials are per-kind.
func (c GeneratorConfig) WithKind(kind ProviderKind) GeneratorConfig {
	if c.Kind != kind {
		c.BaseURL = BaseURLFor(kind)
		c.APIKey = APIKeyFor(kind)
	}
	c.Kind = kind
	return c
}

// ModelPair holds the weak/strong model ids for one provider.
// Both ids must be non-empty for the pair to be usable.
type ModelPair struct {
	Weak   string `json:"weak"`
	Strong string `json:"strong"`
}

// Valid reports whether both model ids are set.
func (p ModelPair) Valid() bool {
	return p.Weak != "" && p.Strong != ""
}

// envPrefix returns the environment variable prefix for a provider kind.
func envPrefix(kind ProviderKind) string {
	switch kind {
	case KindOAuth:
		return "OAUTH"
	case KindAPIKey:
		return "ANTHROPIC"
	case KindCloudShell:
		return "CLOUDSHELL"
	case KindOpenAICompat:
		return "OPENAI"
	case KindOllama:
		return "OLLAMA"
	case KindLMStudio:
		return "LMSTUDIO"
	}
	return ""
}

// defaultBaseURLs for local server kinds. Hosted kinds use their SDK default.
var defaultBaseURLs = map[ProviderKind]string{
	KindOllama:   "http://localhost:11434",
	KindLMStudio: "http://localhost:1234",
}

// defaultModelPairs are the built-in weak/strong defaults per provider kind.
// OAuth and cloud-shell deployments vary too much to guess; they must be
// configured via environment.
var defaultModelPairs = map[ProviderKind]ModelPair{
	KindAPIKey:       {Weak: "claude-haiku-4-5", Strong: "claude-opus-4-5"},
	KindOpenAICompat: {Weak: "gpt-4o-mini", Strong: "gpt-4o"},
	KindOllama:       {Weak: "llama3.1:8b", Strong: "llama3.1:70b"},
	KindLMStudio:     {Weak: "qwen2.5-coder-7b-instruct", Strong: "qwen2.5-coder-32b-instruct"},
}

// BaseURLFor returns the base URL for a kind: {PREFIX}_BASE_URL when set,
// otherwise the built-in default (empty for hosted kinds, meaning the SDK
// default endpoint).
func BaseURLFor(kind ProviderKind) string {
	if prefix := envPrefix(kind); prefix != "" {
		if v := os.Getenv(prefix + "_BASE_URL"); v != "" {
			return v
		}
	}
	return defaultBaseURLs[kind]
}

// APIKeyFor returns the credential for a kind from the environment.
// OAuth and cloud-shell kinds carry a bearer token in the same slot;
// obtaining and refreshing those tokens is out of scope here.
func APIKeyFor(kind ProviderKind) string {
	switch kind {
	case KindAPIKey:
		return os.Getenv("ANTHROPIC_API_KEY")
	case KindOpenAICompat:
		return os.Getenv("OPENAI_API_KEY")
	case KindOAuth:
		return os.Getenv("OAUTH_TOKEN")
	case KindCloudShell:
		return os.Getenv("CLOUDSHELL_TOKEN")
	}
	return ""
}

// ModelPairFor returns the weak/strong model pair configured for a kind.
// Environment overrides ({PREFIX}_MODEL_WEAK / {PREFIX}_MODEL_STRONG) win
// over built-in defaults. The second return value is false when the kind
// has no configured pair at all, which is a distinct condition from a pair
// with empty ids.
func ModelPairFor(kind ProviderKind) (ModelPair, bool) {
	pair, ok := defaultModelPairs[kind]

	if prefix := envPrefix(kind); prefix != "" {
		if v, set := os.LookupEnv(prefix + "_MODEL_WEAK"); set {
			pair.Weak = v
			ok = true
		}
		if v, set := os.LookupEnv(prefix + "_MODEL_STRONG"); set {
			pair.Strong = v
			ok = true
		}
	}

	return pair, ok
}

// ResolveConfig builds a fresh GeneratorConfig for a kind and model,
// pulling the base URL and credential from the environment.
func ResolveConfig(kind ProviderKind, model string) GeneratorConfig {
	return GeneratorConfig{
		Model:   model,
		APIKey:  APIKeyFor(kind),
		BaseURL: BaseURLFor(kind),
		Kind:    kind,
	}
}
