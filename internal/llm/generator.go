// Package llm provides unified content generator interfaces and implementations.
package llm

import "context"

// ProviderKind identifies an authentication/transport scheme for a provider.
// Immutable once chosen for a session; changing it means re-resolving the
// full generator configuration.
type ProviderKind string

const (
	KindOAuth        ProviderKind = "oauth"      // Hosted, browser OAuth token
	KindAPIKey       ProviderKind = "apikey"     // Hosted, API key (Anthropic-style)
	KindCloudShell   ProviderKind = "cloudshell" // Hosted, ambient cloud credentials
	KindOpenAICompat ProviderKind = "openai"     // Remote OpenAI-compatible endpoint
	KindOllama       ProviderKind = "ollama"     // Local Ollama server
	KindLMStudio     ProviderKind = "lmstudio"   // Local LM Studio server
)

// Valid reports whether k is a known provider kind.
func (k ProviderKind) Valid() bool {
	switch k {
	case KindOAuth, KindAPIKey, KindCloudShell, KindOpenAICompat, KindOllama, KindLMStudio:
		return true
	}
	return false
}

// Local reports whether k is a local inference server kind.
// Local kinds get a liveness probe at generator construction.
func (k ProviderKind) Local() bool {
	return k == KindOllama || k == KindLMStudio
}

func (k ProviderKind) String() string {
	return string(k)
}

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a conversation message (provider-agnostic).
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Response represents a generation result.
type Response struct {
	Text         string // accumulated text response
	Model        string // model that produced the response
	StopReason   string // "stop", "end_turn", "length", etc.
	InputTokens  int
	OutputTokens int
}

// GenerateOptions contains per-call overrides for a generation request.
// Zero values mean "use the generator's configured defaults".
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Generator is the unified capability interface for all providers:
// generate text, stream text, count tokens, embed text.
// Implementations: openaiGenerator, anthropicGenerator.
type Generator interface {
	// Identity
	Name() string       // Generator instance name (e.g., "ollama", "apikey")
	Kind() ProviderKind // Provider kind this generator was built for
	Model() string      // Resolved model id

	// Generation
	Generate(ctx context.Context, messages []Message, opts *GenerateOptions) (*Response, error)
	Stream(ctx context.Context, messages []Message, opts *GenerateOptions, onDelta func(delta string)) (*Response, error)

	// Accounting
	CountTokens(ctx context.Context, messages []Message) (int, error)

	// Embeddings
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ModelInfo describes a model reported by a provider's listing endpoint.
type ModelInfo struct {
	ID            string
	ContextTokens int // 0 if the listing did not report one
}

// ModelLister is implemented by generators whose provider exposes a
// model-listing endpoint (local servers, aggregators). It is a capability
// extension: callers type-assert, they never switch on provider kind.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
