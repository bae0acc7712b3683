package llm

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	. "github.com/roelfdiedericks/switchboard/internal/logging"
)

// probeTimeout bounds the liveness check on local servers.
const probeTimeout = 5 * time.Second

// NewGenerator creates the appropriate generator for the configured
// provider kind. Local kinds (ollama, lmstudio) are probed for liveness
// before a generator is returned.
func NewGenerator(cfg GeneratorConfig) (Generator, error) {
	switch cfg.Kind {
	case KindAPIKey:
		g, err := newAnthropicGenerator(cfg)
		if err != nil {
			return nil, err
		}
		return g, nil

	case KindOAuth:
		if cfg.APIKey == "" {
			return nil, ConfigError{Kind: cfg.Kind, Setting: "OAUTH_TOKEN"}
		}
		if cfg.BaseURL == "" {
			return nil, ConfigError{Kind: cfg.Kind, Setting: "OAUTH_BASE_URL"}
		}
		g, err := newOpenAIGenerator(cfg, nil)
		if err != nil {
			return nil, err
		}
		return g, nil

	case KindCloudShell:
		if cfg.APIKey == "" {
			return nil, ConfigError{Kind: cfg.Kind, Setting: "CLOUDSHELL_TOKEN"}
		}
		if cfg.BaseURL == "" {
			return nil, ConfigError{Kind: cfg.Kind, Setting: "CLOUDSHELL_BASE_URL"}
		}
		g, err := newOpenAIGenerator(cfg, nil)
		if err != nil {
			return nil, err
		}
		return g, nil

	case KindOpenAICompat:
		if cfg.BaseURL == "" {
			return nil, ConfigError{Kind: cfg.Kind, Setting: "OPENAI_BASE_URL"}
		}
		if cfg.APIKey == "" {
			return nil, ConfigError{Kind: cfg.Kind, Setting: "OPENAI_API_KEY"}
		}
		g, err := newOpenAIGenerator(cfg, nil)
		if err != nil {
			return nil, err
		}
		return g, nil

	case KindOllama:
		extras := &localExtras{
			listPath:  "/api/tags",
			probePath: "/api/tags",
			startHint: "start it with 'ollama serve'",
		}
		if err := probeServer(cfg, extras); err != nil {
			return nil, err
		}
		g, err := newOpenAIGenerator(cfg, extras)
		if err != nil {
			return nil, err
		}
		return g, nil

	case KindLMStudio:
		extras := &localExtras{
			listPath:  "/v1/models",
			probePath: "/v1/models",
			startHint: "start the LM Studio local server and load a model",
		}
		if err := probeServer(cfg, extras); err != nil {
			return nil, err
		}
		g, err := newOpenAIGenerator(cfg, extras)
		if err != nil {
			return nil, err
		}
		return g, nil

	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

// probeServer checks that a local inference server is reachable before
// any request is attempted, so a dead server fails fast with a remedy
// instead of timing out mid-conversation.
func probeServer(cfg GeneratorConfig, extras *localExtras) error {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	base = strings.TrimSuffix(base, "/v1")
	url := base + extras.probePath

	L_trace("probing local server", "kind", cfg.Kind, "url", url)

	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return ConnectivityError{Kind: cfg.Kind, BaseURL: cfg.BaseURL, Hint: extras.startHint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ConnectivityError{
			Kind:    cfg.Kind,
			BaseURL: cfg.BaseURL,
			Hint:    extras.startHint,
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return nil
}
