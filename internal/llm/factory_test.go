package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewGeneratorMissingCredential(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GeneratorConfig
		setting string
	}{
		{"apikey without key", GeneratorConfig{Kind: KindAPIKey, Model: "claude-opus-4-5"}, "ANTHROPIC_API_KEY"},
		{"oauth without token", GeneratorConfig{Kind: KindOAuth, Model: "m", BaseURL: "http://x"}, "OAUTH_TOKEN"},
		{"cloudshell without token", GeneratorConfig{Kind: KindCloudShell, Model: "m", BaseURL: "http://x"}, "CLOUDSHELL_TOKEN"},
		{"openai without base url", GeneratorConfig{Kind: KindOpenAICompat, Model: "m", APIKey: "k"}, "OPENAI_BASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.cfg)
			if gen != nil {
				t.Fatal("expected no generator")
			}
			var cfgErr ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Setting != tt.setting {
				t.Errorf("setting = %q, want %q", cfgErr.Setting, tt.setting)
			}
		})
	}
}

func TestNewGeneratorUnknownKind(t *testing.T) {
	_, err := NewGenerator(GeneratorConfig{Kind: ProviderKind("mystery"), Model: "m"})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestNewGeneratorLocalProbeFailure(t *testing.T) {
	cfg := GeneratorConfig{
		Kind:    KindOllama,
		Model:   "llama3.1:8b",
		BaseURL: "http://127.0.0.1:1",
	}

	gen, err := NewGenerator(cfg)
	if gen != nil {
		t.Fatal("expected no generator when probe fails")
	}
	var connErr ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
	if connErr.BaseURL != cfg.BaseURL {
		t.Errorf("error names %q, want %q", connErr.BaseURL, cfg.BaseURL)
	}
	if connErr.Hint == "" {
		t.Error("expected a remedy hint")
	}
}

func TestNewGeneratorLocalProbeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3.1:8b"}]}`))
	}))
	defer srv.Close()

	gen, err := NewGenerator(GeneratorConfig{
		Kind:    KindOllama,
		Model:   "llama3.1:8b",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Model() != "llama3.1:8b" {
		t.Errorf("model = %q", gen.Model())
	}
	if gen.Kind() != KindOllama {
		t.Errorf("kind = %q", gen.Kind())
	}
	if _, ok := gen.(ModelLister); !ok {
		t.Error("local generator should support model listing")
	}
}

func TestNewGeneratorHostedNeverProbes(t *testing.T) {
	// A hosted kind with an unreachable base URL still constructs:
	// there is no cheap liveness endpoint to hit.
	gen, err := NewGenerator(GeneratorConfig{
		Kind:    KindOpenAICompat,
		Model:   "gpt-4o",
		APIKey:  "k",
		BaseURL: "http://127.0.0.1:1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lister, ok := gen.(ModelLister)
	if !ok {
		t.Fatal("openai-compat generator should carry the listing capability")
	}
	if _, err := lister.ListModels(context.Background()); err == nil {
		t.Error("remote generator should refuse model listing")
	} else {
		var notSupported ErrNotSupported
		if !errors.As(err, &notSupported) {
			t.Errorf("expected ErrNotSupported, got %v", err)
		}
	}
}

func TestListModelsWithV1BaseURL(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llama3.1:8b"}]}`))
	}))
	defer srv.Close()

	// A base URL carrying the /v1 suffix must still probe and list at
	// the server root.
	gen, err := NewGenerator(GeneratorConfig{
		Kind:    KindOllama,
		Model:   "llama3.1:8b",
		BaseURL: srv.URL + "/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	models, err := gen.(ModelLister).ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(models) != 1 || models[0].ID != "llama3.1:8b" {
		t.Errorf("models = %+v", models)
	}

	for _, p := range paths {
		if p != "/api/tags" {
			t.Errorf("request hit %q, want /api/tags", p)
		}
	}
}
