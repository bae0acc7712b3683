package router

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roelfdiedericks/switchboard/internal/llm"
	"github.com/roelfdiedericks/switchboard/internal/session"
)

// testCoordinator builds a coordinator with a fake factory and a fixed
// context resolver. The factory's reply string feeds the classifier.
func testCoordinator(t *testing.T, reply string) (*Coordinator, *[]llm.GeneratorConfig) {
	t.Helper()

	var built []llm.GeneratorConfig
	c := NewCoordinator(CoordinatorConfig{Compress: session.NoCompression})
	c.factory = func(cfg llm.GeneratorConfig) (llm.Generator, error) {
		built = append(built, cfg)
		return &fakeGenerator{model: cfg.Model, kind: cfg.Kind, reply: reply}, nil
	}
	c.resolveContext = func(_ context.Context, _ llm.ProviderKind, _, _ string) int {
		return 131072
	}
	return c, &built
}

func ollamaBase() llm.GeneratorConfig {
	return llm.GeneratorConfig{Kind: llm.KindOllama, BaseURL: "http://localhost:11434"}
}

func TestSwitchToStrength(t *testing.T) {
	c, _ := testCoordinator(t, "")

	if err := c.SwitchToStrength(context.Background(), StrengthWeak, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("weak switch: %v", err)
	}
	if c.CurrentStrength() != StrengthWeak {
		t.Errorf("strength = %s", c.CurrentStrength())
	}
	if got := c.CurrentGenerator().Model(); got != "llama3.1:8b" {
		t.Errorf("model = %q, want llama3.1:8b", got)
	}

	if err := c.SwitchToStrength(context.Background(), StrengthStrong, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("strong switch: %v", err)
	}
	if c.CurrentStrength() != StrengthStrong {
		t.Errorf("strength = %s", c.CurrentStrength())
	}
	if got := c.CurrentGenerator().Model(); got != "llama3.1:70b" {
		t.Errorf("model = %q, want llama3.1:70b", got)
	}
	if c.ContextLength() != 131072 {
		t.Errorf("context = %d", c.ContextLength())
	}
}

func TestSwitchToStrengthMissingPair(t *testing.T) {
	c, built := testCoordinator(t, "")

	err := c.SwitchToStrength(context.Background(), StrengthStrong, llm.KindOAuth, llm.GeneratorConfig{Kind: llm.KindOAuth})
	if err == nil {
		t.Fatal("expected error for unconfigured provider")
	}
	if len(*built) != 0 {
		t.Error("no generator should have been constructed")
	}
	if c.Active() {
		t.Error("coordinator should remain inactive")
	}
}

func TestSwitchToStrengthIncompletePair(t *testing.T) {
	t.Setenv("OLLAMA_MODEL_STRONG", "")
	c, built := testCoordinator(t, "")
	ctx := context.Background()

	// An env-set empty id is configured-but-empty: the strength
	// switch must fail before any switch work, not run the sequence
	// with model "".
	err := c.SwitchToStrength(ctx, StrengthStrong, llm.KindOllama, ollamaBase())
	if err == nil {
		t.Fatal("expected error for incomplete pair")
	}
	if !strings.Contains(err.Error(), "strong model id") {
		t.Errorf("error should name the empty id: %v", err)
	}
	if len(*built) != 0 {
		t.Error("no generator should have been constructed")
	}
	if c.Active() {
		t.Error("coordinator should remain inactive")
	}
	if c.CurrentStrength() != StrengthWeak {
		t.Errorf("strength = %s", c.CurrentStrength())
	}

	// Auto-switch rejects the same misconfiguration up front.
	if _, err := c.AutoSwitchBasedOnTask(ctx, "Debug why the login is failing", nil, llm.KindOllama, ollamaBase()); err == nil {
		t.Error("auto-switch should surface the incomplete pair")
	}

	// The weak half is intact but unusable until the pair is whole.
	if err := c.SwitchToStrength(ctx, StrengthWeak, llm.KindOllama, ollamaBase()); err == nil {
		t.Error("weak switch should also refuse an incomplete pair")
	}
}

func TestFailedSwitchLeavesStateUntouched(t *testing.T) {
	c, _ := testCoordinator(t, "")
	ctx := context.Background()

	if err := c.SwitchToStrength(ctx, StrengthWeak, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("setup switch: %v", err)
	}
	c.CurrentChat().Append(llm.Message{Role: llm.RoleUser, Content: "hello"})

	gen := c.CurrentGenerator()
	chat := c.CurrentChat()

	boom := errors.New("connection refused")
	c.factory = func(llm.GeneratorConfig) (llm.Generator, error) { return nil, boom }

	err := c.SwitchModel(ctx, "llama3.1:70b", llm.KindOllama, ollamaBase())
	if !errors.Is(err, boom) {
		t.Fatalf("expected construction error verbatim, got %v", err)
	}

	if c.CurrentGenerator() != gen {
		t.Error("generator replaced after failed switch")
	}
	if c.CurrentChat() != chat {
		t.Error("chat replaced after failed switch")
	}
	if c.CurrentStrength() != StrengthWeak {
		t.Errorf("strength = %s after failed switch", c.CurrentStrength())
	}

	// Strength stays put when the strength switch itself fails too.
	if err := c.SwitchToStrength(ctx, StrengthStrong, llm.KindOllama, ollamaBase()); err == nil {
		t.Fatal("expected strength switch to fail")
	}
	if c.CurrentStrength() != StrengthWeak {
		t.Errorf("strength = %s, want weak after failed strength switch", c.CurrentStrength())
	}
}

func TestSwitchModelKeepsHistory(t *testing.T) {
	c, _ := testCoordinator(t, "")
	ctx := context.Background()

	if err := c.SwitchToStrength(ctx, StrengthWeak, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("setup switch: %v", err)
	}
	c.CurrentChat().Append(llm.Message{Role: llm.RoleUser, Content: "first"})
	c.CurrentChat().Append(llm.Message{Role: llm.RoleAssistant, Content: "second"})

	if err := c.SwitchModel(ctx, "custom-model", llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("switch: %v", err)
	}

	history := c.CurrentChat().History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Content != "first" || history[1].Content != "second" {
		t.Errorf("history = %+v", history)
	}
	// Explicit model switch leaves strength tracking alone.
	if c.CurrentStrength() != StrengthWeak {
		t.Errorf("strength = %s", c.CurrentStrength())
	}
}

func TestAutoSwitchNoopOnEqualStrength(t *testing.T) {
	c, built := testCoordinator(t, "IMPLEMENTATION")
	ctx := context.Background()

	if err := c.SwitchToStrength(ctx, StrengthWeak, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("setup switch: %v", err)
	}
	constructed := len(*built)

	switched, err := c.AutoSwitchBasedOnTask(ctx, "add a flag", nil, llm.KindOllama, ollamaBase())
	if err != nil {
		t.Fatalf("auto-switch: %v", err)
	}
	if switched {
		t.Error("expected no switch")
	}
	// Current strength is weak, so the live generator classifies and
	// no extra generator is built.
	if len(*built) != constructed {
		t.Errorf("generators built = %d, want %d", len(*built), constructed)
	}
}

func TestAutoSwitchToStrong(t *testing.T) {
	c, _ := testCoordinator(t, "TROUBLESHOOTING")
	ctx := context.Background()

	if err := c.SwitchToStrength(ctx, StrengthWeak, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("setup switch: %v", err)
	}

	switched, err := c.AutoSwitchBasedOnTask(ctx, "Debug why the login is failing", nil, llm.KindOllama, ollamaBase())
	if err != nil {
		t.Fatalf("auto-switch: %v", err)
	}
	if !switched {
		t.Fatal("expected a switch")
	}
	if c.CurrentStrength() != StrengthStrong {
		t.Errorf("strength = %s, want strong", c.CurrentStrength())
	}
	if got := c.CurrentGenerator().Model(); got != "llama3.1:70b" {
		t.Errorf("model = %q, want llama3.1:70b", got)
	}
}

func TestAutoSwitchClassifiesOnEphemeralWeak(t *testing.T) {
	c, built := testCoordinator(t, "IMPLEMENTATION")
	ctx := context.Background()

	if err := c.SwitchToStrength(ctx, StrengthStrong, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("setup switch: %v", err)
	}
	liveGen := c.CurrentGenerator()
	constructed := len(*built)

	switched, err := c.AutoSwitchBasedOnTask(ctx, "add a flag", nil, llm.KindOllama, ollamaBase())
	if err != nil {
		t.Fatalf("auto-switch: %v", err)
	}

	// IMPLEMENTATION requires weak, so a switch happened; on top of
	// that one construction, classification used a throwaway weak
	// generator rather than the live strong one.
	if !switched {
		t.Fatal("expected a switch down to weak")
	}
	ephemeral := (*built)[constructed]
	if ephemeral.Model != "llama3.1:8b" {
		t.Errorf("classifier model = %q, want llama3.1:8b", ephemeral.Model)
	}
	if liveGen.(*fakeGenerator).calls != 0 {
		t.Error("strong generator should not serve classification")
	}
}

func TestAutoSwitchMissingPair(t *testing.T) {
	c, _ := testCoordinator(t, "TROUBLESHOOTING")

	_, err := c.AutoSwitchBasedOnTask(context.Background(), "debug this", nil, llm.KindOAuth, llm.GeneratorConfig{Kind: llm.KindOAuth})
	if err == nil {
		t.Fatal("expected error for unconfigured provider")
	}
}

func TestAutoSwitchAbsorbsSwitchFailure(t *testing.T) {
	c, _ := testCoordinator(t, "TROUBLESHOOTING")
	ctx := context.Background()

	if err := c.SwitchToStrength(ctx, StrengthWeak, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("setup switch: %v", err)
	}

	// Classification succeeds on the live generator, the upgrade to
	// strong fails; the caller just sees "no switch".
	c.factory = func(cfg llm.GeneratorConfig) (llm.Generator, error) {
		return nil, errors.New("server went away")
	}

	switched, err := c.AutoSwitchBasedOnTask(ctx, "Debug why the login is failing", nil, llm.KindOllama, ollamaBase())
	if err != nil {
		t.Fatalf("auto-switch should absorb the failure, got %v", err)
	}
	if switched {
		t.Error("expected no switch")
	}
	if c.CurrentStrength() != StrengthWeak {
		t.Errorf("strength = %s, want weak", c.CurrentStrength())
	}
}

func TestSwitchedChatJournalsTurns(t *testing.T) {
	j, err := session.OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer j.Close()

	var built []llm.GeneratorConfig
	c := NewCoordinator(CoordinatorConfig{Compress: session.NoCompression, Journal: j})
	c.factory = func(cfg llm.GeneratorConfig) (llm.Generator, error) {
		built = append(built, cfg)
		return &fakeGenerator{model: cfg.Model, kind: cfg.Kind, reply: "done"}, nil
	}
	c.resolveContext = func(_ context.Context, _ llm.ProviderKind, _, _ string) int {
		return 131072
	}
	ctx := context.Background()

	if err := c.SwitchToStrength(ctx, StrengthWeak, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if _, err := c.CurrentChat().Send(ctx, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	// A further switch rehydrates without re-journaling old turns.
	if err := c.SwitchToStrength(ctx, StrengthStrong, llm.KindOllama, ollamaBase()); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if _, err := c.CurrentChat().Send(ctx, "more"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs, err := j.Messages(ctx, c.SessionID())
	if err != nil {
		t.Fatalf("read messages: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("journaled messages = %d, want 4", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[2].Content != "more" {
		t.Errorf("messages = %+v", msgs)
	}

	changes, err := j.ModelChanges(ctx, c.SessionID())
	if err != nil {
		t.Fatalf("read changes: %v", err)
	}
	if len(changes) != 2 {
		t.Errorf("model changes = %d, want 2", len(changes))
	}
}
