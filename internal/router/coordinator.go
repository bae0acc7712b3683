package router

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roelfdiedericks/switchboard/internal/llm"
	. "github.com/roelfdiedericks/switchboard/internal/logging"
	"github.com/roelfdiedericks/switchboard/internal/session"
)

// Coordinator owns the live session state: the current generator, the
// current chat, and the current strength. Every switch runs the same
// sequence (snapshot, resolve context limit, compress, build the new
// generator, rehydrate) and replaces live state only as the final
// step, so a failed switch leaves everything exactly as it was.
//
// The Coordinator does no internal locking. Callers serialize switch
// requests; one in-flight switch at a time.
type Coordinator struct {
	sessionID string
	compress  session.CompressFunc
	journal   *session.Journal

	// Injectable for tests.
	factory        func(llm.GeneratorConfig) (llm.Generator, error)
	resolveContext func(ctx context.Context, kind llm.ProviderKind, model, baseURL string) int

	pairs map[llm.ProviderKind]llm.ModelPair

	gen        llm.Generator
	chat       *session.Chat
	cfg        llm.GeneratorConfig
	strength   Strength
	contextLen int
	autoSwitch bool
}

// CoordinatorConfig configures a Coordinator. Zero values get
// sensible defaults.
type CoordinatorConfig struct {
	SessionID string
	Compress  session.CompressFunc
	Journal   *session.Journal
}

// NewCoordinator builds a coordinator. Weak/strong model pairs are
// loaded once, here, from the environment; they are read-only
// afterward.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.Compress == nil {
		cfg.Compress = session.NewTailCompressor(session.TailCompressorConfig{})
	}

	pairs := make(map[llm.ProviderKind]llm.ModelPair)
	for _, kind := range []llm.ProviderKind{
		llm.KindOAuth, llm.KindAPIKey, llm.KindCloudShell,
		llm.KindOpenAICompat, llm.KindOllama, llm.KindLMStudio,
	} {
		if pair, ok := llm.ModelPairFor(kind); ok {
			pairs[kind] = pair
		}
	}

	return &Coordinator{
		sessionID:      cfg.SessionID,
		compress:       cfg.Compress,
		journal:        cfg.Journal,
		factory:        llm.NewGenerator,
		resolveContext: llm.ResolveContextLength,
		pairs:          pairs,
		strength:       StrengthWeak,
	}
}

func (c *Coordinator) SessionID() string                  { return c.sessionID }
func (c *Coordinator) CurrentGenerator() llm.Generator    { return c.gen }
func (c *Coordinator) CurrentChat() *session.Chat         { return c.chat }
func (c *Coordinator) CurrentConfig() llm.GeneratorConfig { return c.cfg }
func (c *Coordinator) CurrentStrength() Strength          { return c.strength }
func (c *Coordinator) ContextLength() int                 { return c.contextLen }
func (c *Coordinator) Active() bool                       { return c.gen != nil }

// AutoSwitchEnabled reports whether the upward caller should invoke
// AutoSwitchBasedOnTask per turn.
func (c *Coordinator) AutoSwitchEnabled() bool { return c.autoSwitch }

func (c *Coordinator) SetAutoSwitch(on bool) {
	c.autoSwitch = on
	L_info("coordinator: auto-switch", "enabled", on)
}

// ModelPair returns the weak/strong pair configured for a kind.
func (c *Coordinator) ModelPair(kind llm.ProviderKind) (llm.ModelPair, bool) {
	pair, ok := c.pairs[kind]
	return pair, ok
}

// SwitchModel moves the session to an explicit model id on the given
// provider kind. Strength tracking is untouched: switching to a
// literal model implies no strength.
func (c *Coordinator) SwitchModel(ctx context.Context, modelID string, kind llm.ProviderKind, base llm.GeneratorConfig) error {
	return c.switchModel(ctx, modelID, kind, base, "")
}

func (c *Coordinator) switchModel(ctx context.Context, modelID string, kind llm.ProviderKind, base llm.GeneratorConfig, strength Strength) error {
	L_info("coordinator: switching model", "to", modelID, "kind", kind)

	// 1. Snapshot the current session, if there is one.
	var snap *session.Snapshot
	if c.chat != nil {
		snap = c.chat.TakeSnapshot(c.cfg)
	}

	// 2. Resolve the new model's context window. Never fails.
	newCfg := base.WithKind(kind).WithModel(modelID)
	limit := c.resolveContext(ctx, kind, modelID, newCfg.BaseURL)

	// 3. Compress the snapshot against the new limit. A compressor
	// failure keeps the uncompressed snapshot rather than aborting.
	if snap != nil {
		compressed, err := c.compress(ctx, snap, limit)
		if err != nil {
			L_warn("coordinator: compression failed, keeping full history", "error", err)
		} else {
			snap = compressed
		}
	}

	// 4. Build the new generator. The only fallible step that aborts:
	// live state stays untouched and the error goes back verbatim.
	gen, err := c.factory(newCfg)
	if err != nil {
		L_error("coordinator: switch failed", "to", modelID, "kind", kind, "error", err)
		return err
	}

	// 5. Rehydrate from the snapshot, or start fresh.
	var chat *session.Chat
	if snap != nil {
		chat = session.NewChatWithHistory(gen, snap.Messages)
	} else {
		chat = session.NewChat(gen)
	}
	chat.BindJournal(c.journal, c.sessionID)

	// 6. Replace live state. Last step, after all fallible work.
	fromModel := ""
	if c.gen != nil {
		fromModel = c.gen.Model()
	}
	c.gen = gen
	c.chat = chat
	c.cfg = newCfg
	c.contextLen = limit

	c.recordChange(ctx, fromModel, modelID, kind, strength)
	L_info("coordinator: model switched", "model", modelID, "kind", kind, "contextTokens", limit)
	return nil
}

// pairFor returns the usable model pair for a kind. A kind with no
// configured pair and a pair carrying an empty id are both
// configuration errors; neither may start a switch.
func (c *Coordinator) pairFor(kind llm.ProviderKind) (llm.ModelPair, error) {
	pair, ok := c.pairs[kind]
	if !ok {
		return llm.ModelPair{}, fmt.Errorf("no weak/strong model pair configured for provider %q", kind)
	}
	if !pair.Valid() {
		missing := "weak"
		if pair.Weak != "" {
			missing = "strong"
		}
		return llm.ModelPair{}, fmt.Errorf("%s model id for provider %q is empty", missing, kind)
	}
	return pair, nil
}

// SwitchToStrength moves the session to the weak or strong model of
// the given provider kind. A kind with no configured model pair fails
// immediately without attempting a switch. Strength is assigned only
// after the underlying switch succeeds, so a failed switch never
// leaves strength tracking pointing at a model that is not live.
func (c *Coordinator) SwitchToStrength(ctx context.Context, strength Strength, kind llm.ProviderKind, base llm.GeneratorConfig) error {
	pair, err := c.pairFor(kind)
	if err != nil {
		return err
	}

	model := pair.Weak
	if strength == StrengthStrong {
		model = pair.Strong
	}

	if err := c.switchModel(ctx, model, kind, base, strength); err != nil {
		return err
	}
	c.strength = strength
	return nil
}

// AutoSwitchBasedOnTask classifies the prompt and switches strength if
// the task calls for it. Returns whether a switch occurred. The only
// error it surfaces is a missing or incomplete model pair;
// classification and switch failures are absorbed.
func (c *Coordinator) AutoSwitchBasedOnTask(ctx context.Context, prompt string, history []llm.Message, kind llm.ProviderKind, base llm.GeneratorConfig) (bool, error) {
	pair, err := c.pairFor(kind)
	if err != nil {
		return false, err
	}

	task := c.classifyTask(ctx, prompt, history, kind, base, pair)
	required := RequiredStrength(task)

	L_debug("coordinator: auto-switch decision",
		"task", task, "required", required, "current", c.strength)

	if required == c.strength {
		return false, nil
	}

	if err := c.SwitchToStrength(ctx, required, kind, base); err != nil {
		L_warn("coordinator: auto-switch failed, staying on current model", "error", err)
		return false, nil
	}
	return true, nil
}

// classifyTask picks the generator used for the classification call.
// Classifying on the strong model wastes money, so when the current
// strength is STRONG (or nothing is live yet) a throwaway weak-model
// generator exists just for this one call and is dropped on return.
func (c *Coordinator) classifyTask(ctx context.Context, prompt string, history []llm.Message, kind llm.ProviderKind, base llm.GeneratorConfig, pair llm.ModelPair) TaskType {
	gen := c.gen
	if gen == nil || c.strength == StrengthStrong {
		weakCfg := base.WithKind(kind).WithModel(pair.Weak)
		ephemeral, err := c.factory(weakCfg)
		if err != nil {
			L_warn("coordinator: classifier generator unavailable, defaulting to implementation", "error", err)
			return TaskImplementation
		}
		gen = ephemeral
	}
	return ClassifyWithGenerator(ctx, gen, prompt, history)
}

func (c *Coordinator) recordChange(ctx context.Context, from, to string, kind llm.ProviderKind, strength Strength) {
	if c.journal == nil {
		return
	}
	err := c.journal.RecordModelChange(ctx, session.ModelChange{
		SessionID: c.sessionID,
		FromModel: from,
		ToModel:   to,
		Kind:      kind,
		Strength:  string(strength),
		At:        time.Now(),
	})
	if err != nil {
		L_warn("coordinator: failed to journal model change", "error", err)
	}
}
