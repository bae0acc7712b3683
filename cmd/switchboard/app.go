package main

import (
	"context"
	"fmt"

	"github.com/roelfdiedericks/switchboard/internal/commands"
	"github.com/roelfdiedericks/switchboard/internal/llm"
	"github.com/roelfdiedericks/switchboard/internal/router"
)

// app binds the coordinator to a fixed provider kind and base config,
// implementing the command surface.
type app struct {
	coord *router.Coordinator
	kind  llm.ProviderKind
	base  llm.GeneratorConfig
}

func (a *app) SwitchModel(ctx context.Context, modelID string) error {
	return a.coord.SwitchModel(ctx, modelID, a.kind, a.base)
}

func (a *app) SwitchStrength(ctx context.Context, strength router.Strength) error {
	return a.coord.SwitchToStrength(ctx, strength, a.kind, a.base)
}

func (a *app) SetAutoSwitch(on bool)   { a.coord.SetAutoSwitch(on) }
func (a *app) AutoSwitchEnabled() bool { return a.coord.AutoSwitchEnabled() }

func (a *app) Status() *commands.StatusInfo {
	status := &commands.StatusInfo{
		SessionID:  a.coord.SessionID(),
		Kind:       a.kind,
		Strength:   a.coord.CurrentStrength(),
		AutoSwitch: a.coord.AutoSwitchEnabled(),
	}
	if gen := a.coord.CurrentGenerator(); gen != nil {
		status.Model = gen.Model()
		status.ContextTokens = a.coord.ContextLength()
	}
	if chat := a.coord.CurrentChat(); chat != nil {
		status.Messages = len(chat.History())
	}
	return status
}

func (a *app) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	gen := a.coord.CurrentGenerator()
	if gen == nil {
		return nil, fmt.Errorf("no active model")
	}
	lister, ok := gen.(llm.ModelLister)
	if !ok {
		return nil, llm.ErrNotSupported{Provider: gen.Name(), Operation: "model listing"}
	}
	return lister.ListModels(ctx)
}

// sendTurn runs one user turn: optional auto-switch, then generation
// on the live chat.
func (a *app) sendTurn(ctx context.Context, text string, onDelta func(string)) (*llm.Response, error) {
	chat := a.coord.CurrentChat()
	if chat == nil {
		return nil, fmt.Errorf("no active model, use /model or /strength first")
	}

	if a.coord.AutoSwitchEnabled() {
		switched, err := a.coord.AutoSwitchBasedOnTask(ctx, text, chat.History(), a.kind, a.base)
		if err != nil {
			return nil, err
		}
		if switched {
			// The switch rebuilt the chat; pick up the new one.
			chat = a.coord.CurrentChat()
		}
	}

	return chat.Stream(ctx, text, onDelta)
}

var _ commands.SessionProvider = (*app)(nil)
