package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/roelfdiedericks/switchboard/internal/router"
)

// registerBuiltins registers all built-in commands
func registerBuiltins(m *Manager) {
	m.Register(&Command{
		Name:        "/model",
		Description: "Switch to an explicit model id",
		Usage:       "<model-id>",
		Handler:     handleModel,
	})

	m.Register(&Command{
		Name:        "/strength",
		Description: "Switch to the weak or strong model",
		Usage:       "weak|strong",
		Handler:     handleStrength,
	})

	m.Register(&Command{
		Name:        "/autoswitch",
		Description: "Toggle or show per-turn auto model switching",
		Usage:       "[on|off]",
		Handler:     handleAutoSwitch,
	})

	m.Register(&Command{
		Name:        "/status",
		Description: "Show session and model status",
		Aliases:     []string{"/stat"},
		Handler:     handleStatus,
	})

	m.Register(&Command{
		Name:        "/models",
		Description: "List models available on the current provider",
		Handler:     handleModels,
	})

	m.Register(&Command{
		Name:        "/help",
		Description: "Show this help",
		Handler:     handleHelp,
	})
}

// handleModel switches to an explicit model id
func handleModel(ctx context.Context, args *CommandArgs) *CommandResult {
	modelID := strings.TrimSpace(args.RawArgs)
	if modelID == "" {
		return &CommandResult{Text: fmt.Sprintf("Usage: /model %s", args.Usage)}
	}

	if err := args.Provider.SwitchModel(ctx, modelID); err != nil {
		return &CommandResult{
			Text:  fmt.Sprintf("Switch failed: %s", err),
			Error: err,
		}
	}

	status := args.Provider.Status()
	return &CommandResult{
		Text:     fmt.Sprintf("Switched to %s (context: %d tokens)", status.Model, status.ContextTokens),
		Markdown: fmt.Sprintf("Switched to `%s` (context: %d tokens)", status.Model, status.ContextTokens),
	}
}

// handleStrength switches to the provider's weak or strong model
func handleStrength(ctx context.Context, args *CommandArgs) *CommandResult {
	arg := strings.ToLower(strings.TrimSpace(args.RawArgs))
	if arg != "weak" && arg != "strong" {
		return &CommandResult{Text: fmt.Sprintf("Usage: /strength %s", args.Usage)}
	}

	if err := args.Provider.SwitchStrength(ctx, strengthFromArg(arg)); err != nil {
		return &CommandResult{
			Text:  fmt.Sprintf("Switch failed: %s", err),
			Error: err,
		}
	}

	status := args.Provider.Status()
	return &CommandResult{
		Text:     fmt.Sprintf("Switched to %s model %s (context: %d tokens)", arg, status.Model, status.ContextTokens),
		Markdown: fmt.Sprintf("Switched to %s model `%s` (context: %d tokens)", arg, status.Model, status.ContextTokens),
	}
}

// handleAutoSwitch toggles or reports auto-switch state
func handleAutoSwitch(_ context.Context, args *CommandArgs) *CommandResult {
	arg := strings.ToLower(strings.TrimSpace(args.RawArgs))
	switch arg {
	case "":
		state := "off"
		if args.Provider.AutoSwitchEnabled() {
			state = "on"
		}
		return &CommandResult{Text: fmt.Sprintf("Auto-switch is %s", state)}
	case "on":
		args.Provider.SetAutoSwitch(true)
		return &CommandResult{Text: "Auto-switch enabled"}
	case "off":
		args.Provider.SetAutoSwitch(false)
		return &CommandResult{Text: "Auto-switch disabled"}
	default:
		return &CommandResult{Text: fmt.Sprintf("Usage: /autoswitch %s", args.Usage)}
	}
}

// handleStatus shows the current session and model state
func handleStatus(_ context.Context, args *CommandArgs) *CommandResult {
	status := args.Provider.Status()

	if status.Model == "" {
		return &CommandResult{Text: "No active model. Use /model or /strength to start."}
	}

	autoSwitch := "off"
	if status.AutoSwitch {
		autoSwitch = "on"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", status.SessionID)
	fmt.Fprintf(&b, "Model: %s (%s)\n", status.Model, status.Kind)
	fmt.Fprintf(&b, "Strength: %s\n", status.Strength)
	fmt.Fprintf(&b, "Context: %d tokens\n", status.ContextTokens)
	fmt.Fprintf(&b, "Messages: %d\n", status.Messages)
	fmt.Fprintf(&b, "Auto-switch: %s", autoSwitch)

	return &CommandResult{Text: b.String()}
}

// handleModels lists models from the current provider
func handleModels(ctx context.Context, args *CommandArgs) *CommandResult {
	models, err := args.Provider.ListModels(ctx)
	if err != nil {
		return &CommandResult{
			Text:  fmt.Sprintf("Model listing unavailable: %s", err),
			Error: err,
		}
	}
	if len(models) == 0 {
		return &CommandResult{Text: "No models available."}
	}

	var b strings.Builder
	b.WriteString("Available models:\n")
	for _, m := range models {
		if m.ContextTokens > 0 {
			fmt.Fprintf(&b, "  %s (context: %d)\n", m.ID, m.ContextTokens)
		} else {
			fmt.Fprintf(&b, "  %s\n", m.ID)
		}
	}
	return &CommandResult{Text: strings.TrimRight(b.String(), "\n")}
}

// handleHelp returns available commands (generated from registry)
func handleHelp(_ context.Context, args *CommandArgs) *CommandResult {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range args.Manager.List() {
		name := cmd.Name
		if cmd.Usage != "" {
			name += " " + cmd.Usage
		}
		fmt.Fprintf(&b, "  %-24s %s\n", name, cmd.Description)
	}
	return &CommandResult{Text: strings.TrimRight(b.String(), "\n")}
}

func strengthFromArg(arg string) router.Strength {
	if arg == "strong" {
		return router.StrengthStrong
	}
	return router.StrengthWeak
}
