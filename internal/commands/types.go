package commands

import (
	"context"

	"github.com/roelfdiedericks/switchboard/internal/llm"
	"github.com/roelfdiedericks/switchboard/internal/router"
)

// SessionProvider is what commands need from the surrounding
// application: switch operations and session state queries.
type SessionProvider interface {
	SwitchModel(ctx context.Context, modelID string) error
	SwitchStrength(ctx context.Context, strength router.Strength) error
	SetAutoSwitch(on bool)
	AutoSwitchEnabled() bool
	Status() *StatusInfo
	ListModels(ctx context.Context) ([]llm.ModelInfo, error)
}

// StatusInfo is a point-in-time view of the session for /status.
type StatusInfo struct {
	SessionID     string
	Model         string
	Kind          llm.ProviderKind
	Strength      router.Strength
	ContextTokens int
	Messages      int
	AutoSwitch    bool
}

// CommandResult contains the result of a command execution
type CommandResult struct {
	Text     string // Plain text output
	Markdown string // Markdown formatted output
	Error    error  // Error if command failed
}
