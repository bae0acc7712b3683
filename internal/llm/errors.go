// Package llm - error taxonomy for generator construction and use.
package llm

import "fmt"

// ConfigError indicates a missing or invalid setting for a provider kind.
// Always fatal to the specific call; never retried automatically.
type ConfigError struct {
	Kind    ProviderKind
	Setting string // name of the missing setting, e.g. "ANTHROPIC_API_KEY"
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured for provider %q", e.Setting, e.Kind)
}

// ConnectivityError indicates a local inference server could not be reached
// during the liveness probe. The Hint names the remedy.
type ConnectivityError struct {
	Kind    ProviderKind
	BaseURL string
	Hint    string // e.g. "start it with 'ollama serve'"
	Err     error
}

func (e ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach %s server at %s (%s): %v", e.Kind, e.BaseURL, e.Hint, e.Err)
}

func (e ConnectivityError) Unwrap() error {
	return e.Err
}

// ErrNotSupported is returned when a generator doesn't support an operation.
type ErrNotSupported struct {
	Provider  string
	Operation string
}

func (e ErrNotSupported) Error() string {
	return e.Provider + " does not support " + e.Operation
}
