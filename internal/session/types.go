// Package session holds conversation state: the live chat bound to a
// generator, point-in-time snapshots carried across model switches,
// and the journal that records what happened.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/roelfdiedericks/switchboard/internal/llm"
)

// Snapshot captures everything needed to resume a conversation under a
// new generator. It lives for exactly one switch cycle: taken before
// the switch, consumed by rehydration, then discarded.
type Snapshot struct {
	ID       uuid.UUID
	Messages []llm.Message
	Config   llm.GeneratorConfig
	Model    string
	Kind     llm.ProviderKind
	TakenAt  time.Time
}

// TokenEstimate returns the approximate token cost of the snapshot's
// history, including per-message overhead.
func (s *Snapshot) TokenEstimate() int {
	total := 0
	for _, m := range s.Messages {
		total += estimateMessage(m)
	}
	return total
}
