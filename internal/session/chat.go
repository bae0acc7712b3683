package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/roelfdiedericks/switchboard/internal/llm"
	. "github.com/roelfdiedericks/switchboard/internal/logging"
)

// Chat is a live conversation bound to a single generator. A model
// switch never mutates a Chat; it builds a new one and swaps it in.
type Chat struct {
	id      uuid.UUID
	gen     llm.Generator
	history []llm.Message

	journal   *Journal
	sessionID string
}

// NewChat creates an empty chat bound to gen.
func NewChat(gen llm.Generator) *Chat {
	return &Chat{id: uuid.New(), gen: gen}
}

// NewChatWithHistory creates a chat preloaded with history, used to
// rehydrate from a snapshot after a switch. The history is copied.
func NewChatWithHistory(gen llm.Generator, history []llm.Message) *Chat {
	c := &Chat{id: uuid.New(), gen: gen}
	c.history = append(c.history, history...)
	return c
}

func (c *Chat) ID() uuid.UUID { return c.id }

// BindJournal attaches a journal so generated turns are recorded under
// the given session id. A nil journal disables recording. Rehydrated
// history is not re-journaled; only new turns are.
func (c *Chat) BindJournal(j *Journal, sessionID string) {
	c.journal = j
	c.sessionID = sessionID
}

// History returns a copy of the turn history.
func (c *Chat) History() []llm.Message {
	out := make([]llm.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Append records a turn without generating, used when the upward
// caller drives generation itself.
func (c *Chat) Append(msg llm.Message) {
	c.history = append(c.history, msg)
}

// Send appends the user turn, generates a reply and appends it.
func (c *Chat) Send(ctx context.Context, text string) (*llm.Response, error) {
	c.history = append(c.history, llm.Message{Role: llm.RoleUser, Content: text})

	resp, err := c.gen.Generate(ctx, c.history, nil)
	if err != nil {
		// Keep the user turn; a retry after a transient failure
		// should not lose what they typed.
		return nil, err
	}

	reply := llm.Message{Role: llm.RoleAssistant, Content: resp.Text}
	c.history = append(c.history, reply)
	c.record(ctx, llm.Message{Role: llm.RoleUser, Content: text}, reply)
	return resp, nil
}

// Stream is Send with per-chunk delivery.
func (c *Chat) Stream(ctx context.Context, text string, onDelta func(string)) (*llm.Response, error) {
	c.history = append(c.history, llm.Message{Role: llm.RoleUser, Content: text})

	resp, err := c.gen.Stream(ctx, c.history, nil, onDelta)
	if err != nil {
		return nil, err
	}

	reply := llm.Message{Role: llm.RoleAssistant, Content: resp.Text}
	c.history = append(c.history, reply)
	c.record(ctx, llm.Message{Role: llm.RoleUser, Content: text}, reply)
	return resp, nil
}

// record journals completed turns. Best-effort: a journal failure
// never fails the turn that produced it.
func (c *Chat) record(ctx context.Context, msgs ...llm.Message) {
	if c.journal == nil {
		return
	}
	for _, m := range msgs {
		if err := c.journal.AppendMessage(ctx, c.sessionID, m); err != nil {
			L_warn("session: failed to journal turn", "error", err)
			return
		}
	}
}

// TakeSnapshot captures the chat's history and the generator config it
// was running under.
func (c *Chat) TakeSnapshot(cfg llm.GeneratorConfig) *Snapshot {
	snap := &Snapshot{
		ID:       uuid.New(),
		Messages: make([]llm.Message, len(c.history)),
		Config:   cfg,
		Model:    c.gen.Model(),
		Kind:     c.gen.Kind(),
		TakenAt:  time.Now(),
	}
	copy(snap.Messages, c.history)
	L_debug("session: snapshot taken", "id", snap.ID, "messages", len(snap.Messages), "model", snap.Model)
	return snap
}
