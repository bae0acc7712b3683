package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roelfdiedericks/switchboard/internal/llm"
)

func setupJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalMessages(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: "hello"},
		{Role: llm.RoleAssistant, Content: "hi"},
	}
	for _, m := range msgs {
		if err := j.AppendMessage(ctx, "s1", m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := j.AppendMessage(ctx, "s2", llm.Message{Role: llm.RoleUser, Content: "other session"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := j.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("messages = %d, want 2", len(got))
	}
	if got[0] != msgs[0] || got[1] != msgs[1] {
		t.Errorf("messages = %+v", got)
	}
}

func TestJournalModelChanges(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	changes := []ModelChange{
		{SessionID: "s1", FromModel: "", ToModel: "llama3.1:8b", Kind: llm.KindOllama, Strength: "weak"},
		{SessionID: "s1", FromModel: "llama3.1:8b", ToModel: "llama3.1:70b", Kind: llm.KindOllama, Strength: "strong"},
	}
	for _, c := range changes {
		if err := j.RecordModelChange(ctx, c); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := j.ModelChanges(ctx, "s1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("changes = %d, want 2", len(got))
	}
	if got[0].ToModel != "llama3.1:8b" || got[0].Strength != "weak" {
		t.Errorf("first change = %+v", got[0])
	}
	if got[1].FromModel != "llama3.1:8b" || got[1].ToModel != "llama3.1:70b" {
		t.Errorf("second change = %+v", got[1])
	}
	if got[1].Kind != llm.KindOllama {
		t.Errorf("kind = %q", got[1].Kind)
	}
	if got[1].At.IsZero() {
		t.Error("change missing timestamp")
	}
}

func TestJournalReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := j.AppendMessage(context.Background(), "s1", llm.Message{Role: llm.RoleUser, Content: "persist me"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	j.Close()

	j2, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()

	got, err := j2.Messages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].Content != "persist me" {
		t.Errorf("messages = %+v", got)
	}
}
