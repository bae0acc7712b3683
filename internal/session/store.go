package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roelfdiedericks/switchboard/internal/llm"
	. "github.com/roelfdiedericks/switchboard/internal/logging"
)

// Journal persists what happened in a session: the turn history and
// every model change, keyed by session id. Backed by SQLite.
type Journal struct {
	db *sql.DB
}

// ModelChange records one successful switch.
type ModelChange struct {
	SessionID string
	FromModel string
	ToModel   string
	Kind      llm.ProviderKind
	Strength  string // empty for explicit-model switches
	At        time.Time
}

const journalSchemaVersion = 1

// OpenJournal opens (creating if needed) the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration failed: %w", err)
	}

	L_info("journal: opened", "path", path)
	return j, nil
}

func (j *Journal) migrate() error {
	var version int
	err := j.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err != nil {
		version = 0
	}
	if version >= journalSchemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);
	INSERT INTO schema_version (version, applied_at) VALUES (1, ?);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

	CREATE TABLE IF NOT EXISTS model_changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		from_model TEXT NOT NULL,
		to_model TEXT NOT NULL,
		kind TEXT NOT NULL,
		strength TEXT NOT NULL DEFAULT '',
		changed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_changes_session ON model_changes(session_id);
	`

	if _, err := j.db.Exec(schema, time.Now().Unix()); err != nil {
		return err
	}
	L_debug("journal: schema applied", "version", journalSchemaVersion)
	return nil
}

// AppendMessage records one turn.
func (j *Journal) AppendMessage(ctx context.Context, sessionID string, msg llm.Message) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		sessionID, msg.Role, msg.Content, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Messages returns the turn history for a session, oldest first.
func (j *Journal) Messages(ctx context.Context, sessionID string) ([]llm.Message, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE session_id = ? ORDER BY id", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []llm.Message
	for rows.Next() {
		var m llm.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecordModelChange journals one successful switch.
func (j *Journal) RecordModelChange(ctx context.Context, change ModelChange) error {
	at := change.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO model_changes (session_id, from_model, to_model, kind, strength, changed_at) VALUES (?, ?, ?, ?, ?, ?)",
		change.SessionID, change.FromModel, change.ToModel, string(change.Kind), change.Strength, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to record model change: %w", err)
	}
	L_debug("journal: model change recorded", "from", change.FromModel, "to", change.ToModel, "kind", change.Kind)
	return nil
}

// ModelChanges returns a session's switch history, oldest first.
func (j *Journal) ModelChanges(ctx context.Context, sessionID string) ([]ModelChange, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT from_model, to_model, kind, strength, changed_at FROM model_changes WHERE session_id = ? ORDER BY id",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query model changes: %w", err)
	}
	defer rows.Close()

	var out []ModelChange
	for rows.Next() {
		var c ModelChange
		var kind string
		var at int64
		if err := rows.Scan(&c.FromModel, &c.ToModel, &kind, &c.Strength, &at); err != nil {
			return nil, fmt.Errorf("failed to scan model change: %w", err)
		}
		c.SessionID = sessionID
		c.Kind = llm.ProviderKind(kind)
		c.At = time.Unix(at, 0)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
