// Package historystore persists exported conversation history in SQLite so a
// restarted process can pick up where the previous one stopped.
package historystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ziadkadry99/kompas/internal/conversation"
	"github.com/ziadkadry99/kompas/internal/db"
)

// ErrNoSession is returned when no session has been saved yet.
var ErrNoSession = errors.New("no saved session")

// Store provides session persistence backed by SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a new history store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// Save replaces the stored turns of sessionID with turns, creating the
// session if needed. The write is a single transaction.
func (s *Store) Save(ctx context.Context, sessionID string, turns []conversation.Turn) error {
	if sessionID == "" {
		return fmt.Errorf("saving history: empty session id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_sessions (id) VALUES (?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = datetime('now')`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chat_messages (id, session_id, seq, role, content, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range turns {
		meta, err := encodeMetadata(t.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata of turn %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), sessionID, i, string(t.Role), t.Content, meta); err != nil {
			return fmt.Errorf("inserting turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history: %w", err)
	}
	return nil
}

// Load returns the turns of sessionID in order.
func (s *Store) Load(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chat_sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, metadata FROM chat_messages
		 WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	turns := []conversation.Turn{}
	for rows.Next() {
		var (
			role, content, meta string
		)
		if err := rows.Scan(&role, &content, &meta); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		t := conversation.Turn{Role: conversation.Role(role), Content: content}
		if err := json.Unmarshal([]byte(meta), &t.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Latest returns the most recently updated session and its turns.
func (s *Store) Latest(ctx context.Context) (string, []conversation.Turn, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM chat_sessions ORDER BY updated_at DESC, rowid DESC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil, ErrNoSession
	}
	if err != nil {
		return "", nil, fmt.Errorf("querying latest session: %w", err)
	}

	turns, err := s.Load(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, turns, nil
}

// Prune deletes all sessions except the keep most recently updated ones.
// Messages go with their session.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_sessions WHERE id NOT IN (
			SELECT id FROM chat_sessions ORDER BY updated_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return res.RowsAffected()
}

func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
