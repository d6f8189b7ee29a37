// SQLite-backed persistence for advisor sessions and final decisions.
package convlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/oscarlabs/oscarr/voice"
)

// StoredSession is one advisor call cycle as persisted.
type StoredSession struct {
	ID             string
	ConversationID string
	CallID         string
	StartedAt      time.Time
	EndedAt        *time.Time
	UnusedFunds    float64
	DecisionJSON   string
}

// Store persists advisor sessions to SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (and initializes) the session database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		call_id TEXT DEFAULT '',
		unused_funds REAL DEFAULT 0,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		symbol TEXT DEFAULT '',
		amount REAL DEFAULT 0,
		completed INTEGER DEFAULT 0,
		decision_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_conversation_id ON sessions(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_decisions_session_id ON decisions(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// StartSession records the beginning of an advisor cycle.
func (s *Store) StartSession(ctx context.Context, conversationID, callID string, unusedFunds float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, conversation_id, call_id, unused_funds, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, conversationID, callID, unusedFunds, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}

	return id, nil
}

// EndSession marks a session finished.
func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ? WHERE id = ?
	`, time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("session not found")
	}
	return nil
}

// SaveDecision persists the structured decision for a session.
func (s *Store) SaveDecision(ctx context.Context, sessionID string, decision *voice.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decisionJSON, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	completed := 0
	if decision.InvestmentCompleted {
		completed = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, session_id, symbol, amount, completed, decision_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), sessionID, decision.PreferredInvestment, decision.InvestmentAmount,
		completed, string(decisionJSON), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// RecentSessions returns the latest sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]StoredSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.conversation_id, s.call_id, s.unused_funds, s.started_at, s.ended_at,
		       COALESCE(d.decision_json, '')
		FROM sessions s
		LEFT JOIN decisions d ON d.session_id = s.id
		ORDER BY s.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []StoredSession
	for rows.Next() {
		var sess StoredSession
		var endedAt sql.NullTime

		if err := rows.Scan(&sess.ID, &sess.ConversationID, &sess.CallID, &sess.UnusedFunds,
			&sess.StartedAt, &endedAt, &sess.DecisionJSON); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		if endedAt.Valid {
			t := endedAt.Time
			sess.EndedAt = &t
		}

		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
