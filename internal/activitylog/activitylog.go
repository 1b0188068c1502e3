// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package activitylog persists engine activity to a SQLite database: searches,
// workflow phases, and AI backend calls, with filtered paging and aggregate
// statistics.
package activitylog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Event is one logged activity record.
type Event struct {
	ID         int64     `json:"id" yaml:"id"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Type       string    `json:"type" yaml:"type"`
	Page       string    `json:"page,omitempty" yaml:"page,omitempty"`
	Action     string    `json:"action,omitempty" yaml:"action,omitempty"`
	Success    bool      `json:"success" yaml:"success"`
	DurationMS int64     `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	SessionID  string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	AIPrompt   string    `json:"ai_prompt,omitempty" yaml:"ai_prompt,omitempty"`
	AIResponse string    `json:"ai_response,omitempty" yaml:"ai_response,omitempty"`
	Tokens     int       `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Event types written by the engine.
const (
	TypeSearch   = "search"
	TypeWorkflow = "workflow"
	TypeAICall   = "ai_call"
)

// Filter narrows a Query. Zero-valued fields do not constrain.
type Filter struct {
	Type      string
	Page      string
	Success   *bool
	SessionID string
	Since     time.Time
	Limit     int
	Offset    int
}

// Stats summarizes the whole log.
type Stats struct {
	TotalLogs      int     `json:"total_logs" yaml:"total_logs"`
	UniqueSessions int     `json:"unique_sessions" yaml:"unique_sessions"`
	SuccessRate    float64 `json:"success_rate" yaml:"success_rate"`
	AICalls        int     `json:"ai_calls" yaml:"ai_calls"`
	TotalTokens    int     `json:"total_tokens" yaml:"total_tokens"`
}

// Store manages the activity log SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the activity log database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			type TEXT NOT NULL,
			page TEXT,
			action TEXT,
			success INTEGER NOT NULL,
			duration_ms INTEGER,
			session_id TEXT,
			ai_prompt TEXT,
			ai_response TEXT,
			tokens INTEGER,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_type ON activity(type)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_session ON activity(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity(timestamp)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Write appends one event. A zero Timestamp is filled with the current time.
func (s *Store) Write(ctx context.Context, ev Event) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (timestamp, type, page, action, success, duration_ms,
			session_id, ai_prompt, ai_response, tokens, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC().Format(time.RFC3339Nano), ev.Type, ev.Page, ev.Action,
		boolToInt(ev.Success), ev.DurationMS, ev.SessionID,
		ev.AIPrompt, ev.AIResponse, ev.Tokens, ev.Error,
	)
	if err != nil {
		return fmt.Errorf("writing activity event: %w", err)
	}
	return nil
}

// Query returns a page of events matching the filter, newest first, and the
// total match count before paging.
func (s *Store) Query(ctx context.Context, f Filter) ([]Event, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM activity`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting activity events: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, timestamp, type, page, action, success, duration_ms,
		session_id, ai_prompt, ai_response, tokens, error
		FROM activity` + where + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying activity events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var ts string
		var success int
		if err := rows.Scan(&ev.ID, &ts, &ev.Type, &ev.Page, &ev.Action,
			&success, &ev.DurationMS, &ev.SessionID,
			&ev.AIPrompt, &ev.AIResponse, &ev.Tokens, &ev.Error); err != nil {
			return nil, 0, fmt.Errorf("scanning activity event: %w", err)
		}
		ev.Success = success != 0
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.Timestamp = parsed
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}

// Stats aggregates the full log.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT
			count(*),
			count(DISTINCT CASE WHEN session_id != '' THEN session_id END),
			coalesce(avg(success), 0),
			count(CASE WHEN type = ? THEN 1 END),
			coalesce(sum(tokens), 0)
		FROM activity`, TypeAICall,
	).Scan(&st.TotalLogs, &st.UniqueSessions, &st.SuccessRate, &st.AICalls, &st.TotalTokens)
	if err != nil {
		return Stats{}, fmt.Errorf("computing activity stats: %w", err)
	}
	return st, nil
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if f.Page != "" {
		conds = append(conds, "page = ?")
		args = append(args, f.Page)
	}
	if f.Success != nil {
		conds = append(conds, "success = ?")
		args = append(args, boolToInt(*f.Success))
	}
	if f.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
