package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// TranscriptCache is a local SQLite cache of fetched transcripts, keyed by
// session ID. It exists so history and export work offline; every cache
// failure is advisory and callers log-and-continue.
type TranscriptCache struct {
	db *sql.DB
}

const createTranscriptsTable = `
CREATE TABLE IF NOT EXISTS transcripts (
	session_id TEXT PRIMARY KEY,
	fetched_at TEXT NOT NULL,
	messages   TEXT NOT NULL
)`

// OpenTranscriptCache opens (or creates) the cache database at path.
func OpenTranscriptCache(path string) (*TranscriptCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &CacheError{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &CacheError{Op: "open", Err: fmt.Errorf("database ping failed: %w", err)}
	}

	if _, err := db.Exec(createTranscriptsTable); err != nil {
		_ = db.Close()
		return nil, &CacheError{Op: "open", Err: fmt.Errorf("failed to create transcripts table: %w", err)}
	}

	return &TranscriptCache{db: db}, nil
}

// Put stores (or replaces) the transcript for a session.
func (tc *TranscriptCache) Put(sessionID string, messages []MessageWithSteps) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return &CacheError{Op: "put", SessionID: sessionID, Err: err}
	}

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	_, err = tc.db.Exec(
		`INSERT INTO transcripts (session_id, fetched_at, messages) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET fetched_at = excluded.fetched_at, messages = excluded.messages`,
		sessionID, fetchedAt, string(data))
	if err != nil {
		return &CacheError{Op: "put", SessionID: sessionID, Err: err}
	}
	return nil
}

// Get returns the cached transcript for a session, or nil if none is cached.
func (tc *TranscriptCache) Get(sessionID string) (*Transcript, error) {
	var fetchedAt, messagesJSON string
	err := tc.db.QueryRow(
		"SELECT fetched_at, messages FROM transcripts WHERE session_id = ?",
		sessionID).Scan(&fetchedAt, &messagesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &CacheError{Op: "get", SessionID: sessionID, Err: err}
	}

	var messages []MessageWithSteps
	if err := json.Unmarshal([]byte(messagesJSON), &messages); err != nil {
		return nil, &CacheError{Op: "get", SessionID: sessionID, Err: fmt.Errorf("corrupt cached transcript: %w", err)}
	}

	return &Transcript{
		SessionID: sessionID,
		FetchedAt: fetchedAt,
		Messages:  messages,
	}, nil
}

// Delete removes the cached transcript for a session, if any.
func (tc *TranscriptCache) Delete(sessionID string) error {
	if _, err := tc.db.Exec("DELETE FROM transcripts WHERE session_id = ?", sessionID); err != nil {
		return &CacheError{Op: "delete", SessionID: sessionID, Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (tc *TranscriptCache) Close() error {
	return tc.db.Close()
}
