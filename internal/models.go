package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Message roles as the backend reports them.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// StreamStep is one discrete unit of agent progress extracted from the
// response stream. Immutable once decoded.
type StreamStep struct {
	Step       string `json:"step" yaml:"step"`
	Content    string `json:"content" yaml:"content"`
	RawContent string `json:"rawContent" yaml:"raw_content"`
}

// Message is the terminal unit of a chat transcript.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// MessageWithSteps annotates an assistant message with the ordered steps
// that produced it. Steps is nil for human messages and for history
// messages, which arrive without step detail.
type MessageWithSteps struct {
	Message `yaml:",inline"`
	Steps   []StreamStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// ChatSession is one entry in the per-user session list.
type ChatSession struct {
	SessionID string `json:"sessionId" yaml:"session_id"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Transcript is a locally cached view of one session's messages.
type Transcript struct {
	SessionID string             `json:"session_id" yaml:"session_id"`
	FetchedAt string             `json:"fetched_at" yaml:"fetched_at"`
	Messages  []MessageWithSteps `json:"messages" yaml:"messages"`
}

// NewChatSession creates a session record stamped with the current time.
func NewChatSession() ChatSession {
	now := time.Now()
	return ChatSession{
		SessionID: fmt.Sprintf("session_%d", now.UnixMilli()),
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

// ParseSessionRecord parses one stored list element into a ChatSession.
func ParseSessionRecord(value string) (*ChatSession, error) {
	var session ChatSession
	if err := json.Unmarshal([]byte(value), &session); err != nil {
		return nil, fmt.Errorf("failed to parse session record: %w", err)
	}
	if session.SessionID == "" {
		return nil, fmt.Errorf("session record has empty sessionId")
	}
	if _, err := time.Parse(time.RFC3339, session.Timestamp); err != nil {
		return nil, fmt.Errorf("session record has invalid timestamp %q: %w", session.Timestamp, err)
	}
	return &session, nil
}

// ParseSessionRecords parses stored list elements into validated sessions,
// sorted descending by timestamp. Unparsable or invalid elements are dropped,
// not surfaced; a corrupt element must not block the rest of the list.
func ParseSessionRecords(values []string) []ChatSession {
	sessions := make([]ChatSession, 0, len(values))
	for _, value := range values {
		session, err := ParseSessionRecord(value)
		if err != nil {
			LogDebug("Dropping malformed session record: %v", err)
			continue
		}
		sessions = append(sessions, *session)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		ti, _ := time.Parse(time.RFC3339, sessions[i].Timestamp)
		tj, _ := time.Parse(time.RFC3339, sessions[j].Timestamp)
		return ti.After(tj)
	})

	return sessions
}

// Encode serializes a session record the way the row store expects it.
func (cs ChatSession) Encode() (string, error) {
	data, err := json.Marshal(cs)
	if err != nil {
		return "", fmt.Errorf("failed to encode session record: %w", err)
	}
	return string(data), nil
}
