package internal

import "fmt"

// AuthError represents failures in the token lifecycle
type AuthError struct {
	Op  string // "exchange", "refresh", "expiry"
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RequestError represents a non-auth HTTP failure talking to the agent
type RequestError struct {
	URL    string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request error: %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("request error: %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StoreError represents errors talking to the session row store
type StoreError struct {
	Op    string // "get", "append", "delete"
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// CacheError represents errors reading or writing the local transcript cache
type CacheError struct {
	Op        string // "open", "get", "put"
	SessionID string
	Err       error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during transcript export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error: [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
