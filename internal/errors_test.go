package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestAuthError(t *testing.T) {
	originalErr := errors.New("invalid_grant")
	err := &AuthError{
		Op:  "refresh",
		Err: originalErr,
	}

	// Test Error() method
	errorMsg := err.Error()
	if errorMsg == "" {
		t.Error("AuthError.Error() returned empty string")
	}
	if !strings.Contains(errorMsg, "auth error") {
		t.Errorf("AuthError.Error() should contain 'auth error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "refresh") {
		t.Errorf("AuthError.Error() should contain op, got: %q", errorMsg)
	}

	// Test Unwrap() method
	if !errors.Is(err, originalErr) {
		t.Error("AuthError.Unwrap() should return original error")
	}
}

func TestRequestError(t *testing.T) {
	err := &RequestError{
		URL:    "http://localhost:8080/invocations",
		Status: 502,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "request error") {
		t.Errorf("RequestError.Error() should contain 'request error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "502") {
		t.Errorf("RequestError.Error() should contain status, got: %q", errorMsg)
	}

	originalErr := errors.New("connection refused")
	err = &RequestError{
		URL: "http://localhost:8080/invocations",
		Err: originalErr,
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("RequestError.Error() without status should contain wrapped error, got: %q", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("RequestError.Unwrap() should return original error")
	}
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("throttled")
	err := &StoreError{
		Op:    "append",
		Table: "chat-sessions",
		Err:   originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "store error") {
		t.Errorf("StoreError.Error() should contain 'store error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "chat-sessions") {
		t.Errorf("StoreError.Error() should contain table, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("StoreError.Unwrap() should return original error")
	}
}

func TestCacheError(t *testing.T) {
	originalErr := errors.New("database is locked")
	err := &CacheError{
		Op:        "put",
		SessionID: "session_1",
		Err:       originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "cache error") {
		t.Errorf("CacheError.Error() should contain 'cache error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "session_1") {
		t.Errorf("CacheError.Error() should contain session ID, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("CacheError.Unwrap() should return original error")
	}
}

func TestExportError(t *testing.T) {
	originalErr := errors.New("write failed")
	err := &ExportError{
		Format: "jsonl",
		Path:   "/output/file.jsonl",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "export error") {
		t.Errorf("ExportError.Error() should contain 'export error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "jsonl") {
		t.Errorf("ExportError.Error() should contain format, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("ExportError.Unwrap() should return original error")
	}
}
