package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// historyPrompt is the sentinel prompt that makes the backend return the
// stored transcript for a thread instead of streaming a reply.
const historyPrompt = "#*HIST*#"

// streamReadSize is the read buffer for chunked response bodies.
const streamReadSize = 4096

// InvokeInput is the request body for one agent invocation.
type InvokeInput struct {
	Prompt   string `json:"prompt"`
	ActorID  string `json:"actor_id"`
	ThreadID string `json:"thread_id"`
}

type invokePayload struct {
	Input InvokeInput `json:"input"`
}

// historyRecord is the backend's shape for one stored message. Content is
// either a plain string or an array of typed parts.
type historyRecord struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TokenRefresher renews stored token material after an authorization
// failure. Satisfied by *AuthService.
type TokenRefresher interface {
	Renew(ctx context.Context) error
}

// AgentClient talks to the backend agent endpoint with bearer-token
// authorization. On a 401 it silently refreshes the token exactly once and
// retries exactly once; any other failure is terminal for that call.
type AgentClient struct {
	endpoint   string
	store      CredentialStore
	refresher  TokenRefresher
	httpClient *http.Client
}

// NewAgentClient creates a client for the given invocation endpoint.
func NewAgentClient(endpoint string, store CredentialStore, refresher TokenRefresher) *AgentClient {
	return &AgentClient{
		endpoint:   endpoint,
		store:      store,
		refresher:  refresher,
		httpClient: http.DefaultClient,
	}
}

// InvokeStream sends a prompt and consumes the streamed response body,
// calling onChunk with each delivery as it arrives. Chunks are handed over
// synchronously in arrival order. Returns the full response text.
func (c *AgentClient) InvokeStream(ctx context.Context, input InvokeInput, onChunk func(chunk string)) (string, error) {
	resp, err := c.doAuthenticated(ctx, invokePayload{Input: input})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var fullText strings.Builder
	buf := make([]byte, streamReadSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			fullText.WriteString(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fullText.String(), &RequestError{URL: c.endpoint, Err: fmt.Errorf("stream read failed: %w", err)}
		}
	}

	return fullText.String(), nil
}

// GetHistory fetches the stored transcript for a thread. Backend records of
// shape {type, content} map to messages; content arrives either as an array
// of typed parts (the first "text" part wins) or as a plain string, and the
// boilerplate marker is stripped either way. History loss is non-fatal: any
// failure returns an empty transcript, never an error.
func (c *AgentClient) GetHistory(ctx context.Context, actorID, threadID string) []Message {
	payload := invokePayload{Input: InvokeInput{
		Prompt:   historyPrompt,
		ActorID:  actorID,
		ThreadID: threadID,
	}}

	resp, err := c.doAuthenticated(ctx, payload)
	if err != nil {
		LogWarn("Failed to fetch history: %v", err)
		return []Message{}
	}
	defer func() { _ = resp.Body.Close() }()

	var records []historyRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		LogWarn("Failed to decode history response: %v", err)
		return []Message{}
	}

	messages := make([]Message, 0, len(records))
	for _, rec := range records {
		messages = append(messages, Message{
			Role:    rec.Type,
			Content: StripBoilerplate(extractRecordText(rec.Content)),
		})
	}
	return messages
}

// extractRecordText handles the two content encodings history records use.
func extractRecordText(content json.RawMessage) string {
	var plain string
	if err := json.Unmarshal(content, &plain); err == nil {
		return plain
	}

	var parts []contentPart
	if err := json.Unmarshal(content, &parts); err == nil {
		for _, part := range parts {
			if part.Type == "text" {
				return part.Text
			}
		}
	}

	return ""
}

// doAuthenticated performs a bearer-authorized POST. One 401 triggers one
// refresh and one retry; a missing refresh credential fails before any
// refresh call goes out. Any other non-2xx status fails immediately with the
// status code. The caller owns the response body.
func (c *AgentClient) doAuthenticated(ctx context.Context, payload interface{}) (*http.Response, error) {
	token, ok := c.store.Get(KeyIDToken)
	if !ok || token == "" {
		return nil, &AuthError{Op: "request", Err: ErrNoToken}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestError{URL: c.endpoint, Err: err}
	}

	resp, err := c.post(ctx, token, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		LogInfo("Token rejected, attempting renewal and retry")

		if _, ok := c.store.Get(KeyRefreshToken); !ok {
			return nil, &AuthError{Op: "request", Err: ErrNoRefreshToken}
		}
		if err := c.refresher.Renew(ctx); err != nil {
			return nil, fmt.Errorf("failed to renew token: %w", err)
		}

		token, ok = c.store.Get(KeyIDToken)
		if !ok || token == "" {
			return nil, &AuthError{Op: "request", Err: fmt.Errorf("no token present after renewal: %w", ErrNoToken)}
		}

		resp, err = c.post(ctx, token, body)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, &RequestError{URL: c.endpoint, Status: resp.StatusCode}
	}

	return resp, nil
}

func (c *AgentClient) post(ctx context.Context, token string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{URL: c.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{URL: c.endpoint, Err: err}
	}
	return resp, nil
}
