package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const validConfigYAML = `
region: eu-west-1
user_pool_domain: research-assistant
user_pool_id: eu-west-1_abc123
client_id: client-id
identity_pool_id: "eu-west-1:pool-id"
redirect_uri: http://localhost:3000/callback
logout_uri: http://localhost:3000/
session_table: chat-sessions
agent_endpoint: http://localhost:8080/invocations
`

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Errorf("Region = %q, want eu-west-1", cfg.Region)
	}
	if cfg.SessionTable != "chat-sessions" {
		t.Errorf("SessionTable = %q, want chat-sessions", cfg.SessionTable)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)
	t.Setenv("AGENT_CHAT_REGION", "us-east-1")
	t.Setenv("AGENT_CHAT_ENDPOINT", "http://override:9000/invocations")
	t.Setenv("AGENT_CHAT_SESSION_TABLE", "override-table")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Region != "us-east-1" {
		t.Errorf("Region = %q, want the env override", cfg.Region)
	}
	if cfg.AgentEndpoint != "http://override:9000/invocations" {
		t.Errorf("AgentEndpoint = %q, want the env override", cfg.AgentEndpoint)
	}
	if cfg.SessionTable != "override-table" {
		t.Errorf("SessionTable = %q, want the env override", cfg.SessionTable)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() on missing file should fail")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "region: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() on invalid YAML should fail")
	}
}

func TestValidateMissingField(t *testing.T) {
	cfg := testConfig()
	cfg.ClientID = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() with empty client_id should fail")
	}
	if !strings.Contains(err.Error(), "client_id") {
		t.Errorf("error %q does not name the missing field", err)
	}
}

func TestConfigURLs(t *testing.T) {
	cfg := testConfig()

	if got, want := cfg.TokenURL(), "https://research-assistant.auth.eu-west-1.amazoncognito.com/oauth2/token"; got != want {
		t.Errorf("TokenURL() = %q, want %q", got, want)
	}
	if got := cfg.SignInURL(); !strings.Contains(got, "client_id=client-id") || !strings.Contains(got, "response_type=code") {
		t.Errorf("SignInURL() = %q, missing expected query parameters", got)
	}
	if got := cfg.SignOutURL(); !strings.Contains(got, "/logout?") || !strings.Contains(got, "logout_uri=") {
		t.Errorf("SignOutURL() = %q, missing logout parameters", got)
	}
}

func TestProviderName(t *testing.T) {
	cfg := testConfig()
	if got, want := cfg.ProviderName(), "cognito-idp.eu-west-1.amazonaws.com/eu-west-1_abc123"; got != want {
		t.Errorf("ProviderName() = %q, want %q", got, want)
	}
}
