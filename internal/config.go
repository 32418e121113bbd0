package internal

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the identity-provider and backend settings. Loaded from
// ~/.agent-chat/config.yaml, with AGENT_CHAT_* environment overrides for the
// values that change between deployments.
type Config struct {
	Region         string `yaml:"region"`
	UserPoolDomain string `yaml:"user_pool_domain"`
	UserPoolID     string `yaml:"user_pool_id"`
	ClientID       string `yaml:"client_id"`
	IdentityPoolID string `yaml:"identity_pool_id"`
	RedirectURI    string `yaml:"redirect_uri"`
	LogoutURI      string `yaml:"logout_uri"`
	SessionTable   string `yaml:"session_table"`
	AgentEndpoint  string `yaml:"agent_endpoint"`
}

// DefaultConfigDir returns the directory holding config and local state.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".agent-chat"), nil
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadConfig reads a YAML config file and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"AGENT_CHAT_REGION", &cfg.Region},
		{"AGENT_CHAT_ENDPOINT", &cfg.AgentEndpoint},
		{"AGENT_CHAT_SESSION_TABLE", &cfg.SessionTable},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// Validate checks that every required field is present.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"region", c.Region},
		{"user_pool_domain", c.UserPoolDomain},
		{"user_pool_id", c.UserPoolID},
		{"client_id", c.ClientID},
		{"identity_pool_id", c.IdentityPoolID},
		{"redirect_uri", c.RedirectURI},
		{"session_table", c.SessionTable},
		{"agent_endpoint", c.AgentEndpoint},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("config field %s is required", f.name)
		}
	}
	return nil
}

// hostedDomain returns the identity provider's hosted UI host.
func (c *Config) hostedDomain() string {
	return fmt.Sprintf("%s.auth.%s.amazoncognito.com", c.UserPoolDomain, c.Region)
}

// TokenURL returns the OAuth2 token endpoint.
func (c *Config) TokenURL() string {
	return fmt.Sprintf("https://%s/oauth2/token", c.hostedDomain())
}

// AuthURL returns the OAuth2 authorization endpoint.
func (c *Config) AuthURL() string {
	return fmt.Sprintf("https://%s/login", c.hostedDomain())
}

// SignInURL returns the hosted sign-in page URL for the configured client.
func (c *Config) SignInURL() string {
	return fmt.Sprintf("%s?client_id=%s&response_type=code&scope=email+openid+profile&redirect_uri=%s",
		c.AuthURL(), c.ClientID, c.RedirectURI)
}

// SignOutURL returns the hosted logout URL for the configured client.
func (c *Config) SignOutURL() string {
	return fmt.Sprintf("https://%s/logout?client_id=%s&logout_uri=%s",
		c.hostedDomain(), c.ClientID, url.QueryEscape(c.LogoutURI))
}

// ProviderName returns the identity-pool login provider key for the user pool.
func (c *Config) ProviderName() string {
	return fmt.Sprintf("cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}
