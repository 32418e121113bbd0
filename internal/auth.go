package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Sentinel errors for missing prerequisite state.
var (
	ErrNoToken        = errors.New("no authentication token found")
	ErrNoRefreshToken = errors.New("no refresh token found")
)

// AuthService manages the token lifecycle against the hosted OAuth2/OIDC
// provider: authorization-code exchange, silent refresh, expiry detection,
// and sign-out. Token material lives in the injected CredentialStore.
type AuthService struct {
	cfg   *Config
	store CredentialStore
	oauth *oauth2.Config

	// refreshMu makes refresh single-flight; overlapping callers hitting a
	// 401 at the same time should not race redundant refresh calls.
	refreshMu sync.Mutex

	now func() time.Time
}

// NewAuthService creates an auth service for the configured provider.
func NewAuthService(cfg *Config, store CredentialStore) *AuthService {
	return &AuthService{
		cfg:   cfg,
		store: store,
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      []string{"email", "openid", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL(),
				TokenURL: cfg.TokenURL(),
			},
		},
		now: time.Now,
	}
}

// ExchangeCode trades an authorization code for tokens and stores them.
func (a *AuthService) ExchangeCode(ctx context.Context, code string) error {
	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return &AuthError{Op: "exchange", Err: err}
	}

	a.storeTokens(tok)
	return nil
}

// Renew performs a silent token refresh using the stored refresh credential.
// It fails without a network call when no refresh credential is present.
// A failed refresh clears the store: stale token material is worse than
// forcing a fresh sign-in.
func (a *AuthService) Renew(ctx context.Context) error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	refreshToken, ok := a.store.Get(KeyRefreshToken)
	if !ok || refreshToken == "" {
		return &AuthError{Op: "refresh", Err: ErrNoRefreshToken}
	}

	source := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := source.Token()
	if err != nil {
		LogWarn("Token refresh failed, signing out: %v", err)
		a.SignOut()
		return &AuthError{Op: "refresh", Err: err}
	}

	// The provider does not return a new refresh token on refresh; keep the
	// existing one.
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	a.storeTokens(tok)
	return nil
}

// CheckExpiry refreshes the stored tokens if they have expired. Expiry is
// read from the ID token's exp claim, falling back to the expiry recorded at
// exchange time. Nothing stored means nothing to check.
func (a *AuthService) CheckExpiry(ctx context.Context) error {
	expiry, ok := a.tokenExpiry()
	if !ok {
		return nil
	}
	if a.now().Before(expiry) {
		return nil
	}

	LogInfo("Token expired, attempting silent refresh")
	return a.Renew(ctx)
}

// IDToken returns the stored identity token.
func (a *AuthService) IDToken() (string, error) {
	token, ok := a.store.Get(KeyIDToken)
	if !ok || token == "" {
		return "", &AuthError{Op: "token", Err: ErrNoToken}
	}
	return token, nil
}

// SignOut clears all stored token material.
func (a *AuthService) SignOut() {
	a.store.Clear()
}

// SignInURL returns the hosted sign-in page to open in a browser.
func (a *AuthService) SignInURL() string {
	return a.cfg.SignInURL()
}

// SignOutURL returns the hosted logout page to open in a browser.
func (a *AuthService) SignOutURL() string {
	return a.cfg.SignOutURL()
}

func (a *AuthService) storeTokens(tok *oauth2.Token) {
	if tok.AccessToken != "" {
		a.store.Set(KeyAccessToken, tok.AccessToken)
	}
	if tok.RefreshToken != "" {
		a.store.Set(KeyRefreshToken, tok.RefreshToken)
	}
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		a.store.Set(KeyIDToken, idToken)
	}
	if !tok.Expiry.IsZero() {
		a.store.Set(KeyExpiresAt, tok.Expiry.UTC().Format(time.RFC3339))
	}
}

// tokenExpiry resolves the current token's expiry, preferring the ID token's
// exp claim over the recorded expiry timestamp.
func (a *AuthService) tokenExpiry() (time.Time, bool) {
	if idToken, ok := a.store.Get(KeyIDToken); ok && idToken != "" {
		if exp, err := parseTokenExpiry(idToken); err == nil {
			return exp, true
		} else {
			LogDebug("Failed to read exp claim: %v", err)
		}
	}

	recorded, ok := a.store.Get(KeyExpiresAt)
	if !ok {
		return time.Time{}, false
	}
	exp, err := time.Parse(time.RFC3339, recorded)
	if err != nil {
		return time.Time{}, false
	}
	return exp, true
}

// parseTokenExpiry reads the exp claim off a JWT without verifying the
// signature; expiry detection is a local heuristic, the backend still
// verifies every token.
func parseTokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
