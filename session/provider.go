// Package session owns credential acquisition for the clipper's remote
// calls: a non-interactive provider backed by a stored OAuth2 grant, a
// sealed on-disk token cache, and the single-attempt executor that turns
// auth failures into exactly one invalidation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Credential is an opaque bearer token. Its expiry cannot be inspected
// locally; validity is only ever discovered by a failed remote call.
type Credential string

// Provider hands out currently-valid credentials without any user
// interaction, and invalidates them when the executor detects expiry.
type Provider interface {
	// Credential returns a bearer token, or ErrSignInRequired when no
	// stored grant exists.
	Credential(ctx context.Context) (Credential, error)

	// Invalidate discards the current credential so the next Credential
	// call fails with ErrSignInRequired until the user signs in again.
	Invalidate(ctx context.Context) error
}

// OAuthConfig configures the Google-backed provider.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	// Scopes defaults to the document + file scopes the pipeline needs.
	Scopes []string
}

// DefaultScopes cover document editing and per-file Drive access.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/documents",
	"https://www.googleapis.com/auth/drive.file",
}

// OAuthProvider implements Provider on top of a stored refresh grant.
// The grant itself is written by the interactive sign-in flow (not part of
// this pipeline); here it is only read, refreshed, and discarded.
type OAuthProvider struct {
	cfg   *oauth2.Config
	cache *TokenCache
	log   *slog.Logger

	mu sync.Mutex
}

// NewOAuthProvider builds a provider over the sealed token cache.
func NewOAuthProvider(cfg OAuthConfig, cache *TokenCache, log *slog.Logger) *OAuthProvider {
	if log == nil {
		log = slog.Default()
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &OAuthProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		cache: cache,
		log:   log,
	}
}

// Credential loads the stored grant and returns a fresh access token,
// refreshing through the token source if the cached one is stale. A missing
// grant yields ErrSignInRequired; this path is never interactive.
func (p *OAuthProvider) Credential(ctx context.Context) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.cache.Load(ctx)
	if err != nil {
		return "", err
	}

	fresh, err := p.cfg.TokenSource(ctx, tok).Token()
	if err != nil {
		// A revoked or expired refresh grant is not a transient remote
		// failure: the stored grant is dead and only a new sign-in helps.
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.ErrorCode == "invalid_grant" {
			if cerr := p.cache.Clear(ctx); cerr != nil {
				p.log.Warn("session: clearing revoked grant failed", "error", cerr)
			}
			p.log.Info("session: refresh grant revoked, sign-in required")
			return "", fmt.Errorf("%w: refresh grant revoked", ErrSignInRequired)
		}
		return "", fmt.Errorf("session: refresh token: %w", err)
	}

	// Persist a rotated token so the next attempt skips the refresh.
	if fresh.AccessToken != tok.AccessToken {
		if err := p.cache.Save(ctx, fresh); err != nil {
			p.log.Warn("session: persisting refreshed token failed", "error", err)
		}
	}

	return Credential(fresh.AccessToken), nil
}

// Invalidate drops the stored grant. Called at most once per attempt by the
// executor; invalidating an already-empty cache is a no-op.
func (p *OAuthProvider) Invalidate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Clear(ctx)
}
