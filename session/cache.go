package session

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/oauth2"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/settings"
)

// TokenCache stores the OAuth2 grant sealed with XChaCha20-Poly1305 in the
// settings store, so a copied settings database does not leak a usable
// refresh token.
type TokenCache struct {
	store *settings.Store
	aead  cipher.AEAD
}

// NewTokenCache creates a cache sealing with the given 32-byte key.
func NewTokenCache(store *settings.Store, key []byte) (*TokenCache, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("session: cache key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("session: cipher: %w", err)
	}
	return &TokenCache{store: store, aead: aead}, nil
}

// Save seals and persists the token.
func (c *TokenCache) Save(ctx context.Context, tok *oauth2.Token) error {
	plain, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("session: marshal token: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("session: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plain, nil)

	return c.store.Put(ctx, settings.KeyTokenBlob, base64.StdEncoding.EncodeToString(sealed))
}

// Load returns the stored token, or ErrSignInRequired when none exists.
// A blob that fails to open (key rotation, corruption) also surfaces as
// ErrSignInRequired: either way the user has to sign in again.
func (c *TokenCache) Load(ctx context.Context) (*oauth2.Token, error) {
	blob, err := c.store.Get(ctx, settings.KeyTokenBlob)
	if errors.Is(err, settings.ErrNotFound) {
		return nil, ErrSignInRequired
	}
	if err != nil {
		return nil, err
	}

	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil || len(sealed) < c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: stored token is unreadable", ErrSignInRequired)
	}
	plain, err := c.aead.Open(nil, sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: stored token is unreadable", ErrSignInRequired)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(plain, &tok); err != nil {
		return nil, fmt.Errorf("%w: stored token is unreadable", ErrSignInRequired)
	}
	return &tok, nil
}

// Clear removes the stored token.
func (c *TokenCache) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, settings.KeyTokenBlob)
}
