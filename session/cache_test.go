package session

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"
	_ "modernc.org/sqlite"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/settings"
)

func testCache(t *testing.T) *TokenCache {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	c, err := NewTokenCache(settings.OpenMemory(t), key)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	tok := &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}
	if err := c.Save(ctx, tok); err != nil {
		t.Fatal(err)
	}

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != tok.AccessToken || got.RefreshToken != tok.RefreshToken {
		t.Fatalf("loaded token differs: %+v", got)
	}
}

func TestCacheEmpty(t *testing.T) {
	c := testCache(t)

	_, err := c.Load(context.Background())
	if !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("expected ErrSignInRequired, got %v", err)
	}
}

func TestCacheClear(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	if err := c.Save(ctx, &oauth2.Token{AccessToken: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Load(ctx); !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("expected ErrSignInRequired after clear, got %v", err)
	}
}

func TestCacheWrongKey(t *testing.T) {
	store := settings.OpenMemory(t)
	ctx := context.Background()

	c1, err := NewTokenCache(store, bytes.Repeat([]byte{0x01}, 32))
	if err != nil {
		t.Fatal(err)
	}
	if err := c1.Save(ctx, &oauth2.Token{AccessToken: "a"}); err != nil {
		t.Fatal(err)
	}

	// A rotated key cannot open the old blob; the user must sign in again.
	c2, err := NewTokenCache(store, bytes.Repeat([]byte{0x02}, 32))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c2.Load(ctx); !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("expected ErrSignInRequired with rotated key, got %v", err)
	}
}

func TestCacheBadKeySize(t *testing.T) {
	if _, err := NewTokenCache(settings.OpenMemory(t), []byte("short")); err == nil {
		t.Fatal("expected error for short key")
	}
}
