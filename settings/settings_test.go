package settings

import (
	"context"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func TestPutGet(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	if err := s.Put(ctx, KeyAssetFolderID, "folder-123"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(ctx, KeyAssetFolderID)
	if err != nil {
		t.Fatal(err)
	}
	if v != "folder-123" {
		t.Fatalf("expected folder-123, got %q", v)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	if err := s.Put(ctx, KeyLastDocument, "doc-a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, KeyLastDocument, "doc-b"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(ctx, KeyLastDocument)
	if err != nil {
		t.Fatal(err)
	}
	if v != "doc-b" {
		t.Fatalf("expected doc-b, got %q", v)
	}
}

func TestGetMissing(t *testing.T) {
	s := OpenMemory(t)

	_, err := s.Get(context.Background(), "no-such-key")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	if err := s.Put(ctx, KeyTokenBlob, "blob"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, KeyTokenBlob); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, KeyTokenBlob); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op.
	if err := s.Delete(ctx, KeyTokenBlob); err != nil {
		t.Fatal(err)
	}
}
