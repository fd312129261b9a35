package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReturnsCleanKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key, err := store.Write(context.Background(), "generated/videos/job-1/item-1.mp4", []byte("data"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "generated/videos/job-1/item-1.mp4" {
		t.Fatalf("key = %q", key)
	}
	data, err := os.ReadFile(filepath.Join(store.BasePath(), filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "data" {
		t.Fatalf("content = %q", data)
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "../escape.mp4", []byte("x")); err == nil {
		t.Fatal("expected error for traversal key")
	}
	if _, err := store.Write(context.Background(), "  ", []byte("x")); err == nil {
		t.Fatal("expected error for blank key")
	}
}
