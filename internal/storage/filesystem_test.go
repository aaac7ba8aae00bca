package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	base := t.TempDir()
	store, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	src := filepath.Join(t.TempDir(), "final_video.mp4")
	if err := os.WriteFile(src, []byte("video-bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	ctx := context.Background()
	key := ResultKey("job-1")
	if err := store.PutFile(ctx, key, src, "video/mp4"); err != nil {
		t.Fatalf("PutFile returned error: %v", err)
	}

	u, err := store.URL(ctx, key)
	if err != nil {
		t.Fatalf("URL returned error: %v", err)
	}
	if u != "" {
		t.Fatalf("URL = %q, want empty for filesystem store", u)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Fatalf("artifact = %q", data)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, err := store.Open(context.Background(), "../etc/passwd"); err == nil {
		t.Fatal("expected invalid key error")
	}
}

func TestFileStoreOpenMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, err := store.Open(context.Background(), "results/nope/final_video.mp4"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
