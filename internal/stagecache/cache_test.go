package stagecache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_SetGetHas(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if c.Has("abc") {
		t.Fatal("entry should not exist yet")
	}

	entry := &Entry{Hash: "abc", Source: "/docs/a.pdf", ContentOverview: "overview"}
	if err := c.Set(entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if !c.Has("abc") {
		t.Error("entry should exist after Set")
	}

	got, err := c.Get("abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Source != "/docs/a.pdf" || got.ContentOverview != "overview" {
		t.Errorf("Get() = %+v", got)
	}
	if got.ProcessedAt.IsZero() {
		t.Error("ProcessedAt should be set by Set()")
	}
}

func TestCache_SetWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 0)

	if err := c.Set(&Entry{Hash: "abc"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "abc.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file should not remain after a successful write")
	}
	if _, err := os.Stat(filepath.Join(dir, "abc.json")); err != nil {
		t.Errorf("final file missing: %v", err)
	}
}

func TestCache_GetMissing(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 0)

	if _, err := c.Get("missing"); err != ErrNotFound {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestCache_Delete(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 0)

	_ = c.Set(&Entry{Hash: "abc"})
	if err := c.Delete("abc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if c.Has("abc") {
		t.Error("entry should be gone after Delete")
	}

	if err := c.Delete("never-existed"); err != nil {
		t.Errorf("Delete() of missing entry should not error, got %v", err)
	}
}

func TestCache_ListHashes(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 0)

	_ = c.Set(&Entry{Hash: "h1"})
	_ = c.Set(&Entry{Hash: "h2"})

	hashes, err := c.ListHashes()
	if err != nil {
		t.Fatalf("ListHashes() error = %v", err)
	}
	if len(hashes) != 2 {
		t.Errorf("ListHashes() = %v, want 2 entries", hashes)
	}
}

func TestCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 0)

	_ = c.Set(&Entry{Hash: "h1"})
	_ = c.Set(&Entry{Hash: "h2"})

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	hashes, _ := c.ListHashes()
	if len(hashes) != 0 {
		t.Errorf("ListHashes() after Clear = %v, want empty", hashes)
	}
}

func TestCache_CleanExpired(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, time.Hour)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_ = c.Set(&Entry{Hash: "fresh", ProcessedAt: time.Now()})
	_ = c.Set(&Entry{Hash: "stale", ProcessedAt: time.Now().Add(-2 * time.Hour)})

	removed, err := c.CleanExpired()
	if err != nil {
		t.Fatalf("CleanExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("CleanExpired() removed = %d, want 1", removed)
	}
	if !c.Has("fresh") {
		t.Error("fresh entry should survive CleanExpired")
	}
	if c.Has("stale") {
		t.Error("stale entry should be removed by CleanExpired")
	}
}

func TestCache_SetRejectsEmptyHash(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir, 0)

	if err := c.Set(&Entry{Hash: ""}); err == nil {
		t.Fatal("expected error for empty hash, got nil")
	}
}
