package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	c := OpenPath(path)
	c.Insert("Hello", "こんにちは")
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := OpenPath(path)
	got, ok := fresh.Get("Hello")
	if !ok || got != "こんにちは" {
		t.Errorf("Get = %q, %v; want こんにちは, true", got, ok)
	}
	if fresh.Len() != 1 {
		t.Errorf("Len = %d, want 1", fresh.Len())
	}
}

func TestMissingFileStartsEmpty(t *testing.T) {
	c := OpenPath(filepath.Join(t.TempDir(), FileName))

	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if c.Contains("anything") {
		t.Error("empty cache should not contain entries")
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := OpenPath(path)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 on corrupt file", c.Len())
	}
}

func TestKeysAreExact(t *testing.T) {
	c := OpenPath(filepath.Join(t.TempDir(), FileName))
	c.Insert("Hello", "X")

	if c.Contains("hello") {
		t.Error("keys should be case-sensitive")
	}
	if c.Contains("Hello ") {
		t.Error("keys should be whitespace-sensitive")
	}
}

func TestSaveSkipsWhenClean(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	c := OpenPath(path)
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("clean cache should not write a file")
	}

	c.Insert("a", "b")
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cache file missing after dirty save: %v", err)
	}

	// A second save with no new inserts must not rewrite the file.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("save without new entries should not write")
	}
}
