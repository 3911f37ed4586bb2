package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s := NewFile(path)
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, 0); err != nil || ok {
		t.Fatalf("Load on missing file = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	rec := Record{SessionID: "abc", Sequence: 42, ResumeURL: "wss://r"}
	if err := s.Save(ctx, 0, rec); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, ok, err := s.Load(ctx, 0)
	if err != nil || !ok {
		t.Fatalf("Load after Save = (ok=%v, err=%v), want (true, nil)", ok, err)
	}
	if got != rec {
		t.Errorf("Load = %+v, want %+v", got, rec)
	}

	// Records are keyed by shard; another shard's slot stays empty.
	if _, ok, _ := s.Load(ctx, 1); ok {
		t.Error("Load(1) found a record saved under shard 0")
	}
}

func TestFileStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	s := NewFile(path)
	ctx := context.Background()

	if err := s.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete on missing record returned error: %v", err)
	}

	if err := s.Save(ctx, 3, Record{SessionID: "x", Sequence: 1}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := s.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok, _ := s.Load(ctx, 3); ok {
		t.Error("record survived Delete")
	}
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sessions.json")
	s := NewFile(path)

	if err := s.Save(context.Background(), 0, Record{SessionID: "abc"}); err != nil {
		t.Fatalf("Save into missing directory returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("backing file was not created: %v", err)
	}
}

func TestFileStoreToleratesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	s := NewFile(path)
	if _, ok, err := s.Load(context.Background(), 0); err != nil || ok {
		t.Errorf("Load on empty file = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}
