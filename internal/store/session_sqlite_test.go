package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSession_SaveLoadClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	// Missing db => not found.
	if _, err := s.LoadSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store; got %v", err)
	}

	if err := s.SaveSession(ctx, SessionRecord{Token: "tok-1", Username: "ann"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	rec, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if rec.Token != "tok-1" || rec.Username != "ann" {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if rec.SavedAt.IsZero() {
		t.Fatalf("expected SavedAt to be set")
	}

	// Save replaces.
	if err := s.SaveSession(ctx, SessionRecord{Token: "tok-2"}); err != nil {
		t.Fatalf("SaveSession (replace): %v", err)
	}
	rec, err = s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession (after replace): %v", err)
	}
	if rec.Token != "tok-2" || rec.Username != "" {
		t.Fatalf("expected replaced record; got %#v", rec)
	}

	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, err := s.LoadSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear; got %v", err)
	}
}

func TestSession_ClearWithoutDB_DoesNotCreateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := Store{Dir: dir}
	if err := s.ClearSession(context.Background()); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, sessionDBFileName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no session db to be created; stat err=%v", err)
	}
}

func TestSession_SaveRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	s := Store{Dir: t.TempDir()}
	if err := s.SaveSession(context.Background(), SessionRecord{Token: "  "}); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
