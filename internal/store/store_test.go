package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "tahajjud.state", "scheduled"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "tahajjud.state")
	if err != nil || got != "scheduled" {
		t.Fatalf("Get = %q, %v; want scheduled", got, err)
	}

	if err := s.Set(ctx, "tahajjud.state", "cancelled"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _ := s.Get(ctx, "tahajjud.state"); got != "cancelled" {
		t.Errorf("after overwrite Get = %q, want cancelled", got)
	}

	if err := s.Delete(ctx, "tahajjud.state"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "tahajjud.state"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salah.db")
	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "salah.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.Set(ctx, "lead", "15"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s2, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if got, err := s2.Get(ctx, "lead"); err != nil || got != "15" {
		t.Errorf("Get = %q, %v; want 15", got, err)
	}
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, DriverMemory, "")
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("Open(memory) = %T, want *Memory", s)
	}

	if _, err := Open(ctx, "etcd", ""); err == nil {
		t.Error("expected error for unknown driver")
	}
	if _, err := OpenRedis(ctx, "not a url"); err == nil {
		t.Error("expected error for malformed redis url")
	}
}
