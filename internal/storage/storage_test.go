package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestFileStoreMissingFile(t *testing.T) {
	s := NewFileTitleStore(filepath.Join(t.TempDir(), "none.txt"), testLogger)
	titles, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("missing file should load empty: %v", err)
	}
	if titles.Len() != 0 {
		t.Errorf("expected empty set, got %d", titles.Len())
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "titles.txt")
	s := NewFileTitleStore(path, testLogger)
	ctx := context.Background()

	want := types.NewTitleSet("VR-002 Bar", "VR-001 Foo", "【VR】 ABC-123 日本語")
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("round trip mismatch: got %v want %v", got.Sorted(), want.Sorted())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "VR-001 Foo\nVR-002 Bar\n【VR】 ABC-123 日本語\n" {
		t.Errorf("file not sorted one-per-line: %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFileStoreLoadTrimsAndSkipsBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles.txt")
	if err := os.WriteFile(path, []byte("  VR-001 Foo  \n\n\t\nVR-002 Bar\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileTitleStore(path, testLogger).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(types.NewTitleSet("VR-001 Foo", "VR-002 Bar")) {
		t.Errorf("unexpected titles %v", got.Sorted())
	}
}

func TestFileStoreRejectsMultiLineTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles.txt")
	s := NewFileTitleStore(path, testLogger)
	ctx := context.Background()

	if err := s.Save(ctx, types.NewTitleSet("VR-001 Foo")); err != nil {
		t.Fatal(err)
	}

	err := s.Save(ctx, types.NewTitleSet("VR-001 Foo", "VR-009\n  Foo  Bar"))
	var se *types.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(types.NewTitleSet("VR-001 Foo")) {
		t.Errorf("rejected save changed the file: %v", got.Sorted())
	}
}

func TestFileStoreUnreadable(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be read as a title file.
	_, err := NewFileTitleStore(dir, testLogger).Load(context.Background())
	var se *types.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if se.Backend != "file" {
		t.Errorf("unexpected backend %q", se.Backend)
	}
}

func TestNewStoreFactory(t *testing.T) {
	cfg := config.DefaultConfig().Storage
	cfg.Path = filepath.Join(t.TempDir(), "titles.txt")

	s, err := New(context.Background(), cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "file" {
		t.Errorf("expected file store, got %s", s.Name())
	}

	cfg.Type = "s3"
	if _, err := New(context.Background(), cfg, testLogger); err == nil {
		t.Error("expected error for unknown storage type")
	}
}

func TestMongoStoreRoundTrip(t *testing.T) {
	uri := os.Getenv("VRWATCH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("VRWATCH_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	coll := fmt.Sprintf("titles_test_%d", time.Now().UnixNano())
	s, err := NewMongoTitleStore(ctx, uri, "vrwatch_test", coll, testLogger)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() {
		s.collection.Drop(ctx)
		s.Close()
	}()

	first := types.NewTitleSet("VR-001 Foo")
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := types.NewTitleSet("VR-001 Foo", "VR-002 Bar")
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Equal(second) {
		t.Errorf("got %v, want %v", got.Sorted(), second.Sorted())
	}
}
