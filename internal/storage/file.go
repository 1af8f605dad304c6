package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/vrwatch/internal/types"
)

// FileTitleStore keeps titles in a UTF-8 text file, one per line, sorted.
type FileTitleStore struct {
	path   string
	logger *slog.Logger
}

// NewFileTitleStore creates a file-backed store at path.
func NewFileTitleStore(path string, logger *slog.Logger) *FileTitleStore {
	return &FileTitleStore{
		path:   path,
		logger: logger.With("component", "file_store"),
	}
}

func (s *FileTitleStore) Name() string { return "file" }

// Path returns the backing file path.
func (s *FileTitleStore) Path() string { return s.path }

func (s *FileTitleStore) Load(_ context.Context) (types.TitleSet, error) {
	titles := types.NewTitleSet()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("no state file yet, starting empty", "path", s.path)
		return titles, nil
	}
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		titles.Add(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("read %s: %w", s.path, err)}
	}

	s.logger.Debug("state loaded", "path", s.path, "titles", titles.Len())
	return titles, nil
}

func (s *FileTitleStore) Save(_ context.Context, titles types.TitleSet) error {
	for title := range titles {
		if strings.ContainsAny(title, "\r\n") {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("title %q spans multiple lines", title)}
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("create state dir: %w", err)}
	}

	// Write to temp file, then rename (atomic write)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, title := range titles.Sorted() {
		w.WriteString(title)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write state: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("close state: %w", err)}
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("rename state file: %w", err)}
	}

	s.logger.Debug("state saved", "path", s.path, "titles", titles.Len())
	return nil
}

func (s *FileTitleStore) Close() error { return nil }
