package kvstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

const fileExt = ".json"

// File persists each key as one file under a base directory.
type File struct {
	baseDir string
}

// NewFile ensures the base directory exists and returns a handle.
func NewFile(baseDir string) (*File, error) {
	if baseDir == "" {
		baseDir = "./data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &File{baseDir: baseDir}, nil
}

func (s *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	raw, err := os.ReadFile(s.resolve(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read document %s: %w", key, err)
	}
	return string(raw), true, nil
}

// Set writes to a temporary file and renames it over the target so readers
// never observe a partially written document.
func (s *File) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.resolve(key)
	tmp, err := os.CreateTemp(s.baseDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()         //nolint:errcheck
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("write document %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("close document %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("replace document %s: %w", key, err)
	}
	return nil
}

func (s *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.resolve(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}

// Ping checks the base directory is still reachable.
func (s *File) Ping(context.Context) error {
	if _, err := os.Stat(s.baseDir); err != nil {
		return fmt.Errorf("stat store directory: %w", err)
	}
	return nil
}

// keys such as "favorites:a@x.com" are escaped into a flat file name.
func (s *File) resolve(key string) string {
	return filepath.Join(s.baseDir, url.QueryEscape(key)+fileExt)
}
