package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ArtifactRole prefixes artifact keys by what owns the photo.
type ArtifactRole string

const (
	RoleSubmission ArtifactRole = "submission"
	RoleQuest      ArtifactRole = "quest"
	RoleTask       ArtifactRole = "task"
)

// NewArtifactKey returns a fresh key of the form <role>_<uuid>.jpg.
func NewArtifactKey(role ArtifactRole) string {
	return fmt.Sprintf("%s_%s.jpg", role, uuid.NewString())
}

// ArtifactStore keeps photo artifacts referenced by database rows.
// Delete of a missing artifact succeeds.
type ArtifactStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// LocalStore keeps artifacts as flat files in one directory.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) path(key string) (string, error) {
	if key == "" || filepath.Base(key) != key || strings.HasPrefix(key, ".") {
		return "", invalid("artifact key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func (s *LocalStore) Put(_ context.Context, key string, r io.Reader) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write artifact %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), dst)
}

func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("artifact %s: %w", key, ErrNotFound)
	}
	return f, err
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact %s: %w", key, err)
	}
	return nil
}

// deleteArtifact removes an artifact and logs instead of failing, so row cleanup always proceeds.
func deleteArtifact(ctx context.Context, store ArtifactStore, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		slog.Warn("Failed to delete artifact",
			slog.String("type", "sys"),
			slog.String("key", key),
			slog.Any("error", err))
		return
	}
	slog.Debug("Artifact deleted",
		slog.String("type", "sys"),
		slog.String("key", key))
}
