package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disgoorg/quest-bot/questbot/config"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

type PhotoIntakeConfig struct {
	Dir     string
	MaxSize int
	Quality int
}

// PhotoIntake downloads chat attachments and imports them into the artifact store.
type PhotoIntake struct {
	dir     string
	maxSize int
	quality int
	store   ArtifactStore
	client  *http.Client

	attempts       int
	backoff        time.Duration
	attemptTimeout time.Duration
}

func NewPhotoIntake(cfg PhotoIntakeConfig, store ArtifactStore) (*PhotoIntake, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = config.DefaultImageMaxSize
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = config.DefaultImageQuality
	}
	return &PhotoIntake{
		dir:     cfg.Dir,
		maxSize: cfg.MaxSize,
		quality: cfg.Quality,
		store:   store,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:          10,
				IdleConnTimeout:       30 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
			},
		},
		attempts:       config.DownloadMaxAttempts,
		backoff:        config.DownloadRetryBackoff,
		attemptTimeout: config.DownloadAttemptTimeout,
	}, nil
}

// Fetch downloads url and stores it as a new artifact for role, returning its key.
// Quest and task images are resized first. Download failures wrap ErrDownloadFailed.
func (p *PhotoIntake) Fetch(ctx context.Context, url string, role ArtifactRole) (string, error) {
	temp := filepath.Join(p.dir, config.TempPhotoPrefix+uuid.NewString()+".jpg")
	defer os.Remove(temp)

	if err := p.download(ctx, url, temp); err != nil {
		return "", err
	}

	if role != RoleSubmission {
		if err := p.optimize(temp); err != nil {
			slog.Warn("Image optimization failed, keeping original",
				slog.String("type", "sys"),
				slog.String("file", temp),
				slog.Any("error", err))
		}
	}

	f, err := os.Open(temp)
	if err != nil {
		return "", fmt.Errorf("failed to open downloaded photo: %w", err)
	}
	defer f.Close()

	key := NewArtifactKey(role)
	if err = p.store.Put(ctx, key, f); err != nil {
		return "", err
	}

	slog.Info("Photo stored",
		slog.String("type", "sys"),
		slog.String("role", string(role)),
		slog.String("key", key))
	return key, nil
}

func (p *PhotoIntake) download(ctx context.Context, url, dest string) error {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if lastErr = p.downloadOnce(ctx, url, dest); lastErr == nil {
			return nil
		}

		slog.Warn("Photo download attempt failed",
			slog.String("type", "sys"),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.attempts),
			slog.Any("error", lastErr))

		if attempt == p.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrDownloadFailed, ctx.Err())
		case <-time.After(p.backoff):
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrDownloadFailed, p.attempts, lastErr)
}

func (p *PhotoIntake) downloadOnce(ctx context.Context, url, dest string) error {
	ctx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, config.MaxPhotoBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > config.MaxPhotoBytes {
		return fmt.Errorf("photo exceeds %d bytes", config.MaxPhotoBytes)
	}
	return nil
}

// optimize shrinks the image in place to fit the configured box. Smaller images are re-encoded only.
func (p *PhotoIntake) optimize(path string) error {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	img = imaging.Fit(img, p.maxSize, p.maxSize, imaging.Lanczos)
	return imaging.Save(img, path, imaging.JPEGQuality(p.quality))
}

// CleanupTemp removes leftover downloads older than maxAge and returns how many were removed.
func (p *PhotoIntake) CleanupTemp(maxAge time.Duration) (int, error) {
	return CleanupTempFiles(p.dir, maxAge, time.Now())
}

// CleanupTempFiles removes temp_ files in dir last modified before now-maxAge.
func CleanupTempFiles(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read photo directory: %w", err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), config.TempPhotoPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err = os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			slog.Warn("Failed to remove temp photo",
				slog.String("type", "sys"),
				slog.String("file", entry.Name()),
				slog.Any("error", err))
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("Removed stale temp photos",
			slog.String("type", "sys"),
			slog.Int("count", removed))
	}
	return removed, nil
}
