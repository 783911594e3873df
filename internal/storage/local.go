package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Local writes objects under a directory and hands out file:// URLs.
type Local struct {
	dir    string
	logger *slog.Logger
}

func NewLocal(dir string, logger *slog.Logger) (*Local, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{dir: abs, logger: logger}, nil
}

func (l *Local) Put(ctx context.Context, name, contentType string, data []byte) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if !validName(name) {
		return Object{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	p := filepath.Join(l.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return Object{}, fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		l.logger.Error("storage.put.failed", "backend", "local", "name", name, "error", err)
		return Object{}, fmt.Errorf("write object: %w", err)
	}
	l.logger.Info("storage.put.ok", "backend", "local", "name", name, "bytes", len(data))
	return Object{Name: name, Size: int64(len(data)), ContentType: contentType, StoredAt: time.Now().UTC()}, nil
}

// URL ignores expiry; local files do not expire.
func (l *Local) URL(_ context.Context, name string, _ time.Duration) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	p := filepath.Join(l.dir, filepath.FromSlash(name))
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("stat object: %w", err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String(), nil
}
