// Package storage keeps rendered decks so they can be fetched by link.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidName = errors.New("invalid object name")

// Object describes a stored artifact.
type Object struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	StoredAt    time.Time `json:"stored_at"`
}

type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (Object, error)
	URL(ctx context.Context, name string, expiry time.Duration) (string, error)
}

// ObjectName returns reports/<uuid>/<fileName>.
func ObjectName(fileName string) string {
	return path.Join("reports", uuid.NewString(), path.Base(fileName))
}

func validName(name string) bool {
	if name == "" || path.IsAbs(name) || path.Clean(name) != name {
		return false
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." || seg == "." {
			return false
		}
	}
	return true
}
