// Package ingest loads report source files from the local filesystem.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/report-generator/constants"
	"github.com/joseph-ayodele/report-generator/internal/normalize"
)

// Stats summarizes one LoadPaths call.
type Stats struct {
	Scanned    uint32
	Loaded     uint32
	Skipped    uint32
	Duplicates uint32
}

// Options tune LoadPaths.
type Options struct {
	SkipHidden bool
	// MaxFileBytes skips larger files; 0 means no limit.
	MaxFileBytes int64
	Logger       *slog.Logger
}

// Skip records a path that was not loaded.
type Skip struct {
	Path   string
	Reason string
}

// Result holds the loaded files in discovery order.
type Result struct {
	Files   []normalize.File
	Hashes  []string
	Skipped []Skip
	Stats   Stats
}

// LoadPaths expands files and directories, keeps accepted extensions and
// drops byte-identical duplicates. The first occurrence of a file wins.
func LoadPaths(ctx context.Context, paths []string, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(paths) == 0 {
		return Result{}, errors.New("at least one path is required")
	}
	start := time.Now()

	l := &loader{opts: opts, seen: map[string]struct{}{}, logger: logger}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return l.out, err
		}
		if strings.TrimSpace(p) == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return l.out, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			l.file(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				l.skip(path, walkErr.Error())
				return nil
			}
			if path != p && opts.SkipHidden && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			l.file(path)
			return nil
		})
		if err != nil {
			return l.out, fmt.Errorf("walk %s: %w", p, err)
		}
	}

	logger.Info("ingest.load.ok",
		"paths", len(paths),
		"scanned", l.out.Stats.Scanned,
		"loaded", l.out.Stats.Loaded,
		"skipped", l.out.Stats.Skipped,
		"duplicates", l.out.Stats.Duplicates,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return l.out, nil
}

type loader struct {
	opts   Options
	seen   map[string]struct{}
	out    Result
	logger *slog.Logger
}

func (l *loader) skip(path, reason string) {
	l.out.Stats.Skipped++
	l.out.Skipped = append(l.out.Skipped, Skip{Path: path, Reason: reason})
	l.logger.Debug("ingest.file.skipped", "path", path, "reason", reason)
}

func (l *loader) file(path string) {
	l.out.Stats.Scanned++
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !AllowedExt(ext) {
		l.skip(path, fmt.Sprintf("unsupported extension %q", ext))
		return
	}
	if l.opts.MaxFileBytes > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > l.opts.MaxFileBytes {
			l.skip(path, fmt.Sprintf("file larger than %d bytes", l.opts.MaxFileBytes))
			return
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		l.skip(path, err.Error())
		return
	}
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if _, dup := l.seen[key]; dup {
		l.out.Stats.Duplicates++
		l.logger.Debug("ingest.file.duplicate", "path", path, "sha256", key)
		return
	}
	l.seen[key] = struct{}{}
	l.out.Stats.Loaded++
	l.out.Files = append(l.out.Files, normalize.File{
		Name:      filepath.Base(path),
		MediaType: MediaTypeByExt(ext),
		Data:      data,
	})
	l.out.Hashes = append(l.out.Hashes, key)
}
