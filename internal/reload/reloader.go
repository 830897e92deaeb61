package reload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Loader is the catalog operation the reloader drives
type Loader interface {
	LoadFromDir(dir string) error
}

// Reloader periodically reloads the question catalog from a directory when its files change
type Reloader struct {
	loader   Loader
	dir      string
	interval time.Duration

	lastMod time.Time
}

// NewReloader creates a new reload worker
func NewReloader(loader Loader, dir string, interval time.Duration) *Reloader {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Reloader{
		loader:   loader,
		dir:      dir,
		interval: interval,
	}
}

// Start begins the reload worker in a goroutine
func (r *Reloader) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Reloader) run(ctx context.Context) {
	slog.Info("catalog reloader started", "dir", r.dir, "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog reloader stopped")
			return
		case <-ticker.C:
			if _, err := r.Check(); err != nil {
				slog.Error("catalog reload failed, keeping previous catalog", "error", err, "dir", r.dir)
			}
		}
	}
}

// Check reloads the catalog if any catalog file is newer than the last successful load.
// It reports whether a reload happened. A failed load leaves the previous contents in place.
func (r *Reloader) Check() (bool, error) {
	mod, err := latestModTime(r.dir)
	if err != nil {
		return false, err
	}
	if !mod.After(r.lastMod) {
		slog.Debug("catalog unchanged", "dir", r.dir)
		return false, nil
	}

	if err := r.loader.LoadFromDir(r.dir); err != nil {
		return false, err
	}
	r.lastMod = mod
	slog.Info("catalog reloaded", "dir", r.dir, "modified", mod)
	return true, nil
}

func latestModTime(dir string) (time.Time, error) {
	fsys := os.DirFS(dir)
	files, err := doublestar.Glob(fsys, "**/*.{yaml,yml}")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to glob catalog dir: %w", err)
	}
	if len(files) == 0 {
		return time.Time{}, fmt.Errorf("no catalog files in %s", dir)
	}

	var latest time.Time
	for _, f := range files {
		info, err := fs.Stat(fsys, f)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to stat %s: %w", f, err)
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest, nil
}
