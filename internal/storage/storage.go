// Package storage maintains the download destination directories. Interrupted
// transfers leave partial artifacts behind; the janitor sweeps them out once
// they are old enough to be abandoned rather than in flight.
package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipdl/internal/config"
)

// stale yt-dlp artifact suffixes. ".part-Frag" segments carry a numeric
// tail, so those are matched by substring instead.
var staleSuffixes = []string{".part", ".ytdl", ".temp.mp4", ".temp.m4a", ".temp.webm"}

// Janitor periodically removes abandoned partial download artifacts from the
// destination directories.
type Janitor struct {
	log *slog.Logger
	cfg *config.Config

	dirs     []string
	staleAge time.Duration
}

// New creates a janitor over the configured video and music directories.
func New(log *slog.Logger, cfg *config.Config) *Janitor {
	return &Janitor{
		log:      log.With(slog.String("package", "storage")),
		cfg:      cfg,
		dirs:     []string{cfg.Dir.Videos, cfg.Dir.Music},
		staleAge: cfg.Storage.StaleAge,
	}
}

// Run sweeps on the configured interval until the context is done. One sweep
// runs immediately on start.
func (j *Janitor) Run(ctx context.Context) {
	interval := j.cfg.Storage.CleanupInterval
	log := j.log.With(slog.Duration("interval", interval))

	j.Sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Sweep(ctx)
		case <-ctx.Done():
			log.Info("destination cleanup stopped")

			return
		}
	}
}

// Sweep removes stale partial artifacts from all destination directories and
// returns how many files were deleted.
func (j *Janitor) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-j.staleAge)
	deleted := 0

	for _, dir := range j.dirs {
		deleted += j.sweepDir(ctx, dir, cutoff)
	}

	if deleted > 0 {
		j.log.InfoContext(ctx, "removed stale partial downloads", slog.Int("count", deleted))
	}

	return deleted
}

func (j *Janitor) sweepDir(ctx context.Context, dir string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			j.log.WarnContext(ctx, "cannot read destination dir",
				slog.String("dir", dir), slog.Any("error", err))
		}

		return 0
	}

	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !isStaleArtifact(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		if err := os.Remove(path); err != nil {
			j.log.WarnContext(ctx, "cannot remove stale artifact",
				slog.String("path", path), slog.Any("error", err))

			continue
		}

		deleted++

		j.log.DebugContext(ctx, "removed stale artifact", slog.String("path", path))
	}

	return deleted
}

func isStaleArtifact(name string) bool {
	for _, suffix := range staleSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	return strings.Contains(name, ".part-Frag")
}
