// Package history persists finished downloads in a local SQLite database so
// already-fetched URLs can be recognized across restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"clipdl/internal/entity"
	"clipdl/internal/errs"
	"clipdl/pkg/fsx"
)

// Entry is one recorded download.
type Entry struct {
	URL          string
	Title        string
	Uploader     string
	VideoOK      bool
	AudioOK      bool
	DownloadedAt time.Time
}

// Store is the persistence interface consumed by the service layer.
type Store interface {
	Add(ctx context.Context, e *Entry) error
	IsDownloaded(ctx context.Context, url string) (bool, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Remove(ctx context.Context, url string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// SQLite implements Store on a single local database file.
type SQLite struct {
	log   *slog.Logger
	db    *sql.DB
	limit int
}

var _ Store = (*SQLite)(nil)

// Open opens or creates the database at path. The store keeps at most limit
// entries, evicting the oldest on insert.
func Open(log *slog.Logger, path string, limit int) (*SQLite, error) {
	if err := fsx.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	s := &SQLite{
		log:   log.With(slog.String("package", "history")),
		db:    db,
		limit: limit,
	}

	if err := s.migrate(); err != nil {
		db.Close()

		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `CREATE TABLE IF NOT EXISTS downloads (
		url TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		uploader TEXT NOT NULL DEFAULT '',
		video_ok BOOLEAN NOT NULL DEFAULT FALSE,
		audio_ok BOOLEAN NOT NULL DEFAULT FALSE,
		downloaded_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_downloads_downloaded_at ON downloads(downloaded_at);`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return nil
}

// Add upserts an entry keyed by URL and evicts beyond the store limit.
func (s *SQLite) Add(ctx context.Context, e *Entry) error {
	if e == nil {
		return errs.ErrItemNil
	}

	at := e.DownloadedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (url, title, uploader, video_ok, audio_ok, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			uploader = excluded.uploader,
			video_ok = excluded.video_ok,
			audio_ok = excluded.audio_ok,
			downloaded_at = excluded.downloaded_at`,
		e.URL, e.Title, e.Uploader, e.VideoOK, e.AudioOK, at)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	if s.limit > 0 {
		if err := s.trim(ctx); err != nil {
			s.log.WarnContext(ctx, "history trim failed", slog.Any("error", err))
		}
	}

	return nil
}

func (s *SQLite) trim(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM downloads WHERE url NOT IN (
			SELECT url FROM downloads ORDER BY downloaded_at DESC LIMIT ?
		)`, s.limit)

	return err
}

// IsDownloaded reports whether url has a recorded entry.
func (s *SQLite) IsDownloaded(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM downloads WHERE url = ?`, url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query history: %w", err)
	}

	return n > 0, nil
}

// Recent returns the newest entries, most recent first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, uploader, video_ok, audio_ok, downloaded_at
		 FROM downloads ORDER BY downloaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.URL, &e.Title, &e.Uploader, &e.VideoOK, &e.AudioOK, &e.DownloadedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}

		out = append(out, e)
	}

	return out, rows.Err()
}

// Remove deletes the entry for url.
func (s *SQLite) Remove(ctx context.Context, url string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return errs.ErrHistoryNotFound
	}

	return nil
}

// Count returns the number of stored entries.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM downloads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}

	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// EntryFromItem builds a history entry out of a finished item.
func EntryFromItem(item *entity.Item, res entity.Result) *Entry {
	e := &Entry{
		URL:          item.URL,
		Title:        item.Title(),
		VideoOK:      res.VideoOK,
		AudioOK:      res.AudioOK,
		DownloadedAt: time.Now(),
	}

	if item.Info != nil {
		e.Uploader = item.Info.Uploader
	}

	return e
}
