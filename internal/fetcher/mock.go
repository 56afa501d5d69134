package fetcher

import (
	"context"
	"log/slog"
	"time"

	"clipdl/internal/entity"
)

// Mock simulates metadata resolution and transfers without touching the
// network. Useful for manual runs and wiring checks.
type Mock struct {
	log *slog.Logger

	// SimulateTime is the duration of one simulated transfer.
	SimulateTime time.Duration
	// StreamSize is the pretended total size in bytes.
	StreamSize int64
}

func NewMock(log *slog.Logger) *Mock {
	return &Mock{
		log:          log.With(slog.String("package", "fetcher"), slog.String("fetcher", "mock")),
		SimulateTime: 2 * time.Second,
		StreamSize:   10 * 1024 * 1024,
	}
}

func (m *Mock) FetchInfo(ctx context.Context, url string) (*entity.VideoInfo, error) {
	m.log.InfoContext(ctx, "simulating info fetch", slog.String("url", url))

	return &entity.VideoInfo{
		Title:     "Simulated Video",
		Uploader:  "Simulated Uploader",
		Duration:  3 * time.Minute,
		ViewCount: 42,
	}, nil
}

func (m *Mock) FetchStream(ctx context.Context, req StreamRequest) error {
	log := m.log.With(slog.String("kind", string(req.Kind)), slog.String("url", req.URL))
	log.InfoContext(ctx, "simulating transfer")

	const steps = 10

	ticker := time.NewTicker(m.SimulateTime / steps)
	defer ticker.Stop()

	for step := 1; step <= steps; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if req.OnProgress != nil {
				req.OnProgress(RawProgress{
					Downloaded: m.StreamSize * int64(step) / steps,
					Total:      m.StreamSize,
					SpeedBPS:   float64(m.StreamSize) / m.SimulateTime.Seconds(),
				})
			}
		}
	}

	return nil
}
