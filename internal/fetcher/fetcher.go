// Package fetcher abstracts the external media-download tool behind small
// interfaces: metadata resolution and per-stream transfer.
package fetcher

import (
	"context"

	"clipdl/internal/entity"
)

// RawProgress is one byte-level tick reported by the external tool during a
// transfer. Total is 0 when the tool has not determined the size yet.
type RawProgress struct {
	Downloaded int64
	Total      int64
	SpeedBPS   float64
}

// ProgressFunc receives raw ticks on the transfer goroutine.
type ProgressFunc func(RawProgress)

// StreamRequest describes one sub-download: a single video or audio stream
// of one URL, landing under DestDir with the pre-sanitized BaseName.
type StreamRequest struct {
	URL          string
	Kind         entity.StreamKind
	VideoQuality entity.VideoQuality
	AudioQuality entity.AudioQuality
	DestDir      string
	BaseName     string
	OnProgress   ProgressFunc
}

// Resolver fetches metadata for a URL without downloading anything.
type Resolver interface {
	FetchInfo(ctx context.Context, url string) (*entity.VideoInfo, error)
}

// StreamFetcher transfers one stream. It honors ctx cancellation mid-flight
// and returns only after the tool's post-processing finished.
type StreamFetcher interface {
	FetchStream(ctx context.Context, req StreamRequest) error
}
