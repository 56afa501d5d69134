// Package entity defines the core entities used in the application.
package entity

import (
	"fmt"
	"log/slog"
	"time"

	"clipdl/pkg/gen"
)

// ItemStatus represents the lifecycle state of a queued download item.
type ItemStatus string

const (
	// ItemStatusPending indicates that the item is waiting in the queue.
	ItemStatusPending ItemStatus = "pending"
	// ItemStatusFetchingInfo indicates that metadata is being resolved.
	ItemStatusFetchingInfo ItemStatus = "fetching_info"
	// ItemStatusDownloadingAudio indicates that the audio stream is transferring.
	ItemStatusDownloadingAudio ItemStatus = "downloading_audio"
	// ItemStatusDownloadingVideo indicates that the video stream is transferring.
	ItemStatusDownloadingVideo ItemStatus = "downloading_video"
	// ItemStatusCompleted indicates that the item finished, successfully or not.
	ItemStatusCompleted ItemStatus = "completed"
	// ItemStatusCancelled indicates that the item was cancelled by the user.
	ItemStatusCancelled ItemStatus = "cancelled"
	// ItemStatusFailed indicates that every requested stream failed.
	ItemStatusFailed ItemStatus = "failed"
)

// IsTerminal reports whether the status is a final state.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusCompleted || s == ItemStatusCancelled || s == ItemStatusFailed
}

// StreamKind identifies one of the two sub-downloads composing an item.
type StreamKind string

const (
	// StreamVideo is the video sub-download.
	StreamVideo StreamKind = "video"
	// StreamAudio is the audio sub-download.
	StreamAudio StreamKind = "audio"
)

// VideoQuality is a closed set of resolution tiers.
type VideoQuality int

// Supported resolution tiers, in ascending order.
const (
	Quality360  VideoQuality = 360
	Quality480  VideoQuality = 480
	Quality720  VideoQuality = 720
	Quality1080 VideoQuality = 1080
	Quality1440 VideoQuality = 1440
	Quality2160 VideoQuality = 2160
	Quality4320 VideoQuality = 4320
)

// VideoQualities lists every supported tier.
func VideoQualities() []VideoQuality {
	return []VideoQuality{Quality360, Quality480, Quality720, Quality1080, Quality1440, Quality2160, Quality4320}
}

// ParseVideoQuality validates a height against the closed tier set.
func ParseVideoQuality(height int) (VideoQuality, error) {
	for _, q := range VideoQualities() {
		if int(q) == height {
			return q, nil
		}
	}

	return 0, fmt.Errorf("unsupported video quality: %dp", height)
}

// Height returns the maximum pixel height of the tier.
func (q VideoQuality) Height() int { return int(q) }

// Label returns a human-readable tier label.
func (q VideoQuality) Label() string {
	switch q {
	case Quality360, Quality480:
		return fmt.Sprintf("%dp (SD)", int(q))
	case Quality720:
		return "720p (HD)"
	case Quality1080:
		return "1080p (Full HD)"
	case Quality1440:
		return "1440p (2K)"
	case Quality2160:
		return "2160p (4K)"
	case Quality4320:
		return "4320p (8K)"
	default:
		return fmt.Sprintf("%dp", int(q))
	}
}

// AudioQuality is a closed set of audio bitrate tiers.
type AudioQuality string

const (
	// AudioBest maps to the tool's best VBR tier.
	AudioBest AudioQuality = "best"
	// AudioNormal maps to the tool's next VBR tier.
	AudioNormal AudioQuality = "normal"
)

// ParseAudioQuality validates an audio tier name.
func ParseAudioQuality(name string) (AudioQuality, error) {
	switch AudioQuality(name) {
	case AudioBest, AudioNormal:
		return AudioQuality(name), nil
	default:
		return "", fmt.Errorf("unsupported audio quality: %q", name)
	}
}

// VBRLevel returns the tool-facing variable-bitrate level ("0" = best).
func (q AudioQuality) VBRLevel() string {
	if q == AudioNormal {
		return "1"
	}

	return "0"
}

// VideoInfo holds metadata resolved for a URL before download.
type VideoInfo struct {
	Title     string        `json:"title"`
	Thumbnail string        `json:"thumbnail"`
	Uploader  string        `json:"uploader"`
	Duration  time.Duration `json:"duration"`
	ViewCount int           `json:"viewCount"`
}

// Item represents one queued download request for a single source URL.
type Item struct {
	ID   string     `json:"id"`
	URL  string     `json:"url"`
	Info *VideoInfo `json:"info,omitempty"`

	WantVideo    bool         `json:"wantVideo"`
	WantAudio    bool         `json:"wantAudio"`
	VideoQuality VideoQuality `json:"videoQuality"`
	AudioQuality AudioQuality `json:"audioQuality"`

	// Optional playlist grouping; has no effect on scheduling.
	PlaylistName     string `json:"playlistName,omitempty"`
	PlaylistPosition int    `json:"playlistPosition,omitempty"`

	Status    ItemStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewItem creates a pending item for the given URL and options.
func NewItem(url string, wantVideo, wantAudio bool, vq VideoQuality, aq AudioQuality) *Item {
	return &Item{
		ID:           gen.ItemID(url),
		URL:          url,
		WantVideo:    wantVideo,
		WantAudio:    wantAudio,
		VideoQuality: vq,
		AudioQuality: aq,
		Status:       ItemStatusPending,
		CreatedAt:    time.Now(),
	}
}

// Title returns the resolved title, or the URL while metadata is unknown.
func (i *Item) Title() string {
	if i.Info != nil && i.Info.Title != "" {
		return i.Info.Title
	}

	return i.URL
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (i *Item) LogValue() slog.Value {
	if i == nil {
		return slog.StringValue("<nil>")
	}

	return slog.GroupValue(
		slog.String("id", i.ID),
		slog.String("url", i.URL),
		slog.String("title", i.Title()),
		slog.Bool("want_video", i.WantVideo),
		slog.Bool("want_audio", i.WantAudio),
		slog.Int("video_quality", i.VideoQuality.Height()),
		slog.String("audio_quality", string(i.AudioQuality)),
		slog.String("status", string(i.Status)),
	)
}

// Result reports the per-stream outcome of one item.
// Overall success means either stream succeeded.
type Result struct {
	VideoOK   bool `json:"videoOk"`
	AudioOK   bool `json:"audioOk"`
	Cancelled bool `json:"cancelled"`
}

// OK reports overall success.
func (r Result) OK() bool { return r.VideoOK || r.AudioOK }

// LogValue implements the slog.LogValuer interface for structured logging.
func (r Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("video_ok", r.VideoOK),
		slog.Bool("audio_ok", r.AudioOK),
		slog.Bool("cancelled", r.Cancelled),
	)
}
