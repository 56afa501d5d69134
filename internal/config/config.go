// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"clipdl/internal/entity"
)

// Config holds the application configuration.
type Config struct {
	App       App
	Download  Download
	Dir       Dir
	Clipboard Clipboard
	History   History
	Storage   Storage
	FFmpeg    FFmpeg
	Metrics   Metrics
}

// App holds application-wide configuration.
type App struct {
	LogLevel string `env:"CLIPDL_APP_LOG_LEVEL" envDefault:"info"`
	LogDir   string `env:"CLIPDL_APP_LOG_DIR"   envDefault:""`
}

// Download holds default per-item download options.
type Download struct {
	Video        bool   `env:"CLIPDL_DOWNLOAD_VIDEO"         envDefault:"true"`
	Audio        bool   `env:"CLIPDL_DOWNLOAD_AUDIO"         envDefault:"true"`
	VideoQuality int    `env:"CLIPDL_DOWNLOAD_VIDEO_QUALITY" envDefault:"1080"`
	AudioQuality string `env:"CLIPDL_DOWNLOAD_AUDIO_QUALITY" envDefault:"best"`
	Proxy        string `env:"CLIPDL_DOWNLOAD_PROXY"         envDefault:""`
}

// Qualities returns the validated quality tiers for the configured defaults.
func (d Download) Qualities() (entity.VideoQuality, entity.AudioQuality, error) {
	vq, err := entity.ParseVideoQuality(d.VideoQuality)
	if err != nil {
		return 0, "", fmt.Errorf("video quality: %w", err)
	}

	aq, err := entity.ParseAudioQuality(d.AudioQuality)
	if err != nil {
		return 0, "", fmt.Errorf("audio quality: %w", err)
	}

	return vq, aq, nil
}

// Dir holds output directory paths. Empty values fall back to the user's
// standard Videos and Music folders.
type Dir struct {
	Videos string `env:"CLIPDL_DIR_VIDEOS" envDefault:""`
	Music  string `env:"CLIPDL_DIR_MUSIC"  envDefault:""`
	Cache  string `env:"CLIPDL_DIR_CACHE"  envDefault:"./data/cache"`
}

// SetDefaults resolves empty output dirs against the home directory and
// converts all paths to absolute form.
func (d *Dir) SetDefaults() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("user home dir: %w", err)
	}

	if d.Videos == "" {
		d.Videos = filepath.Join(home, "Videos")
	}

	if d.Music == "" {
		d.Music = filepath.Join(home, "Music")
	}

	if d.Videos, err = filepath.Abs(d.Videos); err != nil {
		return fmt.Errorf("videos dir: %w", err)
	}

	if d.Music, err = filepath.Abs(d.Music); err != nil {
		return fmt.Errorf("music dir: %w", err)
	}

	if d.Cache, err = filepath.Abs(d.Cache); err != nil {
		return fmt.Errorf("cache dir: %w", err)
	}

	return nil
}

// Clipboard holds clipboard watcher configuration.
type Clipboard struct {
	PollInterval time.Duration `env:"CLIPDL_CLIPBOARD_POLL_INTERVAL" envDefault:"500ms"`
}

// History holds download history configuration.
type History struct {
	Path  string `env:"CLIPDL_HISTORY_PATH"  envDefault:"./data/history.db"`
	Limit int    `env:"CLIPDL_HISTORY_LIMIT" envDefault:"500"`
}

// Storage holds destination directory maintenance configuration.
type Storage struct {
	CleanupInterval time.Duration `env:"CLIPDL_STORAGE_CLEANUP_INTERVAL" envDefault:"1h"`
	StaleAge        time.Duration `env:"CLIPDL_STORAGE_STALE_AGE"        envDefault:"24h"`
}

// FFmpeg holds FFmpeg acquisition configuration.
type FFmpeg struct {
	// Dir is where a downloaded ffmpeg binary is installed; empty means the
	// cache directory.
	Dir string `env:"CLIPDL_FFMPEG_DIR" envDefault:""`

	LinuxAMD64 string `env:"CLIPDL_FFMPEG_LINUX_AMD64" envDefault:"https://github.com/yt-dlp/FFmpeg-Builds/releases/download/latest/ffmpeg-master-latest-linux64-gpl.tar.xz"`  //nolint:lll
	LinuxARM64 string `env:"CLIPDL_FFMPEG_LINUX_ARM64" envDefault:"https://github.com/yt-dlp/FFmpeg-Builds/releases/download/latest/ffmpeg-master-latest-linuxarm64-gpl.tar.xz"` //nolint:lll
	Windows    string `env:"CLIPDL_FFMPEG_WINDOWS"     envDefault:"https://github.com/yt-dlp/FFmpeg-Builds/releases/download/latest/ffmpeg-master-latest-win64-gpl.zip"`         //nolint:lll
}

// Metrics holds the metrics endpoint configuration.
type Metrics struct {
	Enabled bool   `env:"CLIPDL_METRICS_ENABLED" envDefault:"false"`
	Addr    string `env:"CLIPDL_METRICS_ADDR"    envDefault:":9090"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetDefaults()
	if err != nil {
		return nil, fmt.Errorf("set dir defaults: %w", err)
	}

	if cfg.FFmpeg.Dir == "" {
		cfg.FFmpeg.Dir = cfg.Dir.Cache
	}

	if cfg.History.Path, err = filepath.Abs(cfg.History.Path); err != nil {
		return nil, fmt.Errorf("history path: %w", err)
	}

	if _, _, err = cfg.Download.Qualities(); err != nil {
		return nil, fmt.Errorf("download defaults: %w", err)
	}

	return cfg, nil
}
