package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"clipdl/internal/config"
	"clipdl/internal/entity"
)

func TestNewDefaults(t *testing.T) {
	home := os.Getenv("HOME")
	os.Clearenv()
	t.Setenv("HOME", home)

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if cfg.App.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.App.LogLevel)
	}

	if !cfg.Download.Video || !cfg.Download.Audio {
		t.Errorf("expected both streams enabled by default")
	}

	vq, aq, err := cfg.Download.Qualities()
	if err != nil {
		t.Fatalf("Qualities() failed: %v", err)
	}

	if vq != entity.Quality1080 {
		t.Errorf("expected default video quality 1080, got %d", vq.Height())
	}

	if aq != entity.AudioBest {
		t.Errorf("expected default audio quality best, got %q", aq)
	}

	for name, dir := range map[string]string{
		"videos":  cfg.Dir.Videos,
		"music":   cfg.Dir.Music,
		"cache":   cfg.Dir.Cache,
		"history": cfg.History.Path,
	} {
		if !filepath.IsAbs(dir) {
			t.Errorf("expected absolute %s path, got %q", name, dir)
		}
	}

	home, err = os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() failed: %v", err)
	}

	if cfg.Dir.Videos != filepath.Join(home, "Videos") {
		t.Errorf("expected videos under home, got %q", cfg.Dir.Videos)
	}

	if cfg.FFmpeg.Dir != cfg.Dir.Cache {
		t.Errorf("expected ffmpeg dir to fall back to cache dir, got %q", cfg.FFmpeg.Dir)
	}
}

func TestNewCustomEnv(t *testing.T) {
	home := os.Getenv("HOME")
	os.Clearenv()
	t.Setenv("HOME", home)
	t.Setenv("CLIPDL_DIR_VIDEOS", "./out/videos")
	t.Setenv("CLIPDL_DOWNLOAD_VIDEO_QUALITY", "2160")
	t.Setenv("CLIPDL_DOWNLOAD_AUDIO_QUALITY", "normal")
	t.Setenv("CLIPDL_CLIPBOARD_POLL_INTERVAL", "250ms")

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if !filepath.IsAbs(cfg.Dir.Videos) {
		t.Errorf("expected custom videos dir to be absolutized, got %q", cfg.Dir.Videos)
	}

	vq, aq, err := cfg.Download.Qualities()
	if err != nil {
		t.Fatalf("Qualities() failed: %v", err)
	}

	if vq != entity.Quality2160 || aq != entity.AudioNormal {
		t.Errorf("unexpected qualities: %d / %q", vq.Height(), aq)
	}

	if cfg.Clipboard.PollInterval.Milliseconds() != 250 {
		t.Errorf("expected 250ms poll interval, got %v", cfg.Clipboard.PollInterval)
	}
}

func TestNewRejectsInvalidQuality(t *testing.T) {
	os.Clearenv()
	t.Setenv("CLIPDL_DOWNLOAD_VIDEO_QUALITY", "999")

	if _, err := config.New(); err == nil {
		t.Fatal("expected error for unsupported video quality")
	}
}
