package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"clipdl/internal/config"
	"clipdl/internal/consts"
	"clipdl/internal/entity"
	"clipdl/internal/errs"
	"clipdl/pkg/maths"
	"clipdl/pkg/ptr"

	"github.com/lrstanley/go-ytdlp"
)

// YTdlp resolves metadata and transfers streams through the yt-dlp tool.
type YTdlp struct {
	log *slog.Logger
	cfg *config.Config
}

func NewYTdlp(log *slog.Logger, cfg *config.Config) *YTdlp {
	return &YTdlp{
		log: log.With(slog.String("package", "fetcher")),
		cfg: cfg,
	}
}

// FetchInfo resolves metadata without downloading anything.
func (f *YTdlp) FetchInfo(ctx context.Context, url string) (*entity.VideoInfo, error) {
	cmd := ytdlp.New().
		CacheDir(f.cfg.Dir.Cache).
		NoPlaylist().
		SkipDownload().
		PrintJSON()

	if f.cfg.Download.Proxy != "" {
		cmd = cmd.Proxy(f.cfg.Download.Proxy)
	}

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("ytdlp info: %w", err)
	}

	info, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("ytdlp extracted info: %w", err)
	}

	if len(info) == 0 {
		return nil, fmt.Errorf("ytdlp returned no info for %q", url)
	}

	inf := info[0]

	return &entity.VideoInfo{
		Title:     ptr.Deref(inf.Title),
		Thumbnail: ptr.Deref(inf.Thumbnail),
		Uploader:  ptr.Deref(inf.Uploader),
		Duration:  time.Duration(ptr.Deref(inf.Duration) * float64(time.Second)),
		ViewCount: maths.RoundFloat64ToInt(ptr.Deref(inf.ViewCount)),
	}, nil
}

// FetchStream transfers one stream. The audio path transcodes to mp3 with
// embedded tags and cover art; the video path merges into an mp4 container.
func (f *YTdlp) FetchStream(ctx context.Context, req StreamRequest) error {
	log := f.log.With(
		slog.String("kind", string(req.Kind)),
		slog.String("url", req.URL),
	)

	progressFn := func(prog ytdlp.ProgressUpdate) {
		if req.OnProgress == nil {
			return
		}

		req.OnProgress(RawProgress{
			Downloaded: int64(prog.DownloadedBytes),
			Total:      int64(prog.TotalBytes),
			SpeedBPS:   transferSpeed(prog.DownloadedBytes, prog.Started),
		})
	}

	cmd := ytdlp.New().
		CacheDir(f.cfg.Dir.Cache).
		NoPlaylist().
		ForceOverwrites().
		ProgressFunc(consts.DefaultProgressFreq, progressFn)

	if f.cfg.Download.Proxy != "" {
		cmd = cmd.Proxy(f.cfg.Download.Proxy)
	}

	switch req.Kind {
	case entity.StreamAudio:
		cmd = cmd.
			Format(AudioFormat).
			ExtractAudio().
			AudioFormat("mp3").
			AudioQuality(req.AudioQuality.VBRLevel()).
			EmbedMetadata().
			EmbedThumbnail().
			Output(filepath.Join(req.DestDir, req.BaseName+".%(ext)s"))
	default:
		cmd = cmd.
			Format(VideoFormat(req.VideoQuality)).
			MergeOutputFormat("mp4").
			EmbedMetadata().
			EmbedThumbnail().
			Output(filepath.Join(req.DestDir, req.BaseName+".mp4"))
	}

	log.InfoContext(ctx, "starting transfer")

	if _, err := cmd.Run(ctx, req.URL); err != nil {
		if ctx.Err() != nil {
			return errs.ErrCancelled
		}

		return fmt.Errorf("%w: %s stream: %s", errs.ErrTransfer, req.Kind, err)
	}

	return nil
}

// transferSpeed derives average bytes/sec from the transfer start time. The
// tool reports no instantaneous rate over this interface.
func transferSpeed(downloaded int, started time.Time) float64 {
	if started.IsZero() {
		return 0
	}

	elapsed := time.Since(started).Seconds()
	if elapsed <= 0 {
		return 0
	}

	return float64(downloaded) / elapsed
}
