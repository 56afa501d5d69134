package fetcher

import (
	"fmt"

	"clipdl/internal/consts"
	"clipdl/internal/entity"
)

// AudioFormat is the selector for the audio stream; the mp3 transcode is a
// post-processing step, not a format constraint.
const AudioFormat = "bestaudio/best"

// VideoFormat builds the selector cascade for a video download. High
// resolutions prefer AV1 with opus audio and relax constraints step by step;
// lower resolutions prefer AVC with AAC for player compatibility. Order
// matters: the tool takes the first pairing the video actually offers.
func VideoFormat(q entity.VideoQuality) string {
	h := q.Height()

	if h >= consts.HighResThreshold {
		return fmt.Sprintf(
			"bestvideo[height<=%d][vcodec^=av01]+bestaudio[acodec^=opus]/"+
				"bestvideo[height<=%d][vcodec^=av01]+bestaudio/"+
				"bestvideo[height<=%d]+bestaudio/"+
				"best[height<=%d]",
			h, h, h, h)
	}

	return fmt.Sprintf(
		"bestvideo[height<=%d][vcodec^=avc]+bestaudio[acodec^=mp4a]/"+
			"bestvideo[height<=%d]+bestaudio/"+
			"best[height<=%d]",
		h, h, h)
}
