// Package consts defines application-wide constants.
package consts

import "time"

// Retry policy for stream transfers.
const (
	// MaxRetries is the number of attempts per sub-download.
	MaxRetries = 3
)

// RetryDelays is the fixed backoff schedule between attempts, indexed by the
// number of the attempt that just failed. The magnitudes are hand-picked
// rather than computed.
var RetryDelays = []time.Duration{
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
}

// Download policy.
const (
	// HighResThreshold is the height at or above which the modern codec
	// pairing (AV1 + opus) is preferred over the compatible one (AVC + AAC).
	HighResThreshold = 1440
	// AudioFinishPercent is reported when the raw audio transfer completes
	// but the external transcode step is still pending.
	AudioFinishPercent = 95
	// FullProgress is the terminal percent of a finished stream.
	FullProgress = 100
)

// Defaults for the surrounding application.
const (
	// DefaultProgressFreq is how often the transfer tool reports progress.
	DefaultProgressFreq = 200 * time.Millisecond
)
