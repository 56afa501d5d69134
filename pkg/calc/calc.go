// Package calc provides progress and transfer-rate calculations.
package calc

import (
	"fmt"
	"time"
)

const (
	kib = 1024
	mib = 1024 * 1024
)

// Percent calculates the completion percentage for a byte pair.
// Returns 0 when the total is unknown.
func Percent(downloaded, total int64) float64 {
	if total > 0 {
		return float64(downloaded) / float64(total) * 100
	}

	return 0
}

// ETA calculates the estimated time remaining for a transfer.
func ETA(downloaded, total int64, started time.Time) time.Duration {
	if total > 0 && downloaded > 0 {
		elapsed := time.Since(started)

		return time.Duration(float64(elapsed) * (float64(total)/float64(downloaded) - 1))
	}

	return 0
}

// FormatSpeed formats a transfer rate in bytes/sec for display:
// integer B/s below 1 KiB/s, one-decimal KB/s below 1 MiB/s, one-decimal
// MB/s above.
func FormatSpeed(bytesPerSec float64) string {
	switch {
	case bytesPerSec <= 0:
		return ""
	case bytesPerSec < kib:
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	case bytesPerSec < mib:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/kib)
	default:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/mib)
	}
}
