// Package player reports watch progress for one playback session to
// the upstream history endpoint.
package player

import "github.com/yudswin/nettube/internal/models"

// Progress converts a playhead position into a history percentage.
// The result is clamped to [0,100]; completed is true above 90.
// A zero or negative duration yields 0/false.
func Progress(current, duration float64) (progress float64, completed bool) {
	if duration <= 0 {
		return 0, false
	}
	progress = current / duration * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return progress, progress > models.CompletedThreshold
}
