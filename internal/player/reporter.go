package player

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yudswin/nettube/internal/api"
	"github.com/yudswin/nettube/internal/models"
)

// flushInterval is how often progress is reported while playing.
const flushInterval = 10 * time.Second

// HistoryAPI is the slice of the upstream client the reporter needs.
type HistoryAPI interface {
	GetHistory(ctx context.Context, mediaID string) (*models.History, error)
	CreateHistory(ctx context.Context, h models.History) (*models.History, error)
	UpdateHistory(ctx context.Context, h models.History) error
}

// Reporter tracks one playback session. The player feeds it positions;
// the reporter flushes progress upstream every 10 seconds while
// playing, and once on pause and end. Flush failures are logged and
// dropped, never retried: the next tick carries fresher data anyway.
type Reporter struct {
	ID string // playback session id, for log correlation

	hapi    HistoryAPI
	userID  string
	mediaID string

	mu       sync.Mutex
	current  float64
	duration float64
	playing  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReporter creates a reporter for one (user, media) pair.
func NewReporter(hapi HistoryAPI, userID, mediaID string) *Reporter {
	return &Reporter{
		ID:      uuid.NewString(),
		hapi:    hapi,
		userID:  userID,
		mediaID: mediaID,
	}
}

// Start begins the session. If no history row exists one is created at
// progress 0; otherwise the stored fraction (0..1) is returned so the
// player can seek once metadata is available. The periodic flush loop
// runs until End or Stop, or until ctx is cancelled.
func (r *Reporter) Start(ctx context.Context) (resume float64, err error) {
	h, err := r.hapi.GetHistory(ctx, r.mediaID)
	switch {
	case err == nil:
		resume = h.Progress / 100
	default:
		if _, ok := api.IsAPIError(err); !ok {
			return 0, err // transport failure, not a missing row
		}
		_, err = r.hapi.CreateHistory(ctx, models.History{
			UserID:    r.userID,
			MediaID:   r.mediaID,
			Progress:  0,
			Timestamp: time.Now(),
		})
		if err != nil {
			return 0, err
		}
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.mu.Lock()
	r.playing = true
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.loop(loopCtx)
	return resume, nil
}

// UpdatePosition records the latest playhead position.
func (r *Reporter) UpdatePosition(current, duration float64) {
	r.mu.Lock()
	r.current = current
	r.duration = duration
	r.mu.Unlock()
}

// Pause flushes once and suspends the periodic reporting.
func (r *Reporter) Pause(ctx context.Context) {
	r.mu.Lock()
	r.playing = false
	r.mu.Unlock()
	r.flush(ctx)
}

// Resume re-enables periodic reporting after a pause.
func (r *Reporter) Resume() {
	r.mu.Lock()
	r.playing = true
	r.mu.Unlock()
}

// End flushes the final position and tears the session down.
func (r *Reporter) End(ctx context.Context) {
	r.mu.Lock()
	r.playing = false
	r.mu.Unlock()
	r.flush(ctx)
	r.Stop()
}

// Stop cancels the flush loop without a final report. Used on teardown
// paths where the position is already stale.
func (r *Reporter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Reporter) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			playing := r.playing
			r.mu.Unlock()
			if playing {
				r.flush(ctx)
			}
		}
	}
}

// flush reports the current position. Errors are logged only.
func (r *Reporter) flush(ctx context.Context) {
	r.mu.Lock()
	current, duration := r.current, r.duration
	r.mu.Unlock()

	progress, completed := Progress(current, duration)
	err := r.hapi.UpdateHistory(ctx, models.History{
		UserID:    r.userID,
		MediaID:   r.mediaID,
		Progress:  progress,
		Completed: completed,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("progress[%s]: report failed: %v", r.ID, err)
	}
}
