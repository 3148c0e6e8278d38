package player

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudswin/nettube/internal/api"
	"github.com/yudswin/nettube/internal/models"
)

// fakeHistoryAPI records history calls in memory.
type fakeHistoryAPI struct {
	mu      sync.Mutex
	rows    map[string]models.History // by mediaID
	updates []models.History

	getErr error
}

func newFakeHistoryAPI() *fakeHistoryAPI {
	return &fakeHistoryAPI{rows: make(map[string]models.History)}
}

func (f *fakeHistoryAPI) GetHistory(_ context.Context, mediaID string) (*models.History, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	h, ok := f.rows[mediaID]
	if !ok {
		return nil, &api.APIError{HTTPStatus: http.StatusNotFound, Msg: "history not found"}
	}
	return &h, nil
}

func (f *fakeHistoryAPI) CreateHistory(_ context.Context, h models.History) (*models.History, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[h.MediaID] = h
	return &h, nil
}

func (f *fakeHistoryAPI) UpdateHistory(_ context.Context, h models.History) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[h.MediaID] = h
	f.updates = append(f.updates, h)
	return nil
}

func (f *fakeHistoryAPI) lastUpdate() (models.History, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return models.History{}, false
	}
	return f.updates[len(f.updates)-1], true
}

func TestReporterStartCreatesRowWhenMissing(t *testing.T) {
	hapi := newFakeHistoryAPI()
	r := NewReporter(hapi, "u1", "m1")
	defer r.Stop()

	resume, err := r.Start(context.Background())
	require.NoError(t, err)
	assert.Zero(t, resume)

	row, ok := hapi.rows["m1"]
	require.True(t, ok, "a history row should be created on first play")
	assert.Zero(t, row.Progress)
}

func TestReporterStartReturnsStoredResume(t *testing.T) {
	hapi := newFakeHistoryAPI()
	hapi.rows["m1"] = models.History{UserID: "u1", MediaID: "m1", Progress: 45}

	r := NewReporter(hapi, "u1", "m1")
	defer r.Stop()

	resume, err := r.Start(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.45, resume, 1e-9)
}

func TestReporterStartTransportFailure(t *testing.T) {
	hapi := newFakeHistoryAPI()
	hapi.getErr = errors.New("connection refused")

	r := NewReporter(hapi, "u1", "m1")
	_, err := r.Start(context.Background())
	require.Error(t, err)
	assert.Empty(t, hapi.rows, "no row should be created on a transport failure")
}

func TestReporterPauseFlushesPosition(t *testing.T) {
	hapi := newFakeHistoryAPI()
	r := NewReporter(hapi, "u1", "m1")
	_, err := r.Start(context.Background())
	require.NoError(t, err)
	defer r.Stop()

	r.UpdatePosition(45, 100)
	r.Pause(context.Background())

	h, ok := hapi.lastUpdate()
	require.True(t, ok)
	assert.InDelta(t, 45, h.Progress, 1e-9)
	assert.False(t, h.Completed)
}

func TestReporterEndFlushesFinalPosition(t *testing.T) {
	hapi := newFakeHistoryAPI()
	r := NewReporter(hapi, "u1", "m1")
	_, err := r.Start(context.Background())
	require.NoError(t, err)

	r.UpdatePosition(95, 100)
	r.End(context.Background())

	h, ok := hapi.lastUpdate()
	require.True(t, ok)
	assert.InDelta(t, 95, h.Progress, 1e-9)
	assert.True(t, h.Completed)

	// End already stopped the loop; a second Stop must be a no-op.
	r.Stop()
}

func TestReporterStopWithoutStart(t *testing.T) {
	r := NewReporter(newFakeHistoryAPI(), "u1", "m1")
	r.Stop() // must not panic or block
}
