package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudswin/nettube/internal/api"
	"github.com/yudswin/nettube/internal/config"
	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/session"
	"github.com/yudswin/nettube/internal/store"
)

// upstreamState is a scripted upstream the facade talks to in tests.
type upstreamState struct {
	mu      sync.Mutex
	cast    map[string]models.CastMember // contentID/personID
	history map[string]models.History    // mediaID
	failAdd int                          // fail the next N cast adds

	srv *httptest.Server
}

func newUpstreamState(t *testing.T) *upstreamState {
	t.Helper()
	u := &upstreamState{
		cast:    make(map[string]models.CastMember),
		history: make(map[string]models.History),
	}
	u.srv = httptest.NewServer(http.HandlerFunc(u.handle))
	t.Cleanup(u.srv.Close)
	return u
}

func envelopeOK(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "msg": "ok", "result": result})
}

func envelopeFail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed", "msg": msg, "error": msg})
}

func (u *upstreamState) handle(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	path, method := r.URL.Path, r.Method
	switch {
	case path == "/user/auth/login" && method == http.MethodPost:
		var creds api.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "right" {
			envelopeFail(w, http.StatusBadRequest, "wrong credentials")
			return
		}
		envelopeOK(w, map[string]any{
			"user":         models.User{ID: "u1", Email: creds.Email},
			"accessToken":  "acc-1",
			"refreshToken": "ref-1",
		})
	case path == "/user/me":
		if r.Header.Get("accesstoken") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed", "msg": "no token"})
			return
		}
		envelopeOK(w, models.User{ID: "u1", Email: "a@b.c"})
	case path == "/content/v1/browse":
		envelopeOK(w, map[string]any{
			"items": []models.Content{{ID: "c1", Title: "Alpha", Type: "movie", Publish: true}},
			"total": 1, "page": 1, "limit": 50,
		})
	case path == "/content" && method == http.MethodPost:
		var ct models.Content
		_ = json.NewDecoder(r.Body).Decode(&ct)
		ct.ID = "new-id"
		envelopeOK(w, ct)
	case path == "/content/genre" && method == http.MethodPost:
		var g models.Genre
		_ = json.NewDecoder(r.Body).Decode(&g)
		g.ID = "g-new"
		envelopeOK(w, g)
	case path == "/person" && method == http.MethodPost:
		var p models.Person
		_ = json.NewDecoder(r.Body).Decode(&p)
		p.ID = "p-new"
		envelopeOK(w, p)
	case path == "/department" && method == http.MethodGet:
		envelopeOK(w, []models.Department{{ID: "d1", Name: "Directing", Slug: "directing"}})
	case strings.HasPrefix(path, "/content/cast/"):
		contentID := strings.TrimPrefix(path, "/content/cast/")
		switch method {
		case http.MethodGet:
			var rows []models.CastMember
			for _, cm := range u.cast {
				if cm.ContentID == contentID {
					rows = append(rows, cm)
				}
			}
			envelopeOK(w, rows)
		case http.MethodPost:
			if u.failAdd > 0 {
				u.failAdd--
				envelopeFail(w, http.StatusUnprocessableEntity, "add rejected")
				return
			}
			var cm models.CastMember
			_ = json.NewDecoder(r.Body).Decode(&cm)
			key := cm.ContentID + "/" + cm.PersonID
			if _, exists := u.cast[key]; exists {
				envelopeFail(w, http.StatusConflict, "duplicate cast row")
				return
			}
			u.cast[key] = cm
			envelopeOK(w, cm)
		case http.MethodDelete:
			delete(u.cast, contentID+"/"+r.URL.Query().Get("personId"))
			envelopeOK(w, nil)
		}
	case strings.HasPrefix(path, "/content/") && method == http.MethodDelete:
		envelopeOK(w, nil)
	case strings.HasPrefix(path, "/v1/watch/"):
		envelopeOK(w, map[string]string{"url": "https://cdn.example/stream.m3u8"})
	case strings.HasPrefix(path, "/api/user/history/") && method == http.MethodGet:
		mediaID := strings.TrimPrefix(path, "/api/user/history/")
		h, ok := u.history[mediaID]
		if !ok {
			envelopeFail(w, http.StatusNotFound, "history not found")
			return
		}
		envelopeOK(w, h)
	case path == "/api/user/history" && method == http.MethodPost:
		var h models.History
		_ = json.NewDecoder(r.Body).Decode(&h)
		u.history[h.MediaID] = h
		envelopeOK(w, h)
	case strings.HasPrefix(path, "/api/user/history/") && method == http.MethodPatch:
		var h models.History
		_ = json.NewDecoder(r.Body).Decode(&h)
		u.history[h.MediaID] = h
		envelopeOK(w, nil)
	case strings.HasPrefix(path, "/api/user/history/") && method == http.MethodDelete:
		delete(u.history, strings.TrimPrefix(path, "/api/user/history/"))
		envelopeOK(w, nil)
	default:
		envelopeFail(w, http.StatusNotFound, "no route: "+method+" "+path)
	}
}

// stubStore fakes the catalog mirror for handler tests. Only the
// methods a test exercises are implemented; anything else would hit
// the embedded nil interface and fail loudly.
type stubStore struct {
	store.Store
	mu              sync.Mutex
	persons         map[string]models.Person
	genres          map[string]models.Genre
	deletedContents []string
	similarErr      error
}

func newStubStore() *stubStore {
	return &stubStore{
		persons: make(map[string]models.Person),
		genres:  make(map[string]models.Genre),
	}
}

func (s *stubStore) UpsertPerson(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[p.ID] = *p
	return nil
}

func (s *stubStore) SearchPersons(_ context.Context, name string, _ int) ([]models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Person
	for _, p := range s.persons {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) DeleteContent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedContents = append(s.deletedContents, id)
	return nil
}

func (s *stubStore) UpsertGenre(_ context.Context, g *models.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genres[g.ID] = *g
	return nil
}

func (s *stubStore) SimilarContents(context.Context, string, int) ([]models.Content, error) {
	return nil, s.similarErr
}

// newTestServer wires a facade against the scripted upstream with no
// mirror, cache or embedder.
func newTestServer(t *testing.T, u *upstreamState, loggedIn bool) (*Server, *session.Session) {
	t.Helper()
	sess, err := session.New(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	if loggedIn {
		require.NoError(t, sess.Set(session.Tokens{Access: "acc-1", Refresh: "ref-1"}))
		sess.SetUser(&models.User{ID: "u1", Email: "a@b.c"})
	}

	cfg := &config.Config{
		UpstreamURL: u.srv.URL,
		ServerPort:  "0",
		UserAgent:   "nettube-test",
		Timeout:     5 * time.Second,
	}
	upstream := api.New(u.srv.URL, sess, cfg.UserAgent, cfg.Timeout)
	return New(upstream, sess, cfg, nil, nil, nil), sess
}

// newMirrorServer wires a logged-in facade with a stub mirror attached.
func newMirrorServer(t *testing.T, u *upstreamState, st store.Store) *Server {
	t.Helper()
	sess, err := session.New(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, sess.Set(session.Tokens{Access: "acc-1", Refresh: "ref-1"}))
	sess.SetUser(&models.User{ID: "u1", Email: "a@b.c"})

	cfg := &config.Config{
		UpstreamURL: u.srv.URL,
		ServerPort:  "0",
		UserAgent:   "nettube-test",
		Timeout:     5 * time.Second,
	}
	upstream := api.New(u.srv.URL, sess, cfg.UserAgent, cfg.Timeout)
	return New(upstream, sess, cfg, st, nil, nil)
}

func doJSON(t *testing.T, srv *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), false)
	w := doJSON(t, srv, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeMap(t, w)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, false, out["mirror"])
	assert.Equal(t, false, out["logged_in"])
}

func TestLoginStoresSession(t *testing.T) {
	srv, sess := newTestServer(t, newUpstreamState(t), false)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/login", api.Credentials{Email: "a@b.c", Password: "right"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sess.Active())

	tok, err := sess.Tokens()
	require.NoError(t, err)
	assert.Equal(t, "acc-1", tok.Access)
}

func TestLoginRejectionKeepsSessionEmpty(t *testing.T) {
	srv, sess := newTestServer(t, newUpstreamState(t), false)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/login", api.Credentials{Email: "a@b.c", Password: "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, sess.Active())
}

func TestMeWithoutTokensIs401(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), false)
	w := doJSON(t, srv, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListContentsProxiesUpstreamWithoutMirror(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), false)
	w := doJSON(t, srv, http.MethodGet, "/api/contents", nil)

	require.Equal(t, http.StatusOK, w.Code)
	out := decodeMap(t, w)
	assert.Equal(t, float64(1), out["total"])
}

func TestListContentsRejectsBadFilter(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), false)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/api/contents?type=cartoon", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/api/contents?years=20x1", nil).Code)
}

func TestCreateContentDerivesSlug(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), true)

	w := doJSON(t, srv, http.MethodPost, "/api/contents", models.Content{
		Title: "The Matrix & Beyond!",
		Type:  models.TypeMovie,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	out := decodeMap(t, w)
	assert.Equal(t, "the-matrix-and-beyond", out["slug"])

	// The workspace list picked up the created row.
	got, ok := srv.workspace.Contents().Get("new-id")
	require.True(t, ok)
	assert.Equal(t, "The Matrix & Beyond!", got.Title)
}

func TestUpdateCastReplacesExactlyOneRow(t *testing.T) {
	u := newUpstreamState(t)
	u.cast["c1/p1"] = models.CastMember{ContentID: "c1", PersonID: "p1", PersonName: "Jamie Lee", Character: "Guard", Rank: 5}
	srv, _ := newTestServer(t, u, true)

	w := doJSON(t, srv, http.MethodPut, "/api/contents/c1/cast/p1", map[string]any{
		"character": "Captain", "rank": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	u.mu.Lock()
	defer u.mu.Unlock()
	require.Len(t, u.cast, 1)
	assert.Equal(t, "Captain", u.cast["c1/p1"].Character)
	assert.Equal(t, 1, u.cast["c1/p1"].Rank)
}

func TestUpdateCastAddFailureRestoresOriginal(t *testing.T) {
	u := newUpstreamState(t)
	u.cast["c1/p1"] = models.CastMember{ContentID: "c1", PersonID: "p1", PersonName: "Jamie Lee", Character: "Guard", Rank: 5}
	srv, _ := newTestServer(t, u, true)

	// Prime the cast list, then make the next add (the edited row) fail;
	// the restore add after it succeeds.
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/api/contents/c1/cast", nil).Code)
	u.mu.Lock()
	u.failAdd = 1
	u.mu.Unlock()

	w := doJSON(t, srv, http.MethodPut, "/api/contents/c1/cast/p1", map[string]any{
		"character": "Captain", "rank": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	u.mu.Lock()
	defer u.mu.Unlock()
	require.Len(t, u.cast, 1, "the pair must end with exactly one row")
	assert.Equal(t, "Guard", u.cast["c1/p1"].Character)
}

func TestUpdateCastUnknownPersonIs404(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), true)
	w := doJSON(t, srv, http.MethodPut, "/api/contents/c1/cast/ghost", map[string]any{"character": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaybackSessionLifecycle(t *testing.T) {
	u := newUpstreamState(t)
	srv, _ := newTestServer(t, u, true)

	w := doJSON(t, srv, http.MethodPost, "/api/player/sessions", map[string]string{"mediaId": "m1"})
	require.Equal(t, http.StatusCreated, w.Code)
	out := decodeMap(t, w)
	sessionID, _ := out["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, "https://cdn.example/stream.m3u8", out["url"])
	assert.Equal(t, float64(0), out["resume"])

	u.mu.Lock()
	_, created := u.history["m1"]
	u.mu.Unlock()
	assert.True(t, created, "first play creates the history row at zero")

	// Position reports echo the computed progress.
	w = doJSON(t, srv, http.MethodPost, "/api/player/sessions/"+sessionID+"/position", positionRequest{Current: 91, Duration: 100})
	require.Equal(t, http.StatusOK, w.Code)
	out = decodeMap(t, w)
	assert.Equal(t, float64(91), out["progress"])
	assert.Equal(t, true, out["completed"])

	// Ending flushes the final position and frees the session.
	require.Equal(t, http.StatusNoContent, doJSON(t, srv, http.MethodDelete, "/api/player/sessions/"+sessionID, nil).Code)

	u.mu.Lock()
	final := u.history["m1"]
	u.mu.Unlock()
	assert.InDelta(t, 91, final.Progress, 1e-9)
	assert.True(t, final.Completed)

	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodDelete, "/api/player/sessions/"+sessionID, nil).Code)
}

func TestPlaybackResumesFromStoredProgress(t *testing.T) {
	u := newUpstreamState(t)
	u.history["m1"] = models.History{UserID: "u1", MediaID: "m1", Progress: 45}
	srv, _ := newTestServer(t, u, true)

	w := doJSON(t, srv, http.MethodPost, "/api/player/sessions", map[string]string{"mediaId": "m1"})
	require.Equal(t, http.StatusCreated, w.Code)
	out := decodeMap(t, w)
	assert.InDelta(t, 0.45, out["resume"].(float64), 1e-9)

	sessionID := out["sessionId"].(string)
	require.Equal(t, http.StatusNoContent, doJSON(t, srv, http.MethodDelete, "/api/player/sessions/"+sessionID, nil).Code)
}

func TestPlaybackRequiresLogin(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), false)
	w := doJSON(t, srv, http.MethodPost, "/api/player/sessions", map[string]string{"mediaId": "m1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSyncUnavailableWithoutMirror(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), false)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, srv, http.MethodPost, "/api/sync", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, srv, http.MethodGet, "/api/sync/status", nil).Code)
}

func TestSimilarUnavailableWithoutMirror(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), false)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, srv, http.MethodGet, "/api/contents/c1/similar", nil).Code)
}

func TestSimilarUnknownContentIs404(t *testing.T) {
	st := newStubStore()
	st.similarErr = store.ErrNotFound
	srv := newMirrorServer(t, newUpstreamState(t), st)
	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/api/contents/ghost/similar", nil).Code)
}

func TestDeleteContentRemovesMirrorRow(t *testing.T) {
	st := newStubStore()
	srv := newMirrorServer(t, newUpstreamState(t), st)

	require.Equal(t, http.StatusNoContent, doJSON(t, srv, http.MethodDelete, "/api/contents/c1", nil).Code)

	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Equal(t, []string{"c1"}, st.deletedContents, "a deleted content must leave the mirror too")
}

func TestCreatedPersonVisibleInMirrorSearch(t *testing.T) {
	st := newStubStore()
	srv := newMirrorServer(t, newUpstreamState(t), st)

	w := doJSON(t, srv, http.MethodPost, "/api/persons", models.Person{Name: "New Star"})
	require.Equal(t, http.StatusCreated, w.Code)

	// The mirror-backed search sees the person without waiting for a sync.
	w = doJSON(t, srv, http.MethodGet, "/api/persons/search?q=star", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeMap(t, w)
	persons, ok := out["persons"].([]any)
	require.True(t, ok)
	require.Len(t, persons, 1)
	assert.Equal(t, "New Star", persons[0].(map[string]any)["name"])
}

func TestCreateGenreDerivesSlugAndMirrors(t *testing.T) {
	st := newStubStore()
	srv := newMirrorServer(t, newUpstreamState(t), st)

	w := doJSON(t, srv, http.MethodPost, "/api/genres", models.Genre{Name: "Action & Adventure"})
	require.Equal(t, http.StatusCreated, w.Code)
	out := decodeMap(t, w)
	assert.Equal(t, "action-and-adventure", out["slug"])

	st.mu.Lock()
	defer st.mu.Unlock()
	require.Contains(t, st.genres, "g-new")
	assert.Equal(t, "action-and-adventure", st.genres["g-new"].Slug)
}

func TestListDepartments(t *testing.T) {
	srv, _ := newTestServer(t, newUpstreamState(t), true)

	w := doJSON(t, srv, http.MethodGet, "/api/departments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var depts []models.Department
	require.NoError(t, json.NewDecoder(w.Body).Decode(&depts))
	require.Len(t, depts, 1)
	assert.Equal(t, "directing", depts[0].Slug)
}

func TestDeleteHistoryRow(t *testing.T) {
	u := newUpstreamState(t)
	u.history["m1"] = models.History{UserID: "u1", MediaID: "m1", Progress: 20}
	srv, _ := newTestServer(t, u, true)

	require.Equal(t, http.StatusNoContent, doJSON(t, srv, http.MethodDelete, "/api/user/history/m1", nil).Code)

	u.mu.Lock()
	defer u.mu.Unlock()
	assert.NotContains(t, u.history, "m1")
}
