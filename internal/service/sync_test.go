package service

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/yudswin/nettube/internal/cache"
	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/session"
	"github.com/yudswin/nettube/internal/store"
)

// fakeStore is an in-memory Store for exercising the sync flow.
type fakeStore struct {
	mu          sync.Mutex
	contents    map[string]models.Content
	genres      map[string]models.Genre
	countries   map[string]models.Country
	persons     map[string]models.Person
	collections map[string]models.Collection
	membership  map[string][]store.RankedContent
	lastSynced  string
	embeddings  map[string][]float32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contents:    make(map[string]models.Content),
		genres:      make(map[string]models.Genre),
		countries:   make(map[string]models.Country),
		persons:     make(map[string]models.Person),
		collections: make(map[string]models.Collection),
		membership:  make(map[string][]store.RankedContent),
		embeddings:  make(map[string][]float32),
	}
}

func (f *fakeStore) UpsertContent(_ context.Context, ct *models.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[ct.ID] = *ct
	return nil
}

func (f *fakeStore) DeleteContent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.contents, id)
	return nil
}

func (f *fakeStore) RemoveStaleContents(_ context.Context, keepIDs []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keep := make(map[string]bool, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = true
	}
	var removed int64
	for id := range f.contents {
		if !keep[id] {
			delete(f.contents, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeStore) GetContentByID(_ context.Context, id string) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ct, ok := f.contents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ct, nil
}

func (f *fakeStore) ListContents(context.Context, store.ContentFilter) ([]models.Content, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) UpsertGenre(_ context.Context, g *models.Genre) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genres[g.ID] = *g
	return nil
}

func (f *fakeStore) UpsertCountry(_ context.Context, co *models.Country) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countries[co.ID] = *co
	return nil
}

func (f *fakeStore) DeleteGenre(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.genres, id)
	return nil
}

func (f *fakeStore) DeleteCountry(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.countries, id)
	return nil
}

func (f *fakeStore) ListGenres(context.Context) ([]models.Genre, error)      { return nil, nil }
func (f *fakeStore) ListCountries(context.Context) ([]models.Country, error) { return nil, nil }

func (f *fakeStore) UpsertPerson(_ context.Context, p *models.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persons[p.ID] = *p
	return nil
}

func (f *fakeStore) DeletePerson(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.persons, id)
	return nil
}

func (f *fakeStore) SearchPersons(context.Context, string, int) ([]models.Person, error) {
	return nil, nil
}

func (f *fakeStore) UpsertCollection(_ context.Context, col *models.Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[col.ID] = *col
	return nil
}

func (f *fakeStore) DeleteCollection(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.collections, id)
	delete(f.membership, id)
	return nil
}

func (f *fakeStore) ReplaceCollectionContents(_ context.Context, collectionID string, entries []store.RankedContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.membership[collectionID] = entries
	return nil
}

func (f *fakeStore) ListCollections(context.Context) ([]models.Collection, error) { return nil, nil }

func (f *fakeStore) CollectionContents(context.Context, string) ([]models.Content, error) {
	return nil, nil
}

func (f *fakeStore) RemoveStaleCollections(_ context.Context, keepIDs []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keep := make(map[string]bool, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = true
	}
	var removed int64
	for id := range f.collections {
		if !keep[id] {
			delete(f.collections, id)
			delete(f.membership, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeStore) StoreEmbeddings(_ context.Context, contentIDs []string, embeddings [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range contentIDs {
		if i < len(embeddings) {
			f.embeddings[id] = embeddings[i]
		}
	}
	return nil
}

func (f *fakeStore) ListContentsWithoutEmbeddings(_ context.Context, limit int) ([]models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Content
	for id, ct := range f.contents {
		if _, ok := f.embeddings[id]; !ok {
			out = append(out, ct)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) SemanticSearch(context.Context, []float32, int) ([]store.SemanticResult, error) {
	return nil, nil
}

func (f *fakeStore) SimilarContents(context.Context, string, int) ([]models.Content, error) {
	return nil, nil
}

func (f *fakeStore) SetLastSynced(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSynced = time.Now().UTC().Format(time.RFC3339)
	return nil
}

func (f *fakeStore) LastSynced(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSynced, nil
}

// fakeUpstream serves the catalog endpoints the sync walks.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	ok := func(w http.ResponseWriter, result any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "msg": "ok", "result": result})
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/content/genre":
			ok(w, []models.Genre{{ID: "g1", Name: "Action", Slug: "action"}})
		case r.URL.Path == "/content/country":
			ok(w, []models.Country{{ID: "co1", Name: "Japan", Slug: "japan"}})
		case r.URL.Path == "/content/v1/browse":
			ok(w, map[string]any{
				"items": []models.Content{
					{ID: "c1", Title: "Alpha", Slug: "alpha", Type: "movie", Status: "finish", Publish: true, Year: 2021},
					{ID: "c2", Title: "Beta", Slug: "beta", Type: "tvshow", Status: "updating", Publish: true, Year: 2023},
				},
				"total": 2, "page": 1, "limit": 200,
			})
		case r.URL.Path == "/person":
			ok(w, []models.Person{{ID: "p1", Name: "Jamie Lee", Slug: "jamie-lee"}})
		case r.URL.Path == "/collection":
			ok(w, []models.Collection{{ID: "col1", Name: "Hot Now", Slug: "hot-now", Type: "hot", Publish: true}})
		case strings.HasSuffix(r.URL.Path, "/contents"):
			rank0, rank1 := 1, 0
			ok(w, []models.Content{
				{ID: "c2", Title: "Beta", Type: "tvshow", Rank: &rank1},
				{ID: "c1", Title: "Alpha", Type: "movie", Rank: &rank0},
			})
		default:
			t.Errorf("unexpected upstream call: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func testClient(t *testing.T, baseURL string) *api.Client {
	t.Helper()
	sess, err := session.New(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return api.New(baseURL, sess, "nettube-test", 0)
}

func TestSyncMirrorsCatalog(t *testing.T) {
	srv := fakeUpstream(t)
	defer srv.Close()

	fs := newFakeStore()
	// A row that vanished upstream must be pruned.
	fs.contents["stale"] = models.Content{ID: "stale", Title: "Gone"}
	fs.collections["old-col"] = models.Collection{ID: "old-col", Name: "Old"}

	stats, err := Sync(context.Background(), testClient(t, srv.URL), fs)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Contents)
	assert.Equal(t, 1, stats.Collections)
	assert.Equal(t, 1, stats.Persons)
	assert.Equal(t, int64(1), stats.RemovedContents)
	assert.Equal(t, int64(1), stats.RemovedCollections)

	assert.Contains(t, fs.contents, "c1")
	assert.Contains(t, fs.contents, "c2")
	assert.NotContains(t, fs.contents, "stale")
	assert.Contains(t, fs.genres, "g1")
	assert.Contains(t, fs.countries, "co1")
	assert.Contains(t, fs.persons, "p1")
	assert.NotContains(t, fs.collections, "old-col")

	// Membership keeps the upstream's ranks.
	require.Len(t, fs.membership["col1"], 2)
	assert.Equal(t, store.RankedContent{ContentID: "c2", Rank: 0}, fs.membership["col1"][0])
	assert.Equal(t, store.RankedContent{ContentID: "c1", Rank: 1}, fs.membership["col1"][1])

	assert.NotEmpty(t, fs.lastSynced)
}

func TestSyncCancelledBetweenPages(t *testing.T) {
	srv := fakeUpstream(t)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sync(ctx, testClient(t, srv.URL), newFakeStore())
	require.Error(t, err)
}

// fakeEmbedder returns a fixed-size vector per text.
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, _ string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	return f.Embed(ctx, texts, inputType)
}

func TestRefreshEmbeddingsFillsMissingVectors(t *testing.T) {
	fs := newFakeStore()
	fs.contents["c1"] = models.Content{ID: "c1", Title: "Alpha", Type: "movie", Overview: "A thing happens."}
	fs.contents["c2"] = models.Content{ID: "c2", Title: "Beta", Type: "tvshow"}
	fs.embeddings["c2"] = []float32{9} // already vectorised

	n, err := RefreshEmbeddings(context.Background(), fs, &fakeEmbedder{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, fs.embeddings, "c1")
}

func TestRefreshEmbeddingsByID(t *testing.T) {
	fs := newFakeStore()
	fs.contents["c1"] = models.Content{ID: "c1", Title: "Alpha", Type: "movie"}

	n, err := RefreshEmbeddings(context.Background(), fs, &fakeEmbedder{}, []string{"c1", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "unknown ids are skipped, not errors")
}

func TestRefreshEmbeddingsNothingToDo(t *testing.T) {
	emb := &fakeEmbedder{}
	n, err := RefreshEmbeddings(context.Background(), newFakeStore(), emb, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, emb.calls, "the embedder must not be called for an empty batch")
}

func TestRefreshEmbeddingsPropagatesEmbedError(t *testing.T) {
	fs := newFakeStore()
	fs.contents["c1"] = models.Content{ID: "c1", Title: "Alpha", Type: "movie"}

	boom := errors.New("quota exceeded")
	_, err := RefreshEmbeddings(context.Background(), fs, &fakeEmbedder{err: boom}, nil)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, fs.embeddings)
}

func TestEmbedWorkerStopsWhileQueueIsDown(t *testing.T) {
	// Nothing listens on this port, so every dequeue fails and the
	// worker sits in its retry backoff.
	r, err := cache.New("redis://127.0.0.1:1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		EmbedWorker(ctx, r, newFakeStore(), &fakeEmbedder{})
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop while backing off")
	}
}
