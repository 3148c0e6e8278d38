package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yudswin/nettube/internal/cache"
	"github.com/yudswin/nettube/internal/models"
)

// Cache TTLs for different entity types.
const (
	ttlContents    = 1 * time.Minute
	ttlContent     = 5 * time.Minute
	ttlLookups     = 10 * time.Minute
	ttlCollections = 5 * time.Minute
	ttlSearch      = 2 * time.Minute
)

// CachedStore wraps a Store with a Redis caching layer. Read-heavy
// operations are served from cache when possible; write operations
// invalidate the relevant cache keys, so a cached read always matches
// what the inner store would return fresh.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

// --- cached read operations ---

// contentListResult caches the ListContents tuple.
type contentListResult struct {
	Contents []models.Content `json:"contents"`
	Total    int              `json:"total"`
}

func (c *CachedStore) ListContents(ctx context.Context, filter ContentFilter) ([]models.Content, int, error) {
	key := fmt.Sprintf("contents:%s", filterHash(filter))
	if v, err := cache.Get[contentListResult](ctx, c.cache, key); err == nil {
		return v.Contents, v.Total, nil
	}
	contents, total, err := c.inner.ListContents(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if err := cache.Set(ctx, c.cache, key, contentListResult{Contents: contents, Total: total}, ttlContents); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return contents, total, nil
}

func (c *CachedStore) GetContentByID(ctx context.Context, id string) (*models.Content, error) {
	key := "content:" + id
	if v, err := cache.Get[models.Content](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	ct, err := c.inner.GetContentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, ct, ttlContent); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return ct, nil
}

func (c *CachedStore) ListGenres(ctx context.Context) ([]models.Genre, error) {
	const key = "genres:all"
	if v, err := cache.Get[[]models.Genre](ctx, c.cache, key); err == nil {
		return v, nil
	}
	genres, err := c.inner.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, genres, ttlLookups); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return genres, nil
}

func (c *CachedStore) ListCountries(ctx context.Context) ([]models.Country, error) {
	const key = "countries:all"
	if v, err := cache.Get[[]models.Country](ctx, c.cache, key); err == nil {
		return v, nil
	}
	countries, err := c.inner.ListCountries(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, countries, ttlLookups); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return countries, nil
}

func (c *CachedStore) ListCollections(ctx context.Context) ([]models.Collection, error) {
	const key = "collections:all"
	if v, err := cache.Get[[]models.Collection](ctx, c.cache, key); err == nil {
		return v, nil
	}
	cols, err := c.inner.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, cols, ttlCollections); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return cols, nil
}

func (c *CachedStore) CollectionContents(ctx context.Context, collectionID string) ([]models.Content, error) {
	key := "collection:" + collectionID + ":contents"
	if v, err := cache.Get[[]models.Content](ctx, c.cache, key); err == nil {
		return v, nil
	}
	contents, err := c.inner.CollectionContents(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, contents, ttlCollections); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return contents, nil
}

func (c *CachedStore) SemanticSearch(ctx context.Context, queryVec []float32, limit int) ([]SemanticResult, error) {
	key := fmt.Sprintf("search:%s:%d", vecHash(queryVec), limit)
	if v, err := cache.Get[[]SemanticResult](ctx, c.cache, key); err == nil {
		return v, nil
	}
	results, err := c.inner.SemanticSearch(ctx, queryVec, limit)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, results, ttlSearch); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return results, nil
}

func (c *CachedStore) SimilarContents(ctx context.Context, contentID string, limit int) ([]models.Content, error) {
	key := fmt.Sprintf("similar:%s:%d", contentID, limit)
	if v, err := cache.Get[[]models.Content](ctx, c.cache, key); err == nil {
		return v, nil
	}
	contents, err := c.inner.SimilarContents(ctx, contentID, limit)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, contents, ttlSearch); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return contents, nil
}

// --- write operations with cache invalidation ---

func (c *CachedStore) UpsertContent(ctx context.Context, ct *models.Content) error {
	if err := c.inner.UpsertContent(ctx, ct); err != nil {
		return err
	}
	c.invalidate(ctx, "content:"+ct.ID)
	c.invalidatePattern(ctx, "contents:*", "collection:*", "similar:*")
	return nil
}

func (c *CachedStore) DeleteContent(ctx context.Context, id string) error {
	if err := c.inner.DeleteContent(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, "content:"+id)
	c.invalidatePattern(ctx, "contents:*", "collection:*", "similar:*", "search:*")
	return nil
}

func (c *CachedStore) RemoveStaleContents(ctx context.Context, keepIDs []string) (int64, error) {
	n, err := c.inner.RemoveStaleContents(ctx, keepIDs)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.invalidatePattern(ctx, "contents:*", "content:*", "collection:*", "similar:*", "search:*")
	}
	return n, nil
}

func (c *CachedStore) UpsertGenre(ctx context.Context, g *models.Genre) error {
	if err := c.inner.UpsertGenre(ctx, g); err != nil {
		return err
	}
	c.invalidate(ctx, "genres:all")
	return nil
}

func (c *CachedStore) DeleteGenre(ctx context.Context, id string) error {
	if err := c.inner.DeleteGenre(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, "genres:all")
	return nil
}

func (c *CachedStore) UpsertCountry(ctx context.Context, co *models.Country) error {
	if err := c.inner.UpsertCountry(ctx, co); err != nil {
		return err
	}
	c.invalidate(ctx, "countries:all")
	return nil
}

func (c *CachedStore) DeleteCountry(ctx context.Context, id string) error {
	if err := c.inner.DeleteCountry(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, "countries:all")
	return nil
}

func (c *CachedStore) UpsertCollection(ctx context.Context, col *models.Collection) error {
	if err := c.inner.UpsertCollection(ctx, col); err != nil {
		return err
	}
	c.invalidate(ctx, "collections:all")
	return nil
}

func (c *CachedStore) DeleteCollection(ctx context.Context, id string) error {
	if err := c.inner.DeleteCollection(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, "collections:all", "collection:"+id+":contents")
	return nil
}

func (c *CachedStore) ReplaceCollectionContents(ctx context.Context, collectionID string, entries []RankedContent) error {
	if err := c.inner.ReplaceCollectionContents(ctx, collectionID, entries); err != nil {
		return err
	}
	c.invalidate(ctx, "collection:"+collectionID+":contents")
	return nil
}

func (c *CachedStore) RemoveStaleCollections(ctx context.Context, keepIDs []string) (int64, error) {
	n, err := c.inner.RemoveStaleCollections(ctx, keepIDs)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.invalidate(ctx, "collections:all")
		c.invalidatePattern(ctx, "collection:*")
	}
	return n, nil
}

func (c *CachedStore) StoreEmbeddings(ctx context.Context, contentIDs []string, embeddings [][]float32) error {
	if err := c.inner.StoreEmbeddings(ctx, contentIDs, embeddings); err != nil {
		return err
	}
	c.invalidatePattern(ctx, "search:*", "similar:*")
	return nil
}

// --- passthrough (no caching) ---

func (c *CachedStore) UpsertPerson(ctx context.Context, p *models.Person) error {
	return c.inner.UpsertPerson(ctx, p)
}

func (c *CachedStore) DeletePerson(ctx context.Context, id string) error {
	return c.inner.DeletePerson(ctx, id)
}

func (c *CachedStore) SearchPersons(ctx context.Context, name string, limit int) ([]models.Person, error) {
	return c.inner.SearchPersons(ctx, name, limit)
}

func (c *CachedStore) ListContentsWithoutEmbeddings(ctx context.Context, limit int) ([]models.Content, error) {
	return c.inner.ListContentsWithoutEmbeddings(ctx, limit)
}

func (c *CachedStore) SetLastSynced(ctx context.Context) error {
	return c.inner.SetLastSynced(ctx)
}

func (c *CachedStore) LastSynced(ctx context.Context) (string, error) {
	return c.inner.LastSynced(ctx)
}

// --- helpers ---

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil && err != redis.Nil {
		log.Printf("cache: del %v: %v", keys, err)
	}
}

// invalidatePattern deletes all keys matching the given glob patterns.
func (c *CachedStore) invalidatePattern(ctx context.Context, patterns ...string) {
	for _, p := range patterns {
		if err := cache.DelPattern(ctx, c.cache, p); err != nil {
			log.Printf("cache: del pattern %s: %v", p, err)
		}
	}
}

// filterHash produces a short deterministic hash for a ContentFilter so
// it can be used as part of a cache key.
func filterHash(f ContentFilter) string {
	years := make([]string, len(f.Years))
	for i, y := range f.Years {
		years[i] = fmt.Sprint(y)
	}
	raw := fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		strings.Join(years, ","), f.Type, f.Status, f.Search, f.Limit, f.Offset)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

// vecHash produces a short hash for a float32 vector.
func vecHash(v []float32) string {
	raw := fmt.Sprintf("%v", v)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}
