package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/yudswin/nettube/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// UpsertContent inserts or updates a mirrored content row. The
// embedding is preserved unless the overview changed, in which case it
// is cleared so the refresh job re-embeds the new text.
func (p *Postgres) UpsertContent(ctx context.Context, ct *models.Content) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO contents (id, title, slug, thumbnail, banner, overview, rating, runtime, release_date, year, type, status, publish, synced_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''), $10, $11, $12, $13, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title, slug = EXCLUDED.slug,
		   thumbnail = EXCLUDED.thumbnail, banner = EXCLUDED.banner,
		   rating = EXCLUDED.rating, runtime = EXCLUDED.runtime,
		   release_date = EXCLUDED.release_date, year = EXCLUDED.year,
		   type = EXCLUDED.type, status = EXCLUDED.status,
		   publish = EXCLUDED.publish, synced_at = NOW(),
		   embedding = CASE WHEN contents.overview IS DISTINCT FROM EXCLUDED.overview THEN NULL ELSE contents.embedding END,
		   overview = EXCLUDED.overview`,
		ct.ID, ct.Title, ct.Slug, ct.Thumbnail, ct.Banner, ct.Overview,
		ct.Rating, ct.Runtime, ct.ReleaseDate, ct.Year, ct.Type, ct.Status, ct.Publish,
	)
	if err != nil {
		return fmt.Errorf("UpsertContent: %w", err)
	}
	return nil
}

// DeleteContent drops one mirrored content row.
func (p *Postgres) DeleteContent(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteContent: %w", err)
	}
	return nil
}

// RemoveStaleContents deletes mirrored contents not present upstream anymore.
func (p *Postgres) RemoveStaleContents(ctx context.Context, keepIDs []string) (int64, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM contents WHERE NOT (id = ANY($1))`, keepIDs)
	if err != nil {
		return 0, fmt.Errorf("RemoveStaleContents: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetContentByID returns one mirrored content.
func (p *Postgres) GetContentByID(ctx context.Context, id string) (*models.Content, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, title, slug, thumbnail, banner, overview, rating, runtime, COALESCE(release_date,''), year, type, status, publish
		 FROM contents WHERE id = $1`, id)
	var ct models.Content
	err := row.Scan(&ct.ID, &ct.Title, &ct.Slug, &ct.Thumbnail, &ct.Banner, &ct.Overview,
		&ct.Rating, &ct.Runtime, &ct.ReleaseDate, &ct.Year, &ct.Type, &ct.Status, &ct.Publish)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetContentByID: %w", err)
	}
	return &ct, nil
}

// ListContents returns contents matching the filter and the total count
// before limit/offset.
func (p *Postgres) ListContents(ctx context.Context, filter ContentFilter) ([]models.Content, int, error) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	conds = append(conds, "publish = true")
	if len(filter.Years) > 0 {
		add("year = ANY($%d)", filter.Years)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Search != "" {
		add("title ILIKE $%d", "%"+filter.Search+"%")
	}
	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListContents count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(
		`SELECT id, title, slug, thumbnail, banner, overview, rating, runtime, COALESCE(release_date,''), year, type, status, publish
		 FROM contents %s ORDER BY year DESC, title ASC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListContents: %w", err)
	}
	defer rows.Close()

	contents, err := scanContents(rows)
	if err != nil {
		return nil, 0, err
	}
	return contents, total, nil
}

// UpsertGenre mirrors one genre row.
func (p *Postgres) UpsertGenre(ctx context.Context, g *models.Genre) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO genres (id, name, english_name, slug) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, english_name = EXCLUDED.english_name, slug = EXCLUDED.slug`,
		g.ID, g.Name, g.EnglishName, g.Slug)
	if err != nil {
		return fmt.Errorf("UpsertGenre: %w", err)
	}
	return nil
}

// DeleteGenre drops one mirrored genre row.
func (p *Postgres) DeleteGenre(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM genres WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteGenre: %w", err)
	}
	return nil
}

// UpsertCountry mirrors one country row.
func (p *Postgres) UpsertCountry(ctx context.Context, co *models.Country) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO countries (id, name, english_name, slug) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, english_name = EXCLUDED.english_name, slug = EXCLUDED.slug`,
		co.ID, co.Name, co.EnglishName, co.Slug)
	if err != nil {
		return fmt.Errorf("UpsertCountry: %w", err)
	}
	return nil
}

// DeleteCountry drops one mirrored country row.
func (p *Postgres) DeleteCountry(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM countries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteCountry: %w", err)
	}
	return nil
}

// ListGenres returns all mirrored genres ordered by name.
func (p *Postgres) ListGenres(ctx context.Context) ([]models.Genre, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, COALESCE(english_name,''), slug FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ListGenres: %w", err)
	}
	defer rows.Close()

	var genres []models.Genre
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.EnglishName, &g.Slug); err != nil {
			return nil, fmt.Errorf("ListGenres scan: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// ListCountries returns all mirrored countries ordered by name.
func (p *Postgres) ListCountries(ctx context.Context) ([]models.Country, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, COALESCE(english_name,''), slug FROM countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ListCountries: %w", err)
	}
	defer rows.Close()

	var countries []models.Country
	for rows.Next() {
		var co models.Country
		if err := rows.Scan(&co.ID, &co.Name, &co.EnglishName, &co.Slug); err != nil {
			return nil, fmt.Errorf("ListCountries scan: %w", err)
		}
		countries = append(countries, co)
	}
	return countries, rows.Err()
}

// UpsertPerson mirrors one person row.
func (p *Postgres) UpsertPerson(ctx context.Context, person *models.Person) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO persons (id, name, slug, profile) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug, profile = EXCLUDED.profile`,
		person.ID, person.Name, person.Slug, person.Profile)
	if err != nil {
		return fmt.Errorf("UpsertPerson: %w", err)
	}
	return nil
}

// DeletePerson drops one mirrored person row.
func (p *Postgres) DeletePerson(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeletePerson: %w", err)
	}
	return nil
}

// SearchPersons is a case-insensitive substring match on person name.
func (p *Postgres) SearchPersons(ctx context.Context, name string, limit int) ([]models.Person, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, slug, COALESCE(profile,'') FROM persons WHERE name ILIKE $1 ORDER BY name LIMIT $2`,
		"%"+name+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("SearchPersons: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var person models.Person
		if err := rows.Scan(&person.ID, &person.Name, &person.Slug, &person.Profile); err != nil {
			return nil, fmt.Errorf("SearchPersons scan: %w", err)
		}
		persons = append(persons, person)
	}
	return persons, rows.Err()
}

// UpsertCollection mirrors one collection row.
func (p *Postgres) UpsertCollection(ctx context.Context, col *models.Collection) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO collections (id, name, slug, description, type, publish) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, slug = EXCLUDED.slug, description = EXCLUDED.description,
		   type = EXCLUDED.type, publish = EXCLUDED.publish`,
		col.ID, col.Name, col.Slug, col.Description, col.Type, col.Publish)
	if err != nil {
		return fmt.Errorf("UpsertCollection: %w", err)
	}
	return nil
}

// DeleteCollection drops one mirrored collection and its membership.
func (p *Postgres) DeleteCollection(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteCollection: %w", err)
	}
	return nil
}

// ReplaceCollectionContents swaps the ordered membership of a
// collection in one transaction so readers never see a half-written set.
func (p *Postgres) ReplaceCollectionContents(ctx context.Context, collectionID string, entries []RankedContent) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ReplaceCollectionContents begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM collection_contents WHERE collection_id = $1`, collectionID); err != nil {
		return fmt.Errorf("ReplaceCollectionContents delete: %w", err)
	}
	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO collection_contents (collection_id, content_id, rank) VALUES ($1, $2, $3)`,
			collectionID, e.ContentID, e.Rank)
		if err != nil {
			return fmt.Errorf("ReplaceCollectionContents insert: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ReplaceCollectionContents commit: %w", err)
	}
	return nil
}

// ListCollections returns all mirrored collections ordered by name.
func (p *Postgres) ListCollections(ctx context.Context) ([]models.Collection, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, slug, COALESCE(description,''), type, publish FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ListCollections: %w", err)
	}
	defer rows.Close()

	var cols []models.Collection
	for rows.Next() {
		var col models.Collection
		if err := rows.Scan(&col.ID, &col.Name, &col.Slug, &col.Description, &col.Type, &col.Publish); err != nil {
			return nil, fmt.Errorf("ListCollections scan: %w", err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// CollectionContents returns a collection's contents ordered by rank.
func (p *Postgres) CollectionContents(ctx context.Context, collectionID string) ([]models.Content, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT c.id, c.title, c.slug, c.thumbnail, c.banner, c.overview, c.rating, c.runtime, COALESCE(c.release_date,''), c.year, c.type, c.status, c.publish, cc.rank
		 FROM contents c JOIN collection_contents cc ON cc.content_id = c.id
		 WHERE cc.collection_id = $1 ORDER BY cc.rank ASC`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("CollectionContents: %w", err)
	}
	defer rows.Close()

	var contents []models.Content
	for rows.Next() {
		var ct models.Content
		var rank int
		err := rows.Scan(&ct.ID, &ct.Title, &ct.Slug, &ct.Thumbnail, &ct.Banner, &ct.Overview,
			&ct.Rating, &ct.Runtime, &ct.ReleaseDate, &ct.Year, &ct.Type, &ct.Status, &ct.Publish, &rank)
		if err != nil {
			return nil, fmt.Errorf("CollectionContents scan: %w", err)
		}
		ct.Rank = &rank
		contents = append(contents, ct)
	}
	return contents, rows.Err()
}

// RemoveStaleCollections deletes mirrored collections not present upstream.
// Membership rows go with them via ON DELETE CASCADE.
func (p *Postgres) RemoveStaleCollections(ctx context.Context, keepIDs []string) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM collections WHERE NOT (id = ANY($1))`, keepIDs)
	if err != nil {
		return 0, fmt.Errorf("RemoveStaleCollections: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StoreEmbeddings attaches overview vectors to contents.
func (p *Postgres) StoreEmbeddings(ctx context.Context, contentIDs []string, embeddings [][]float32) error {
	if len(contentIDs) != len(embeddings) {
		return fmt.Errorf("StoreEmbeddings: %d ids but %d embeddings", len(contentIDs), len(embeddings))
	}
	for i, id := range contentIDs {
		_, err := p.pool.Exec(ctx,
			`UPDATE contents SET embedding = $1 WHERE id = $2`,
			pgvector.NewVector(embeddings[i]), id)
		if err != nil {
			return fmt.Errorf("StoreEmbeddings %s: %w", id, err)
		}
	}
	return nil
}

// ListContentsWithoutEmbeddings returns published contents with an
// overview but no vector yet.
func (p *Postgres) ListContentsWithoutEmbeddings(ctx context.Context, limit int) ([]models.Content, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, title, slug, thumbnail, banner, overview, rating, runtime, COALESCE(release_date,''), year, type, status, publish
		 FROM contents WHERE embedding IS NULL AND overview <> '' LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListContentsWithoutEmbeddings: %w", err)
	}
	defer rows.Close()
	return scanContents(rows)
}

// SemanticSearch ranks contents by cosine distance to queryVec.
func (p *Postgres) SemanticSearch(ctx context.Context, queryVec []float32, limit int) ([]SemanticResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, title, slug, thumbnail, banner, overview, rating, runtime, COALESCE(release_date,''), year, type, status, publish,
		        1 - (embedding <=> $1) AS score
		 FROM contents WHERE embedding IS NOT NULL AND publish = true
		 ORDER BY embedding <=> $1 LIMIT $2`,
		pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, fmt.Errorf("SemanticSearch: %w", err)
	}
	defer rows.Close()

	var results []SemanticResult
	for rows.Next() {
		var r SemanticResult
		err := rows.Scan(&r.ID, &r.Title, &r.Slug, &r.Thumbnail, &r.Banner, &r.Overview,
			&r.Rating, &r.Runtime, &r.ReleaseDate, &r.Year, &r.Type, &r.Status, &r.Publish, &r.Score)
		if err != nil {
			return nil, fmt.Errorf("SemanticSearch scan: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// SimilarContents returns the nearest neighbours of one content by
// overview vector, excluding the content itself.
func (p *Postgres) SimilarContents(ctx context.Context, contentID string, limit int) ([]models.Content, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.pool.Query(ctx,
		`SELECT c.id, c.title, c.slug, c.thumbnail, c.banner, c.overview, c.rating, c.runtime, COALESCE(c.release_date,''), c.year, c.type, c.status, c.publish
		 FROM contents c, contents src
		 WHERE src.id = $1 AND src.embedding IS NOT NULL
		   AND c.embedding IS NOT NULL AND c.id <> src.id AND c.publish = true
		 ORDER BY c.embedding <=> src.embedding LIMIT $2`,
		contentID, limit)
	if err != nil {
		return nil, fmt.Errorf("SimilarContents: %w", err)
	}
	contents, err := scanContents(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	// An empty result is ambiguous: the source may be unknown, or known
	// but without neighbours yet. Only the former is ErrNotFound.
	if len(contents) == 0 {
		var exists bool
		if err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM contents WHERE id = $1)`, contentID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("SimilarContents: %w", err)
		}
		if !exists {
			return nil, ErrNotFound
		}
	}
	return contents, nil
}

// SetLastSynced records the completion time of a full sync.
func (p *Postgres) SetLastSynced(ctx context.Context) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sync_meta (key, value) VALUES ('last_synced', NOW()::text)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`)
	if err != nil {
		return fmt.Errorf("SetLastSynced: %w", err)
	}
	return nil
}

// LastSynced returns the recorded completion time of the most recent
// full sync, or "" when none has run.
func (p *Postgres) LastSynced(ctx context.Context) (string, error) {
	var v string
	err := p.pool.QueryRow(ctx, `SELECT value FROM sync_meta WHERE key = 'last_synced'`).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("LastSynced: %w", err)
	}
	return v, nil
}

// scanContents reads content rows produced by the shared column list.
func scanContents(rows pgx.Rows) ([]models.Content, error) {
	var contents []models.Content
	for rows.Next() {
		var ct models.Content
		err := rows.Scan(&ct.ID, &ct.Title, &ct.Slug, &ct.Thumbnail, &ct.Banner, &ct.Overview,
			&ct.Rating, &ct.Runtime, &ct.ReleaseDate, &ct.Year, &ct.Type, &ct.Status, &ct.Publish)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		contents = append(contents, ct)
	}
	return contents, rows.Err()
}
