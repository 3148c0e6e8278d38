package store

import (
	"context"
	"errors"

	"github.com/yudswin/nettube/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the local mirror of the upstream public catalog. The sync
// service fills it; the facade reads from it so browsing keeps working
// when the upstream is slow or unreachable.
type Store interface {
	// UpsertContent inserts or updates a mirrored content row.
	UpsertContent(ctx context.Context, ct *models.Content) error
	// DeleteContent drops one mirrored content row.
	DeleteContent(ctx context.Context, id string) error
	// RemoveStaleContents deletes mirrored contents not in keepIDs and
	// returns how many were removed.
	RemoveStaleContents(ctx context.Context, keepIDs []string) (int64, error)
	// GetContentByID returns one mirrored content.
	GetContentByID(ctx context.Context, id string) (*models.Content, error)
	// ListContents returns contents matching the filter and the total
	// count before limit/offset.
	ListContents(ctx context.Context, filter ContentFilter) ([]models.Content, int, error)

	// UpsertGenre and UpsertCountry mirror the lookup tables; the
	// deletes keep the mirror in step with admin removals.
	UpsertGenre(ctx context.Context, g *models.Genre) error
	DeleteGenre(ctx context.Context, id string) error
	UpsertCountry(ctx context.Context, co *models.Country) error
	DeleteCountry(ctx context.Context, id string) error
	ListGenres(ctx context.Context) ([]models.Genre, error)
	ListCountries(ctx context.Context) ([]models.Country, error)

	// UpsertPerson mirrors a person; SearchPersons is a name substring
	// match used for offline lookups.
	UpsertPerson(ctx context.Context, p *models.Person) error
	DeletePerson(ctx context.Context, id string) error
	SearchPersons(ctx context.Context, name string, limit int) ([]models.Person, error)

	// UpsertCollection mirrors a collection; ReplaceCollectionContents
	// swaps its ordered membership wholesale.
	UpsertCollection(ctx context.Context, col *models.Collection) error
	DeleteCollection(ctx context.Context, id string) error
	ReplaceCollectionContents(ctx context.Context, collectionID string, entries []RankedContent) error
	ListCollections(ctx context.Context) ([]models.Collection, error)
	// CollectionContents returns the collection's contents ordered by rank.
	CollectionContents(ctx context.Context, collectionID string) ([]models.Content, error)
	// RemoveStaleCollections deletes mirrored collections not in keepIDs.
	RemoveStaleCollections(ctx context.Context, keepIDs []string) (int64, error)

	// StoreEmbeddings attaches overview vectors to contents.
	StoreEmbeddings(ctx context.Context, contentIDs []string, embeddings [][]float32) error
	// ListContentsWithoutEmbeddings returns contents still lacking a vector.
	ListContentsWithoutEmbeddings(ctx context.Context, limit int) ([]models.Content, error)
	// SemanticSearch ranks contents by vector distance to queryVec.
	SemanticSearch(ctx context.Context, queryVec []float32, limit int) ([]SemanticResult, error)
	// SimilarContents returns the nearest neighbours of one content.
	SimilarContents(ctx context.Context, contentID string, limit int) ([]models.Content, error)

	// SetLastSynced and LastSynced track the most recent full sync.
	SetLastSynced(ctx context.Context) error
	LastSynced(ctx context.Context) (string, error)
}

// ContentFilter holds optional filters for listing mirrored contents.
type ContentFilter struct {
	Years  []int
	Type   string // movie | tvshow | ""
	Status string // finish | updating | ""
	Search string // case-insensitive substring match on title
	Limit  int    // default 50, max 200
	Offset int
}

// RankedContent pairs a content id with its rank inside a collection.
type RankedContent struct {
	ContentID string
	Rank      int
}

// SemanticResult is a content with its similarity score (0..1, higher
// is closer).
type SemanticResult struct {
	models.Content
	Score float64 `json:"score"`
}
