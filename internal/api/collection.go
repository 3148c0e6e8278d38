package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yudswin/nettube/internal/models"
)

// ListCollections fetches all collections via GET /collection.
func (c *Client) ListCollections(ctx context.Context) ([]models.Collection, error) {
	return do[[]models.Collection](ctx, c, http.MethodGet, "/collection", nil, nil)
}

// GetCollection fetches one collection via GET /collection/:id.
func (c *Client) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	col, err := do[models.Collection](ctx, c, http.MethodGet, "/collection/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &col, nil
}

// CreateCollection creates a collection via POST /collection.
func (c *Client) CreateCollection(ctx context.Context, col models.Collection) (*models.Collection, error) {
	out, err := do[models.Collection](ctx, c, http.MethodPost, "/collection", nil, col)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCollection applies a field-level patch via PATCH /collection/:id.
func (c *Client) UpdateCollection(ctx context.Context, id string, patch models.CollectionPatch) (*models.Collection, error) {
	out, err := do[models.Collection](ctx, c, http.MethodPatch, "/collection/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCollection removes a collection via DELETE /collection/:id.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	_, err := do[empty](ctx, c, http.MethodDelete, "/collection/"+url.PathEscape(id), nil, nil)
	return err
}

// CollectionContents fetches the ordered contents of a collection via
// GET /collection/:id/contents. Each item carries its rank.
func (c *Client) CollectionContents(ctx context.Context, id string) ([]models.Content, error) {
	return do[[]models.Content](ctx, c, http.MethodGet, "/collection/"+url.PathEscape(id)+"/contents", nil, nil)
}

// AddCollectionContent associates a content via POST /collection/:id/contents.
func (c *Client) AddCollectionContent(ctx context.Context, collectionID, contentID string, rank int) error {
	body := map[string]any{"contentId": contentID, "rank": rank}
	_, err := do[empty](ctx, c, http.MethodPost, "/collection/"+url.PathEscape(collectionID)+"/contents", nil, body)
	return err
}

// RemoveCollectionContent drops the association via
// DELETE /collection/:id/content/:contentId.
func (c *Client) RemoveCollectionContent(ctx context.Context, collectionID, contentID string) error {
	path := "/collection/" + url.PathEscape(collectionID) + "/content/" + url.PathEscape(contentID)
	_, err := do[empty](ctx, c, http.MethodDelete, path, nil, nil)
	return err
}

// SetContentRank moves a content inside a collection via
// PUT /collection/:id/content/:contentId/rank.
func (c *Client) SetContentRank(ctx context.Context, collectionID, contentID string, rank int) error {
	path := "/collection/" + url.PathEscape(collectionID) + "/content/" + url.PathEscape(contentID) + "/rank"
	body := map[string]int{"rank": rank}
	_, err := do[empty](ctx, c, http.MethodPut, path, nil, body)
	return err
}
