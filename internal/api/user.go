package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yudswin/nettube/internal/models"
)

// ListHistory fetches the user's watch history via GET /api/user/history.
func (c *Client) ListHistory(ctx context.Context) ([]models.History, error) {
	return do[[]models.History](ctx, c, http.MethodGet, "/api/user/history", nil, nil)
}

// GetHistory fetches the history row for one media, if any, via
// GET /api/user/history/:mediaId. A missing row is an *APIError.
func (c *Client) GetHistory(ctx context.Context, mediaID string) (*models.History, error) {
	h, err := do[models.History](ctx, c, http.MethodGet, "/api/user/history/"+url.PathEscape(mediaID), nil, nil)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHistory creates the history row via POST /api/user/history.
func (c *Client) CreateHistory(ctx context.Context, h models.History) (*models.History, error) {
	out, err := do[models.History](ctx, c, http.MethodPost, "/api/user/history", nil, h)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateHistory upserts progress via PATCH /api/user/history/:mediaId.
func (c *Client) UpdateHistory(ctx context.Context, h models.History) error {
	_, err := do[empty](ctx, c, http.MethodPatch, "/api/user/history/"+url.PathEscape(h.MediaID), nil, h)
	return err
}

// DeleteHistory removes the row via DELETE /api/user/history/:mediaId.
func (c *Client) DeleteHistory(ctx context.Context, mediaID string) error {
	_, err := do[empty](ctx, c, http.MethodDelete, "/api/user/history/"+url.PathEscape(mediaID), nil, nil)
	return err
}

// ListFavorites fetches the user's favorites via GET /api/user/favorite.
func (c *Client) ListFavorites(ctx context.Context) ([]models.Favorite, error) {
	return do[[]models.Favorite](ctx, c, http.MethodGet, "/api/user/favorite", nil, nil)
}

// AddFavorite marks a content via POST /api/user/favorite.
func (c *Client) AddFavorite(ctx context.Context, contentID string) error {
	body := map[string]string{"contentId": contentID}
	_, err := do[empty](ctx, c, http.MethodPost, "/api/user/favorite", nil, body)
	return err
}

// RemoveFavorite unmarks a content via DELETE /api/user/favorite/:contentId.
func (c *Client) RemoveFavorite(ctx context.Context, contentID string) error {
	_, err := do[empty](ctx, c, http.MethodDelete, "/api/user/favorite/"+url.PathEscape(contentID), nil, nil)
	return err
}
