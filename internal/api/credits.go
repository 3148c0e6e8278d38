package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yudswin/nettube/internal/models"
)

// ListCast fetches the cast rows via GET /content/cast/:contentId.
func (c *Client) ListCast(ctx context.Context, contentID string) ([]models.CastMember, error) {
	return do[[]models.CastMember](ctx, c, http.MethodGet, "/content/cast/"+url.PathEscape(contentID), nil, nil)
}

// AddCast associates a person as cast via POST /content/cast/:contentId.
func (c *Client) AddCast(ctx context.Context, cm models.CastMember) (*models.CastMember, error) {
	out, err := do[models.CastMember](ctx, c, http.MethodPost, "/content/cast/"+url.PathEscape(cm.ContentID), nil, cm)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveCast deletes one cast row via DELETE /content/cast/:contentId.
func (c *Client) RemoveCast(ctx context.Context, contentID, personID string) error {
	q := url.Values{}
	q.Set("personId", personID)
	_, err := do[empty](ctx, c, http.MethodDelete, "/content/cast/"+url.PathEscape(contentID), q, nil)
	return err
}

// ListDirectors fetches director rows via GET /content/director/:contentId.
func (c *Client) ListDirectors(ctx context.Context, contentID string) ([]models.Director, error) {
	return do[[]models.Director](ctx, c, http.MethodGet, "/content/director/"+url.PathEscape(contentID), nil, nil)
}

// AddDirector associates a person as director via POST /content/director/:contentId.
func (c *Client) AddDirector(ctx context.Context, d models.Director) (*models.Director, error) {
	out, err := do[models.Director](ctx, c, http.MethodPost, "/content/director/"+url.PathEscape(d.ContentID), nil, d)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveDirector deletes one director row via DELETE /content/director/:contentId.
func (c *Client) RemoveDirector(ctx context.Context, contentID, personID string) error {
	q := url.Values{}
	q.Set("personId", personID)
	_, err := do[empty](ctx, c, http.MethodDelete, "/content/director/"+url.PathEscape(contentID), q, nil)
	return err
}
