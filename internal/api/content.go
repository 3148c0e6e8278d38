package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yudswin/nettube/internal/models"
)

// Page is a paginated result slice with the total row count upstream.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ListContents fetches all contents via GET /content.
func (c *Client) ListContents(ctx context.Context) ([]models.Content, error) {
	return do[[]models.Content](ctx, c, http.MethodGet, "/content", nil, nil)
}

// GetContent fetches one content via GET /content/:id.
func (c *Client) GetContent(ctx context.Context, id string) (*models.Content, error) {
	ct, err := do[models.Content](ctx, c, http.MethodGet, "/content/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// CreateContent creates a content via POST /content and returns the
// stored record (with its server-assigned id).
func (c *Client) CreateContent(ctx context.Context, ct models.Content) (*models.Content, error) {
	out, err := do[models.Content](ctx, c, http.MethodPost, "/content", nil, ct)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateContent applies a field-level patch via PATCH /content/:id and
// returns the updated record.
func (c *Client) UpdateContent(ctx context.Context, id string, patch models.ContentPatch) (*models.Content, error) {
	out, err := do[models.Content](ctx, c, http.MethodPatch, "/content/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteContent removes a content via DELETE /content/:id.
func (c *Client) DeleteContent(ctx context.Context, id string) error {
	_, err := do[empty](ctx, c, http.MethodDelete, "/content/"+url.PathEscape(id), nil, nil)
	return err
}

// SearchContents runs a free-text title search via GET /content/v1/search.
func (c *Client) SearchContents(ctx context.Context, query string, page, limit int) (Page[models.Content], error) {
	q := url.Values{}
	q.Set("q", query)
	setPaging(q, page, limit)
	return do[Page[models.Content]](ctx, c, http.MethodGet, "/content/v1/search", q, nil)
}

// BrowseContents filters the catalog via GET /content/v1/browse.
func (c *Client) BrowseContents(ctx context.Context, f models.BrowseFilter) (Page[models.Content], error) {
	q := url.Values{}
	if len(f.Years) > 0 {
		years := make([]string, len(f.Years))
		for i, y := range f.Years {
			years[i] = strconv.Itoa(y)
		}
		q.Set("years", strings.Join(years, ","))
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if len(f.GenreSlugs) > 0 {
		q.Set("genreSlugs", strings.Join(f.GenreSlugs, ","))
	}
	if len(f.CountrySlugs) > 0 {
		q.Set("countrySlugs", strings.Join(f.CountrySlugs, ","))
	}
	setPaging(q, f.Page, f.Limit)
	return do[Page[models.Content]](ctx, c, http.MethodGet, "/content/v1/browse", q, nil)
}

func setPaging(q url.Values, page, limit int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
}
