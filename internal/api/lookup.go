package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yudswin/nettube/internal/models"
)

// Genres.

// ListGenres fetches all genres via GET /content/genre.
func (c *Client) ListGenres(ctx context.Context) ([]models.Genre, error) {
	return do[[]models.Genre](ctx, c, http.MethodGet, "/content/genre", nil, nil)
}

// CreateGenre creates a genre via POST /content/genre.
func (c *Client) CreateGenre(ctx context.Context, g models.Genre) (*models.Genre, error) {
	out, err := do[models.Genre](ctx, c, http.MethodPost, "/content/genre", nil, g)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateGenre renames a genre via PATCH /content/genre/:id.
func (c *Client) UpdateGenre(ctx context.Context, id string, g models.Genre) (*models.Genre, error) {
	out, err := do[models.Genre](ctx, c, http.MethodPatch, "/content/genre/"+url.PathEscape(id), nil, g)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteGenre removes a genre via DELETE /content/genre/:id.
func (c *Client) DeleteGenre(ctx context.Context, id string) error {
	_, err := do[empty](ctx, c, http.MethodDelete, "/content/genre/"+url.PathEscape(id), nil, nil)
	return err
}

// Countries.

// ListCountries fetches all countries via GET /content/country.
func (c *Client) ListCountries(ctx context.Context) ([]models.Country, error) {
	return do[[]models.Country](ctx, c, http.MethodGet, "/content/country", nil, nil)
}

// CreateCountry creates a country via POST /content/country.
func (c *Client) CreateCountry(ctx context.Context, co models.Country) (*models.Country, error) {
	out, err := do[models.Country](ctx, c, http.MethodPost, "/content/country", nil, co)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCountry renames a country via PATCH /content/country/:id.
func (c *Client) UpdateCountry(ctx context.Context, id string, co models.Country) (*models.Country, error) {
	out, err := do[models.Country](ctx, c, http.MethodPatch, "/content/country/"+url.PathEscape(id), nil, co)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCountry removes a country via DELETE /content/country/:id.
func (c *Client) DeleteCountry(ctx context.Context, id string) error {
	_, err := do[empty](ctx, c, http.MethodDelete, "/content/country/"+url.PathEscape(id), nil, nil)
	return err
}

// Departments.

// ListDepartments fetches all departments via GET /department.
func (c *Client) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return do[[]models.Department](ctx, c, http.MethodGet, "/department", nil, nil)
}

// CreateDepartment creates a department via POST /department.
func (c *Client) CreateDepartment(ctx context.Context, d models.Department) (*models.Department, error) {
	out, err := do[models.Department](ctx, c, http.MethodPost, "/department", nil, d)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDepartment renames a department via PATCH /department/:id.
func (c *Client) UpdateDepartment(ctx context.Context, id string, d models.Department) (*models.Department, error) {
	out, err := do[models.Department](ctx, c, http.MethodPatch, "/department/"+url.PathEscape(id), nil, d)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDepartment removes a department via DELETE /department/:id.
func (c *Client) DeleteDepartment(ctx context.Context, id string) error {
	_, err := do[empty](ctx, c, http.MethodDelete, "/department/"+url.PathEscape(id), nil, nil)
	return err
}
