package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yudswin/nettube/internal/models"
)

// ListPersons fetches all persons via GET /person.
func (c *Client) ListPersons(ctx context.Context) ([]models.Person, error) {
	return do[[]models.Person](ctx, c, http.MethodGet, "/person", nil, nil)
}

// GetPerson fetches one person via GET /person/:id.
func (c *Client) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	p, err := do[models.Person](ctx, c, http.MethodGet, "/person/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePerson creates a person via POST /person.
func (c *Client) CreatePerson(ctx context.Context, p models.Person) (*models.Person, error) {
	out, err := do[models.Person](ctx, c, http.MethodPost, "/person", nil, p)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePerson applies a field-level patch via PATCH /person/:id.
func (c *Client) UpdatePerson(ctx context.Context, id string, patch models.PersonPatch) (*models.Person, error) {
	out, err := do[models.Person](ctx, c, http.MethodPatch, "/person/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePerson removes a person via DELETE /person/:id.
func (c *Client) DeletePerson(ctx context.Context, id string) error {
	_, err := do[empty](ctx, c, http.MethodDelete, "/person/"+url.PathEscape(id), nil, nil)
	return err
}

// SearchPersons runs a free-text name search via GET /person/v1/search.
func (c *Client) SearchPersons(ctx context.Context, query string, page, limit int) (Page[models.Person], error) {
	q := url.Values{}
	q.Set("q", query)
	setPaging(q, page, limit)
	return do[Page[models.Person]](ctx, c, http.MethodGet, "/person/v1/search", q, nil)
}

// ListPersonDepartments fetches a person's departments via
// GET /person/:id/departments.
func (c *Client) ListPersonDepartments(ctx context.Context, personID string) ([]models.Department, error) {
	return do[[]models.Department](ctx, c, http.MethodGet, "/person/"+url.PathEscape(personID)+"/departments", nil, nil)
}

// AddPersonDepartment associates a department via POST /person/:id/departments.
func (c *Client) AddPersonDepartment(ctx context.Context, personID, departmentID string) error {
	body := map[string]string{"departmentId": departmentID}
	_, err := do[empty](ctx, c, http.MethodPost, "/person/"+url.PathEscape(personID)+"/departments", nil, body)
	return err
}

// RemovePersonDepartment drops the association via
// DELETE /person/:id/departments/:departmentId.
func (c *Client) RemovePersonDepartment(ctx context.Context, personID, departmentID string) error {
	path := "/person/" + url.PathEscape(personID) + "/departments/" + url.PathEscape(departmentID)
	_, err := do[empty](ctx, c, http.MethodDelete, path, nil, nil)
	return err
}
