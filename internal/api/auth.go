package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yudswin/nettube/internal/models"
	"github.com/yudswin/nettube/internal/session"
)

// Credentials is the login/register request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"` // register only
}

// authResult is the login/register response payload.
type authResult struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Login authenticates against POST /user/auth/login and stores the
// returned token pair in the session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*models.User, error) {
	res, err := do[authResult](ctx, c, http.MethodPost, "/user/auth/login", nil, creds)
	if err != nil {
		return nil, err
	}
	if err := c.session.Set(session.Tokens{Access: res.AccessToken, Refresh: res.RefreshToken}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	c.session.SetUser(&res.User)
	return &res.User, nil
}

// Register creates an account via POST /user/auth/register and logs it in.
func (c *Client) Register(ctx context.Context, creds Credentials) (*models.User, error) {
	res, err := do[authResult](ctx, c, http.MethodPost, "/user/auth/register", nil, creds)
	if err != nil {
		return nil, err
	}
	if err := c.session.Set(session.Tokens{Access: res.AccessToken, Refresh: res.RefreshToken}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	c.session.SetUser(&res.User)
	return &res.User, nil
}

// Me fetches the authenticated user via GET /user/me.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	u, err := do[models.User](ctx, c, http.MethodGet, "/user/me", nil, nil)
	if err != nil {
		return nil, err
	}
	c.session.SetUser(&u)
	return &u, nil
}

// Logout drops the local session. The upstream has no logout endpoint;
// credentials are simply forgotten.
func (c *Client) Logout() error {
	return c.session.Clear()
}
