package api

import (
	"context"
	"net/http"

	"clubly/internal/models"
)

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, request{method: http.MethodPost, route: "/api/auth/login", path: "/api/auth/login", body: req}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if req.Ruolo == "" {
		req.Ruolo = models.RoleCliente
	}
	var resp models.AuthResponse
	err := c.do(ctx, request{method: http.MethodPost, route: "/api/auth/register", path: "/api/auth/register", body: req}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the user the token belongs to.
func (c *Client) Profile(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/user/profile", path: "/api/user/profile", token: token}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CompleteSetup(ctx context.Context, token string, req models.SetupRequest) (*models.User, error) {
	return c.userMutation(ctx, request{method: http.MethodPost, route: "/api/user/setup", path: "/api/user/setup", token: token, body: req})
}

// ChangePassword returns the updated user, or nil when the backend answers
// without one.
func (c *Client) ChangePassword(ctx context.Context, token string, req models.ChangePasswordRequest) (*models.User, error) {
	return c.userMutation(ctx, request{method: http.MethodPost, route: "/api/user/change-password", path: "/api/user/change-password", token: token, body: req})
}

func (c *Client) EditProfile(ctx context.Context, token string, req models.ProfileEditRequest) (*models.User, error) {
	return c.userMutation(ctx, request{method: http.MethodPut, route: "/api/user/profile/edit", path: "/api/user/profile/edit", token: token, body: req})
}

func (c *Client) userMutation(ctx context.Context, r request) (*models.User, error) {
	var env struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, r, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// ForgetToken releases per-token client resources after logout.
func (c *Client) ForgetToken(token string) {
	c.limiter.forget(token)
}
