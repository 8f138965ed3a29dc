package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"clubly/internal/models"
)

// IssueCredentials creates an account with a temporary password. The new user
// must change it on first login.
func (c *Client) IssueCredentials(ctx context.Context, token string, req models.TemporaryCredentialsRequest) (*models.TemporaryCredentialsResult, error) {
	var resp models.TemporaryCredentialsResult
	err := c.do(ctx, request{method: http.MethodPost, route: "/api/users/temporary-credentials", path: "/api/users/temporary-credentials", token: token, body: req}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SearchUsers(ctx context.Context, token string, req models.UserSearchRequest) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, request{method: http.MethodPost, route: "/api/users/search", path: "/api/users/search", token: token, body: req}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) UserProfile(ctx context.Context, token, userID string) (*models.User, error) {
	path := fmt.Sprintf("/api/users/%s/profile", url.PathEscape(userID))
	var user models.User
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/users/{id}/profile", path: path, token: token}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
