package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"clubly/internal/models"
)

func (c *Client) ListOrganizations(ctx context.Context, token string) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/organizations", path: "/api/organizations", token: token}, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (c *Client) GetOrganization(ctx context.Context, token, id string) (*models.Organization, error) {
	path := "/api/organizations/" + url.PathEscape(id)
	var org models.Organization
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/organizations/{id}", path: path, token: token}, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *Client) CreateOrganization(ctx context.Context, token string, in models.OrganizationInput) (string, error) {
	var resp models.OrganizationCreated
	if err := c.do(ctx, request{method: http.MethodPost, route: "/api/organizations", path: "/api/organizations", token: token, body: in}, &resp); err != nil {
		return "", err
	}
	return resp.OrganizationID, nil
}

func (c *Client) UpdateOrganization(ctx context.Context, token, id string, in models.OrganizationInput) error {
	path := "/api/organizations/" + url.PathEscape(id)
	return c.do(ctx, request{method: http.MethodPut, route: "/api/organizations/{id}", path: path, token: token, body: in}, nil)
}

func (c *Client) AssignCapoPromoter(ctx context.Context, token, orgID, userID string) error {
	path := fmt.Sprintf("/api/organizations/%s/assign-capo-promoter", url.PathEscape(orgID))
	body := models.AssignCapoPromoterRequest{CapoPromoterID: userID}
	return c.do(ctx, request{method: http.MethodPut, route: "/api/organizations/{id}/assign-capo-promoter", path: path, token: token, body: body}, nil)
}

func (c *Client) AvailableCapoPromoters(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/organizations/available-capo-promoters", path: "/api/organizations/available-capo-promoters", token: token}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// OrganizationPromoters lists the promoters of an organization by name.
func (c *Client) OrganizationPromoters(ctx context.Context, token, orgName string) ([]models.User, error) {
	path := fmt.Sprintf("/api/organizations/%s/promoters", url.PathEscape(orgName))
	var users []models.User
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/organizations/{name}/promoters", path: path, token: token}, &users); err != nil {
		return nil, err
	}
	return users, nil
}
