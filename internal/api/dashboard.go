package api

import (
	"context"
	"fmt"
	"net/http"

	"clubly/internal/models"
)

func (c *Client) Dashboard(ctx context.Context, token string, view models.DashboardView) (*models.Dashboard, error) {
	if view == models.ViewMain || !view.Valid() {
		return nil, fmt.Errorf("no dashboard endpoint for view %q", view)
	}
	path := "/api/dashboard/" + string(view)
	var dash models.Dashboard
	if err := c.do(ctx, request{method: http.MethodGet, route: path, path: path, token: token}, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}
