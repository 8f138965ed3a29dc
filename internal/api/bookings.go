package api

import (
	"context"
	"net/http"

	"clubly/internal/models"
)

// CreateBooking submits a booking. The backend assigns the promoter and opens
// the chat; table availability changes, so the catalog cache is dropped.
func (c *Client) CreateBooking(ctx context.Context, token string, req models.BookingRequest) (*models.BookingResult, error) {
	var resp models.BookingResult
	if err := c.do(ctx, request{method: http.MethodPost, route: "/api/bookings", path: "/api/bookings", token: token, body: req}, &resp); err != nil {
		return nil, err
	}
	c.InvalidateEvents(ctx, req.EventID)
	return &resp, nil
}

func (c *Client) UserBookings(ctx context.Context, token string) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.do(ctx, request{method: http.MethodGet, route: "/api/user/bookings", path: "/api/user/bookings", token: token}, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
