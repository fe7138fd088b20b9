package api

import (
	"context"
	"fmt"

	"github.com/alphapie77/booklending-go/internal/catalog"
)

type CreateRequestInput struct {
	Book        catalog.ID `json:"book"`
	RequestType string     `json:"request_type,omitempty"`
	Message     string     `json:"message,omitempty"`
}

func (c *Client) Requests(ctx context.Context) ([]catalog.BookRequest, error) {
	var out []catalog.BookRequest
	if err := c.get(ctx, "/api/requests/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRequest(ctx context.Context, input CreateRequestInput) (catalog.BookRequest, error) {
	var out catalog.BookRequest
	if err := c.post(ctx, "/api/requests/", input, &out); err != nil {
		return catalog.BookRequest{}, err
	}
	return out, nil
}

func (c *Client) MyRequests(ctx context.Context) ([]catalog.BookRequest, error) {
	var out []catalog.BookRequest
	if err := c.get(ctx, "/api/requests/my_requests/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) IncomingRequests(ctx context.Context) ([]catalog.BookRequest, error) {
	var out []catalog.BookRequest
	if err := c.get(ctx, "/api/requests/incoming_requests/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AcceptRequest(ctx context.Context, id catalog.ID) error {
	return c.post(ctx, fmt.Sprintf("/api/requests/%s/accept_request/", id), nil, nil)
}

func (c *Client) DeclineRequest(ctx context.Context, id catalog.ID) error {
	return c.post(ctx, fmt.Sprintf("/api/requests/%s/decline_request/", id), nil, nil)
}
