package api

import (
	"context"

	"github.com/alphapie77/booklending-go/internal/catalog"
)

func (c *Client) Statistics(ctx context.Context) (catalog.Statistics, error) {
	var out catalog.Statistics
	if err := c.get(ctx, "/api/statistics/", nil, &out); err != nil {
		return catalog.Statistics{}, err
	}
	return out, nil
}

func (c *Client) FeaturedBooks(ctx context.Context) ([]catalog.Book, error) {
	var out []catalog.Book
	if err := c.get(ctx, "/api/featured-books/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
