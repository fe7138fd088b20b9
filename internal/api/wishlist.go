package api

import (
	"context"
	"fmt"

	"github.com/alphapie77/booklending-go/internal/catalog"
)

type WishlistAddInput struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Notes  string `json:"notes,omitempty"`
}

type WishlistMatches struct {
	MatchingBooks []catalog.Book `json:"matching_books"`
}

func (c *Client) Wishlist(ctx context.Context) ([]catalog.WishlistItem, error) {
	var out []catalog.WishlistItem
	if err := c.get(ctx, "/api/wishlist/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WishlistWithAvailability(ctx context.Context) ([]catalog.WishlistItem, error) {
	var out []catalog.WishlistItem
	if err := c.get(ctx, "/api/wishlist/with_availability/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddToWishlist(ctx context.Context, input WishlistAddInput) (catalog.WishlistItem, error) {
	var out catalog.WishlistItem
	if err := c.post(ctx, "/api/add-wishlist/", input, &out); err != nil {
		return catalog.WishlistItem{}, err
	}
	return out, nil
}

func (c *Client) RemoveFromWishlist(ctx context.Context, id catalog.ID) error {
	return c.delete(ctx, fmt.Sprintf("/api/wishlist/%s/", id))
}

func (c *Client) FindWishlistMatches(ctx context.Context, id catalog.ID) (WishlistMatches, error) {
	var out WishlistMatches
	if err := c.post(ctx, fmt.Sprintf("/api/wishlist/%s/find_matches/", id), nil, &out); err != nil {
		return WishlistMatches{}, err
	}
	return out, nil
}
