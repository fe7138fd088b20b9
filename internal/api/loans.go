package api

import (
	"context"
	"fmt"

	"github.com/alphapie77/booklending-go/internal/catalog"
)

func (c *Client) Loans(ctx context.Context) ([]catalog.Loan, error) {
	var out []catalog.Loan
	if err := c.get(ctx, "/api/loans/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyLoans(ctx context.Context) ([]catalog.Loan, error) {
	var out []catalog.Loan
	if err := c.get(ctx, "/api/loans/my_loans/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyLentBooks(ctx context.Context) ([]catalog.Loan, error) {
	var out []catalog.Loan
	if err := c.get(ctx, "/api/loans/my_lent_books/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ReturnBook(ctx context.Context, loanID catalog.ID) error {
	return c.post(ctx, fmt.Sprintf("/api/loans/%s/return_book/", loanID), nil, nil)
}
