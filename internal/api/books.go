package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/alphapie77/booklending-go/internal/catalog"
)

type BookSearchParams struct {
	Query  string
	Author string
	Genre  string
}

func (p BookSearchParams) values() url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Author != "" {
		v.Set("author", p.Author)
	}
	if p.Genre != "" {
		v.Set("genre", p.Genre)
	}
	return v
}

func (c *Client) Books(ctx context.Context) ([]catalog.Book, error) {
	var out []catalog.Book
	if err := c.get(ctx, "/api/books/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Book(ctx context.Context, id catalog.ID) (catalog.Book, error) {
	var out catalog.Book
	if err := c.get(ctx, fmt.Sprintf("/api/books/%s/", id), nil, &out); err != nil {
		return catalog.Book{}, err
	}
	return out, nil
}

func (c *Client) CreateBook(ctx context.Context, book catalog.Book) (catalog.Book, error) {
	var out catalog.Book
	if err := c.post(ctx, "/api/create-book-simple/", book, &out); err != nil {
		return catalog.Book{}, err
	}
	return out, nil
}

func (c *Client) UpdateBook(ctx context.Context, id catalog.ID, book catalog.Book) (catalog.Book, error) {
	var out catalog.Book
	if err := c.put(ctx, fmt.Sprintf("/api/books/%s/", id), book, &out); err != nil {
		return catalog.Book{}, err
	}
	return out, nil
}

func (c *Client) DeleteBook(ctx context.Context, id catalog.ID) error {
	return c.delete(ctx, fmt.Sprintf("/api/books/%s/", id))
}

func (c *Client) AvailableBooks(ctx context.Context) ([]catalog.Book, error) {
	var out []catalog.Book
	if err := c.get(ctx, "/api/books/available/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyBooks(ctx context.Context) ([]catalog.Book, error) {
	var out []catalog.Book
	if err := c.get(ctx, "/api/books/my_books/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchBooks(ctx context.Context, params BookSearchParams) ([]catalog.Book, error) {
	var out []catalog.Book
	if err := c.get(ctx, "/api/books/search/", params.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BookInfo is enrichment metadata the backend resolves from the book's ISBN.
type BookInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description"`
	PublishedDate string   `json:"publishedDate"`
	Categories    []string `json:"categories"`
	ImageLinks    struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

func (c *Client) BookInfo(ctx context.Context, id catalog.ID) (BookInfo, error) {
	var out BookInfo
	if err := c.get(ctx, fmt.Sprintf("/api/books/%s/book_info_api/", id), nil, &out); err != nil {
		return BookInfo{}, err
	}
	return out, nil
}
