package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1"

type Client struct {
	baseURL string
	httpc   *http.Client
}

type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"publishedDate"`
	Description   string   `json:"description"`
	PageCount     int      `json:"pageCount"`
	Categories    []string `json:"categories"`
	ImageLinks    struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

type SearchResult struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Search(ctx context.Context, query string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, fmt.Errorf("query must not be empty")
	}

	v := url.Values{}
	v.Set("q", query)
	v.Set("maxResults", "10")
	v.Set("printType", "books")
	return c.volumes(ctx, v)
}

func (c *Client) ByISBN(ctx context.Context, isbn string) (SearchResult, error) {
	cleaned := cleanISBN(isbn)
	if cleaned == "" {
		return SearchResult{}, fmt.Errorf("invalid isbn %q", isbn)
	}

	v := url.Values{}
	v.Set("q", "isbn:"+cleaned)
	return c.volumes(ctx, v)
}

func (c *Client) volumes(ctx context.Context, query url.Values) (SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes?"+query.Encode(), nil)
	if err != nil {
		return SearchResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("query volumes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SearchResult{}, fmt.Errorf("volumes request failed with status %d", resp.StatusCode)
	}

	var out SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return SearchResult{}, fmt.Errorf("decode volumes response: %w", err)
	}
	return out, nil
}

// cleanISBN strips everything but digits and the X check character.
func cleanISBN(isbn string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(isbn) {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
