package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client talks to the BookLending backend. It owns the authorization token:
// once armed with SetToken, every request carries `Authorization: Token <t>`
// until ClearToken. A 401 from any endpoint disarms the token and fires the
// registered OnUnauthorized callback, so session state and the client never
// disagree about whether a login exists.
type Client struct {
	baseURL  string
	httpc    *http.Client
	log      *slog.Logger
	clientID string

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  base,
		httpc:    &http.Client{Timeout: cfg.Timeout},
		log:      logger,
		clientID: uuid.NewString(),
	}, nil
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetOnUnauthorized registers the callback invoked when any request is
// rejected with 401. The callback must not call back into the client.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) ClientID() string {
	return c.clientID
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	p := path
	if len(query) > 0 {
		p += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, p, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	contentType := ""

	switch b := body.(type) {
	case nil:
	case *multipartForm:
		buf, ct, err := b.encode()
		if err != nil {
			return fmt.Errorf("encode multipart body: %w", err)
		}
		reader = buf
		contentType = ct
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-ID", c.clientID)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(method, path)
	}
	if resp.StatusCode >= 400 {
		return parseError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) handleUnauthorized(method, path string) {
	c.mu.Lock()
	c.token = ""
	fn := c.onUnauthorized
	c.mu.Unlock()

	c.log.Warn("request rejected as unauthorized", "method", method, "path", path)
	if fn != nil {
		fn()
	}
}

type multipartForm struct {
	fields   map[string]string
	fileName string
	filePart string
	file     io.Reader
}

func (m *multipartForm) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range m.fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if m.file != nil {
		part, err := w.CreateFormFile(m.filePart, m.fileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, m.file); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
