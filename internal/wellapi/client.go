package wellapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.cyclecal.app"
	restPrefix     = "/rest/v1"
	pageSize       = 500
	maxErrorBody   = 512
)

// Client reads a user's wellness records from the hosted REST store.
type Client struct {
	baseURL    string
	token      string
	loc        *time.Location
	httpClient *http.Client
}

// New creates a client using the default base URL. loc is the viewer's zone
// and decides which day a reminder timestamp belongs to.
func New(token string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		loc:     loc,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewWithBaseURL creates a client with a custom base URL.
func NewWithBaseURL(token, baseURL string, loc *time.Location) *Client {
	c := New(token, loc)
	if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
		c.baseURL = trimmed
	}
	return c
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s failed with status %d", e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unauthorized reports whether the token was rejected.
func (e *StatusError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Ping calls GET /rest/v1/ and returns nil only when status is 200.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, c.baseURL+restPrefix+"/")
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call ping endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping failed with status %d", resp.StatusCode)
	}
	return nil
}

// listAll pages through table with limit/offset until a short page.
func listAll[T any](ctx context.Context, c *Client, table string, query url.Values) ([]T, error) {
	out := make([]T, 0)
	for offset := 0; ; offset += pageSize {
		q := cloneValues(query)
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page []T
		if err := c.get(ctx, restPrefix+"/"+table, q, &page); err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	return c.getURL(ctx, fullURL, path, out)
}

func (c *Client) getURL(ctx context.Context, fullURL, path string, out any) error {
	req, err := c.newRequest(ctx, fullURL)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: http.MethodGet,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, fullURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.token)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
