package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/orderdesk/internal/core"
	"golang.org/x/net/publicsuffix"
)

const (
	CSRFHeader     = "X-CSRFToken"
	CSRFCookieName = "csrftoken"

	pagePath     = "/"
	ordersPath   = "/get_new_orders/"
	statsPath    = "/get_order_stats/"
	markDonePath = "/mark_order_done/%s/"
)

// StatusError records a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// StatusCode extracts the HTTP status from err, or 0 when err carries none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// StatsPayload is the decoded body of the stats endpoint.
type StatsPayload struct {
	NewCount       float64
	DeliveredCount float64
}

// Client talks to the order backend. It keeps a cookie jar so the csrf
// cookie set by the dashboard page is available to later requests.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout bounds every request. Zero means no bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying client. Its jar is kept if set.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar = c.httpClient.Jar
		}
		c.httpClient = hc
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("base url: %w", err))
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("base url %q must be absolute", baseURL))
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchPage loads the dashboard page. The response may set the csrf cookie.
func (c *Client) FetchPage(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, pagePath, nil, nil, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchOrders returns the order list fragment for status.
func (c *Client) FetchOrders(ctx context.Context, status core.Status) (string, error) {
	q := url.Values{"status": {string(status)}}
	body, err := c.do(ctx, http.MethodGet, ordersPath, q, nil, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchStats returns the per-status counts. Both fields must be present
// and numeric.
func (c *Client) FetchStats(ctx context.Context) (StatsPayload, error) {
	body, err := c.do(ctx, http.MethodGet, statsPath, nil, nil, nil)
	if err != nil {
		return StatsPayload{}, err
	}

	var raw struct {
		NewCount       *float64 `json:"new_count"`
		DeliveredCount *float64 `json:"delivered_count"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return StatsPayload{}, core.WrapError(core.ErrParseFailure, fmt.Errorf("decoding stats: %w", err))
	}
	if raw.NewCount == nil || raw.DeliveredCount == nil {
		return StatsPayload{}, core.WrapError(core.ErrParseFailure, errors.New("stats missing new_count or delivered_count"))
	}
	return StatsPayload{NewCount: *raw.NewCount, DeliveredCount: *raw.DeliveredCount}, nil
}

// MarkDone posts the mark-done request for id. An empty token sends no
// csrf header and leaves rejection to the server.
func (c *Client) MarkDone(ctx context.Context, id, token string) error {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if token != "" {
		header.Set(CSRFHeader, token)
	}
	path := fmt.Sprintf(markDonePath, url.PathEscape(id))
	_, err := c.do(ctx, http.MethodPost, path, nil, header, []byte("{}"))
	return err
}

// Cookie returns the decoded value of the named cookie for the backend.
func (c *Client) Cookie(name string) string {
	if c.httpClient.Jar == nil {
		return ""
	}
	for _, ck := range c.httpClient.Jar.Cookies(c.baseURL) {
		if ck.Name != name {
			continue
		}
		if v, err := url.PathUnescape(ck.Value); err == nil {
			return v
		}
		return ck.Value
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, header http.Header, body []byte) ([]byte, error) {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, core.WrapError(core.ErrNetworkFailure, fmt.Errorf("creating request: %w", err))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrNetworkFailure, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, core.WrapError(core.ErrHTTPStatus, &StatusError{Method: method, Path: path, Code: resp.StatusCode})
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.WrapError(core.ErrNetworkFailure, fmt.Errorf("reading %s body: %w", path, err))
	}
	return data, nil
}

// errorKind names the failure class of a client error for metrics and logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrHTTPStatus):
		return "http_status"
	case errors.Is(err, core.ErrParseFailure):
		return "parse"
	case errors.Is(err, core.ErrNetworkFailure):
		return "network"
	default:
		return "unknown"
	}
}
