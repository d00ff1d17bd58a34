// Package playfab is a small client for the PlayFab Admin catalog API.
//
// Only the calls the catalog tools need are implemented: reading and
// updating the items of a catalog version. Requests are authenticated with
// the title secret key and retried with exponential backoff on network
// errors, throttling and server errors.
package playfab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotConfigured is returned by NewClient without a title id or secret key.
var ErrNotConfigured = errors.New("playfab: title id and secret key are required")

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 32 << 20

// Options configures a Client.
type Options struct {
	TitleID   string
	SecretKey string
	// BaseURL overrides https://{TitleID}.playfabapi.com.
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the Admin API for one title. It is safe for concurrent use.
type Client struct {
	baseURL    string
	titleID    string
	secretKey  string
	http       *http.Client
	maxRetries int
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

// NewClient validates opts and returns a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.TitleID == "" || opts.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://" + opts.TitleID + ".playfabapi.com"
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		titleID:    opts.TitleID,
		secretKey:  opts.SecretKey,
		http:       hc,
		maxRetries: opts.MaxRetries,
		logger:     logger.With("component", "playfab", "title_id", opts.TitleID),
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}, nil
}

// TitleID returns the title the client talks to.
func (c *Client) TitleID() string { return c.titleID }

// GetCatalogItems returns every item in a catalog version. An empty version
// reads the title's default catalog.
func (c *Client) GetCatalogItems(ctx context.Context, catalogVersion string) ([]CatalogItem, error) {
	var result getCatalogItemsResult
	if err := c.call(ctx, "/Admin/GetCatalogItems", getCatalogItemsRequest{CatalogVersion: catalogVersion}, &result); err != nil {
		return nil, err
	}
	return result.Catalog, nil
}

// UpdateCatalogItems adds or replaces items in a catalog version.
func (c *Client) UpdateCatalogItems(ctx context.Context, req UpdateCatalogItemsRequest) error {
	if req.Catalog == nil {
		req.Catalog = []CatalogItem{}
	}
	return c.call(ctx, "/Admin/UpdateCatalogItems", req, nil)
}

// envelope is the wrapper PlayFab puts around every response.
type envelope struct {
	Code         int                 `json:"code"`
	Status       string              `json:"status"`
	Data         json.RawMessage     `json:"data"`
	Error        string              `json:"error"`
	ErrorCode    int                 `json:"errorCode"`
	ErrorMessage string              `json:"errorMessage"`
	ErrorDetails map[string][]string `json:"errorDetails"`
}

// APIError is a failed Admin API call.
type APIError struct {
	Path       string
	HTTPStatus int
	Name       string // PlayFab error name, e.g. "InvalidParams"
	Code       int    // PlayFab numeric error code
	Message    string
	Details    map[string][]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.HTTPStatus)
	}
	if e.Name != "" {
		return fmt.Sprintf("playfab %s: %s (%s, http %d)", e.Path, msg, e.Name, e.HTTPStatus)
	}
	return fmt.Sprintf("playfab %s: %s (http %d)", e.Path, msg, e.HTTPStatus)
}

// Temporary reports whether retrying the call may succeed.
func (e *APIError) Temporary() bool {
	return e.HTTPStatus == http.StatusTooManyRequests || e.HTTPStatus >= 500
}

func (c *Client) call(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	attempt := 0
	op := func() error {
		attempt++
		return c.do(ctx, path, body, out)
	}

	var b backoff.BackOff = c.newBackOff()
	if c.maxRetries >= 0 {
		b = backoff.WithMaxRetries(b, uint64(c.maxRetries))
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("playfab call failed, retrying",
			"path", path,
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return err
	}
	c.logger.Debug("playfab call succeeded", "path", path, "attempts", attempt)
	return nil
}

// do performs one attempt. Errors that retrying cannot fix are wrapped with
// backoff.Permanent.
func (c *Client) do(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build %s request: %w", path, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-SecretKey", c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return fmt.Errorf("playfab %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("playfab %s: read response: %w", path, err)
	}

	var env envelope
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil && resp.StatusCode == http.StatusOK {
		return backoff.Permanent(fmt.Errorf("playfab %s: decode response: %w", path, jsonErr))
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			Path:       path,
			HTTPStatus: resp.StatusCode,
			Name:       env.Error,
			Code:       env.ErrorCode,
			Message:    env.ErrorMessage,
			Details:    env.ErrorDetails,
		}
		if apiErr.Temporary() {
			return apiErr
		}
		return backoff.Permanent(apiErr)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("playfab %s: decode data: %w", path, err))
	}
	return nil
}
