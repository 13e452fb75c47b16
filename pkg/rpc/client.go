package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valscope/valscope/pkg/utils"
	"go.uber.org/zap"
)

// ErrRateLimited is returned when the upstream answers 429. Callers treat it
// differently from ordinary failures: wait longer, retry, don't count it
// against any error budget.
var ErrRateLimited = errors.New("rate limited by upstream")

// ErrUnavailable is returned on 404/501, which LCD providers use for endpoint
// shapes they don't serve. Callers fall through to the next known shape.
var ErrUnavailable = errors.New("endpoint not available")

// Client is a thin JSON client for one chain's LCD REST API.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

// Opts configures a Client.
type Opts struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New creates a Client for the given LCD base URL.
func New(o Opts, logger *zap.Logger) *Client {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	httpClient := o.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.Timeout}
	} else if httpClient.Timeout == 0 {
		httpClient.Timeout = o.Timeout
	}

	return &Client{
		base:   strings.TrimRight(o.BaseURL, "/"),
		http:   httpClient,
		logger: logger,
	}
}

// getJSON performs a GET against path and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer utils.DrainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", path, ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNotImplemented:
		return fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, ErrUnavailable)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// getFirst tries an ordered list of endpoint shapes, moving to the next one
// only when the current shape is not served at all.
func (c *Client) getFirst(ctx context.Context, paths []string, query url.Values, out any) error {
	var lastErr error
	for _, p := range paths {
		err := c.getJSON(ctx, p, query, out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return err
		}
		c.logger.Debug("Endpoint shape not served, trying next",
			zap.String("path", p))
		lastErr = err
	}
	return lastErr
}
