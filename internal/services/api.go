// Backend client for raw HTTP requests to the prediction service
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/ridex/internal/shared"
	"golang.org/x/time/rate"
)

// Backend provides GET access to the prediction backend.
type Backend struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	athleteID  string
}

// BackendOpts configures a [Backend].
type BackendOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	RateLimit  float64 // Requests per second; 0 disables throttling
	AthleteID  string  // Sent as the athlete_id cookie when set
}

var _ Fetcher = (*Backend)(nil)

// NewBackend creates a new backend client.
func NewBackend(opts BackendOpts) *Backend {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBackendURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	b := &Backend{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		athleteID:  opts.AthleteID,
	}
	if opts.RateLimit > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return b
}

// NewBackendFromConfig builds a [Backend] from the [shared.BackendConfig] section.
func NewBackendFromConfig(cfg shared.BackendConfig, client *http.Client) *Backend {
	return NewBackend(BackendOpts{
		BaseURL:    cfg.BaseURL,
		HTTPClient: client,
		RateLimit:  cfg.RateLimit,
		AthleteID:  cfg.AthleteID,
	})
}

// BaseURL returns the configured base URL without a trailing slash.
func (b *Backend) BaseURL() string { return b.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns nil for 2xx responses and an [shared.ErrAPIRequest] otherwise.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}
	body := string(r.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, r.StatusCode, body)
}

// URL builds the absolute request URL with encoded query parameters.
func (b *Backend) URL(endpoint string, params url.Values) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	u := b.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Get performs a GET request to endpoint and returns the raw response.
func (b *Backend) Get(ctx context.Context, endpoint string, params url.Values) (*APIResponse, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, limiterErr(ctx, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL(endpoint, params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	if b.athleteID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: b.athleteID})
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, wrapContextErr(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapContextErr(fmt.Errorf("failed to read response: %w", err))
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// wrapContextErr tags deadline errors with [shared.ErrTimeout].
func wrapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
	}
	return err
}

// limiterErr tags a failed limiter wait with [shared.ErrTimeout] when the
// deadline, rather than a cancellation, stopped it. The limiter refuses to
// wait past the deadline without returning [context.DeadlineExceeded].
func limiterErr(ctx context.Context, err error) error {
	err = fmt.Errorf("rate limiter: %w", err)
	if _, ok := ctx.Deadline(); ok && !errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
	}
	return err
}
