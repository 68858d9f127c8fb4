package plet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"go.uber.org/zap"
)

// DefaultBaseURL is the PLET query CGI endpoint.
const DefaultBaseURL = "https://www.dassh.ac.uk/plet/cgi-bin/get_form.py"

// ClientConfig controls the fetch client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Retry     RetryConfig
}

// DefaultRetryConfig mirrors the service's observed latency profile:
// the CGI endpoint is slow, so attempts get a generous timeout and
// failures back off for a full minute before the second try.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries: 3,
		Backoff: 60 * time.Second,
		Timeout: 600 * time.Second,
	}
}

// Client issues spatio-temporal queries against the PLET endpoint with
// bounded retries and exponential backoff. The underlying http.Client
// (and its connection pool) is owned by the caller and shared across
// the whole batch run.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	clock      Clock
	logger     *zap.Logger
}

// NewClient builds a Client. httpClient must not be nil; per-attempt
// timeouts are enforced via request contexts, not the http.Client.
func NewClient(cfg ClientConfig, httpClient *http.Client, clock Clock, logger *zap.Logger) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Retry.Retries < 1 {
		return nil, fmt.Errorf("retry.retries must be >= 1, got %d", cfg.Retry.Retries)
	}
	if cfg.Retry.Backoff <= 0 {
		return nil, fmt.Errorf("retry.backoff must be > 0")
	}
	if cfg.Retry.Timeout <= 0 {
		return nil, fmt.Errorf("retry.timeout must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		clock:      clock,
		logger:     logger,
	}, nil
}

// ValidateQuery checks the query invariants: end date strictly after
// start date and a parsable, non-empty polygon or multipolygon WKT.
func ValidateQuery(q Query) error {
	if !q.EndDate.After(q.StartDate) {
		return &InvalidQueryError{Reason: "end_date must be after start_date"}
	}
	geom, err := wkt.Unmarshal(q.WKT)
	if err != nil {
		return &InvalidQueryError{Reason: "unparsable WKT geometry", Err: err}
	}
	switch g := geom.(type) {
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) == 0 {
			return &InvalidQueryError{Reason: "empty polygon geometry"}
		}
	case orb.MultiPolygon:
		if len(g) == 0 {
			return &InvalidQueryError{Reason: "empty multipolygon geometry"}
		}
	default:
		return &InvalidQueryError{Reason: fmt.Sprintf("geometry must be a polygon or multipolygon, got %s", geom.GeoJSONType())}
	}
	return nil
}

// Fetch validates q and performs up to Retries attempts against the
// endpoint, sleeping Backoff*2^(attempt-1) between failures. A 2xx body
// that turns out to be an embedded HTML error page is logged and
// returned as-is; the remote uses it to signal "no data for this query".
func (c *Client) Fetch(ctx context.Context, q Query) ([]byte, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}

	reqURL := c.queryURL(q)
	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retry.Retries; attempt++ {
		body, err := c.attempt(ctx, reqURL)
		if err == nil {
			if isErrorFragment(body) {
				TotalEmptyResults.Inc()
				c.logger.Warn("response carries an embedded error page; treating as empty result",
					zap.String("dataset", q.DatasetName),
					zap.String("start", q.StartDate.Format(DateFormat)),
					zap.String("end", q.EndDate.Format(DateFormat)),
				)
			}
			return body, nil
		}
		lastErr = err
		TotalRequestErrors.Inc()
		c.logger.Warn("request failed",
			zap.Int("attempt", attempt),
			zap.String("dataset", q.DatasetName),
			zap.Error(err),
		)
		if attempt == c.cfg.Retry.Retries {
			break
		}
		wait := c.cfg.Retry.Backoff << (attempt - 1)
		c.logger.Info("retrying after backoff",
			zap.Duration("wait", wait),
			zap.Int("next_attempt", attempt+1),
		)
		TotalRetries.Inc()
		if serr := c.clock.Sleep(ctx, wait); serr != nil {
			return nil, fmt.Errorf("backoff interrupted: %w", serr)
		}
	}
	return nil, &ExhaustedRetriesError{Attempts: c.cfg.Retry.Retries, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, reqURL string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Retry.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	TotalRequests.Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

func (c *Client) queryURL(q Query) string {
	params := url.Values{}
	params.Set("startdate", q.StartDate.Format(DateFormat))
	params.Set("enddate", q.EndDate.Format(DateFormat))
	params.Set("wkt", q.WKT)
	params.Set("abundance_dataset", q.DatasetName)
	params.Set("format", "csv")
	return c.cfg.BaseURL + "?" + params.Encode()
}
