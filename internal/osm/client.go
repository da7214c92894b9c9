package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/metrics"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"golang.org/x/time/rate"
)

// Query outcomes recorded in metrics.
const (
	outcomeSuccess = "success"
	outcomeEmpty   = "empty"
	outcomeError   = "error"
)

// Client queries the Overpass API for map features around a point.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
	metrics    *metrics.Metrics
	baseURL    string
	filter     TagFilter
	timeout    time.Duration
}

// NewClient creates an Overpass client. ratePerSec bounds outgoing queries;
// zero or less disables limiting.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64, log *logger.Logger, m *metrics.Metrics) *Client {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  log.WithComponent("overpass"),
		metrics: m,
		baseURL: baseURL,
		filter:  DefaultTagFilter,
		timeout: timeout,
	}
}

// Features returns every element matching the tag filter within radius
// meters of (lat, lon). Transport, status and decode failures are returned.
func (c *Client) Features(ctx context.Context, lat, lon float64, radius int) ([]models.RawFeature, error) {
	start := time.Now()

	elements, err := c.query(ctx, BuildQuery(lat, lon, radius, c.filter, c.timeout))
	if err != nil {
		c.metrics.ObserveOverpass(outcomeError, time.Since(start))
		return nil, err
	}

	outcome := outcomeSuccess
	if len(elements) == 0 {
		outcome = outcomeEmpty
	}
	c.metrics.ObserveOverpass(outcome, time.Since(start))

	features := make([]models.RawFeature, 0, len(elements))
	for _, e := range elements {
		features = append(features, e.toRawFeature())
	}

	c.logger.Debug("Overpass query complete", logger.Fields{
		"latitude":  lat,
		"longitude": lon,
		"radius":    radius,
		"elements":  len(elements),
		"duration":  time.Since(start).String(),
	})
	return features, nil
}

func (c *Client) query(ctx context.Context, ql string) ([]element, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("overpass rate limit: %w", err)
	}

	form := url.Values{"data": {ql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, body)
	}

	var overpassResp response
	if err := json.NewDecoder(resp.Body).Decode(&overpassResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Overpass reports query timeouts and memory exhaustion as a remark on
	// an otherwise successful response.
	if strings.Contains(strings.ToLower(overpassResp.Remark), "error") {
		return nil, fmt.Errorf("overpass API error: %s", overpassResp.Remark)
	}
	return overpassResp.Elements, nil
}
