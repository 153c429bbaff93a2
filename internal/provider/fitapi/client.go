// Package fitapi implements the provider contract against the hosted
// fitness platform's REST API.
package fitapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/C-Tharun/vitalsync/internal/models"
	"github.com/C-Tharun/vitalsync/internal/provider"
)

// metricPaths maps metric kinds to the platform's data type slugs.
var metricPaths = map[models.MetricKind]string{
	models.MetricHeartRate:   "heart_rate.bpm",
	models.MetricSteps:       "step_count.delta",
	models.MetricCalories:    "calories.expended",
	models.MetricDistance:    "distance.delta",
	models.MetricSleep:       "sleep.segment",
	models.MetricActivity:    "activity.segment",
	models.MetricHeartPoints: "heart_minutes",
}

// Client talks to the platform's REST API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// samplePoint is one reading in a dataset response. Points are decoded
// individually so one malformed value does not sink the window.
type samplePoint struct {
	Timestamp int64    `json:"timestamp"`
	Value     *float64 `json:"value"`
}

type samplesResponse struct {
	Points []json.RawMessage `json:"points"`
}

type bucketsResponse struct {
	Buckets []provider.Bucket `json:"buckets"`
}

type segmentsResponse struct {
	Segments []provider.Segment `json:"segments"`
}

type aggregateResponse struct {
	Total float64 `json:"total"`
}

// FetchSamples returns raw point readings, skipping points that fail to
// decode rather than failing the whole window.
func (c *Client) FetchSamples(ctx context.Context, kind models.MetricKind, start, end int64) ([]provider.Sample, error) {
	var resp samplesResponse
	if err := c.get(ctx, "samples", kind, start, end, nil, &resp); err != nil {
		return nil, err
	}

	samples := make([]provider.Sample, 0, len(resp.Points))
	for _, raw := range resp.Points {
		var p samplePoint
		if err := json.Unmarshal(raw, &p); err != nil || p.Value == nil {
			c.logger.Warn("skipping undecodable sample point", "metric", kind)
			continue
		}
		samples = append(samples, provider.Sample{Timestamp: p.Timestamp, Value: *p.Value})
	}
	return samples, nil
}

// FetchAggregate returns the window total.
func (c *Client) FetchAggregate(ctx context.Context, kind models.MetricKind, start, end int64) (float64, error) {
	var resp aggregateResponse
	if err := c.get(ctx, "aggregate", kind, start, end, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// FetchBucketed returns window totals split into fixed-width buckets.
func (c *Client) FetchBucketed(ctx context.Context, kind models.MetricKind, start, end int64, bucket time.Duration) ([]provider.Bucket, error) {
	extra := url.Values{"bucket_ms": {strconv.FormatInt(bucket.Milliseconds(), 10)}}
	var resp bucketsResponse
	if err := c.get(ctx, "buckets", kind, start, end, extra, &resp); err != nil {
		return nil, err
	}
	return resp.Buckets, nil
}

// FetchSegments returns labelled spans for sleep and activity kinds.
func (c *Client) FetchSegments(ctx context.Context, kind models.MetricKind, start, end int64) ([]provider.Segment, error) {
	var resp segmentsResponse
	if err := c.get(ctx, "segments", kind, start, end, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Segments, nil
}

// get issues an authenticated GET against /v1/data/{type}/{shape} and
// decodes the JSON response into out.
func (c *Client) get(ctx context.Context, shape string, kind models.MetricKind, start, end int64, extra url.Values, out any) error {
	path, ok := metricPaths[kind]
	if !ok {
		return fmt.Errorf("no data type for metric %s", kind)
	}

	q := url.Values{
		"start": {strconv.FormatInt(start, 10)},
		"end":   {strconv.FormatInt(end, 10)},
	}
	for k, vs := range extra {
		q[k] = vs
	}

	reqURL := fmt.Sprintf("%s/v1/data/%s/%s?%s", c.baseURL, path, shape, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s %s: %w", kind, shape, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return provider.ErrNotAuthenticated
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s request failed (status %d): %s", kind, shape, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", kind, shape, err)
	}
	return nil
}
