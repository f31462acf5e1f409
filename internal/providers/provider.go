package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bloomsight/bloom-engine/internal/models"
	"github.com/bloomsight/bloom-engine/internal/utils"
)

// Provider is a single upstream observation source. Each call either returns
// real values for the metrics it supports or an error; failures are handled
// by the fusion engine's priority chain, never by the provider itself.
type Provider interface {
	Name() string
	ResolutionM() float64
	Supports(metric models.Metric) bool
	Fetch(ctx context.Context, region models.BoundingBox, start, end time.Time) (map[models.Metric]float64, error)
}

// HTTPProvider queries a remote-sensing gateway over HTTP/JSON.
type HTTPProvider struct {
	name        string
	baseURL     string
	path        string
	resolutionM float64
	metrics     map[models.Metric]struct{}
	httpClient  *http.Client
}

// NewHTTPProvider constructs a provider client for one upstream product.
func NewHTTPProvider(name, baseURL, path string, resolutionM float64, timeout time.Duration, metrics ...models.Metric) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	supported := make(map[models.Metric]struct{}, len(metrics))
	for _, m := range metrics {
		supported[m] = struct{}{}
	}
	return &HTTPProvider{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		path:        path,
		resolutionM: resolutionM,
		metrics:     supported,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider's source attribution label.
func (p *HTTPProvider) Name() string { return p.name }

// ResolutionM returns the product's nominal ground resolution in metres.
func (p *HTTPProvider) ResolutionM() float64 { return p.resolutionM }

// Supports reports whether the upstream product publishes the metric.
func (p *HTTPProvider) Supports(metric models.Metric) bool {
	_, ok := p.metrics[metric]
	return ok
}

// Fetch requests region statistics for the window. Returns an error wrapping
// models.ErrProviderUnavailable on any transport or payload failure so the
// fusion engine can fall through to the next priority.
func (p *HTTPProvider) Fetch(ctx context.Context, region models.BoundingBox, start, end time.Time) (map[models.Metric]float64, error) {
	if p == nil || p.baseURL == "" {
		return nil, utils.NewAppError("provider.fetch", p.Name()+" not configured", models.ErrProviderUnavailable)
	}

	payload := map[string]interface{}{
		"bbox":  []float64{region.MinLon, region.MinLat, region.MaxLon, region.MaxLat},
		"start": start.Format(time.RFC3339),
		"end":   end.Format(time.RFC3339),
	}

	var response struct {
		Metrics map[string]float64 `json:"metrics"`
	}

	if err := p.postJSON(ctx, p.baseURL+p.path, payload, &response); err != nil {
		return nil, utils.NewAppError("provider.fetch", p.name,
			fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err))
	}

	values := make(map[models.Metric]float64, len(response.Metrics))
	for name, value := range response.Metrics {
		metric := models.Metric(name)
		if !p.Supports(metric) {
			continue
		}
		if metric.IsIndex() {
			value = models.ClampIndex(value)
		}
		values[metric] = value
	}
	if len(values) == 0 {
		return nil, utils.NewAppError("provider.fetch", p.name+" returned no samples", models.ErrProviderUnavailable)
	}
	return values, nil
}

func (p *HTTPProvider) postJSON(ctx context.Context, url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
