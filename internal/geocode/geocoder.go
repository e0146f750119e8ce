// Package geocode resolves free-text addresses to coordinates through an
// external forward-geocoding service, paced to respect its rate limits.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/ddanilov/poisk/internal/model"
)

// ErrMissingCredential reports that no geocoding API key is configured.
// Non-fatal: callers degrade to unresolved coordinates.
var ErrMissingCredential = errors.New("geocode: no API key configured")

// DefaultDelay is the minimum spacing between geocoding calls.
const DefaultDelay = 500 * time.Millisecond

// Geocoder resolves addresses to coordinates. A fixed delay is applied
// before each call; any non-success response or network error is treated as
// "not found", never as a failure of the ingestion run.
type Geocoder struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// NewGeocoder creates a geocoder using the first non-empty key from the
// ordered credential list. The key may be empty; Resolve then reports
// ErrMissingCredential.
func NewGeocoder(endpoint, userAgent string, apiKeys []string, delay, timeout time.Duration) *Geocoder {
	if delay <= 0 {
		delay = DefaultDelay
	}

	var key string
	for _, k := range apiKeys {
		if k != "" {
			key = k
			break
		}
	}

	limiter := rate.NewLimiter(rate.Every(delay), 1)
	// Burn the initial token: the delay applies before the first call too.
	limiter.Allow()

	return &Geocoder{
		endpoint:   endpoint,
		apiKey:     key,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		limiter:    limiter,
	}
}

// geocodeResult mirrors the first candidate of the service response.
type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve returns coordinates for the address, or nil when the service has
// no answer. Only the first candidate result is considered.
func (g *Geocoder) Resolve(ctx context.Context, address string) (*model.Coordinates, error) {
	if address == "" {
		return nil, nil
	}
	if g.apiKey == "" {
		return nil, ErrMissingCredential
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocode pacing: %w", err)
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// Network trouble reads as "not found"; ingestion carries on.
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil
	}

	var results []geocodeResult
	if err := json.Unmarshal(body, &results); err != nil || len(results) == 0 {
		return nil, nil
	}

	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return nil, nil
	}

	return &model.Coordinates{Lat: lat, Lng: lng}, nil
}
