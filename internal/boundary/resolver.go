// Package boundary resolves free-text region names to geographic bounding
// boxes via a Nominatim-compatible place search, caching results
// indefinitely: administrative boundaries are treated as immutable.
package boundary

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

	"github.com/ddanilov/poisk/internal/cache"
	"github.com/ddanilov/poisk/internal/model"
	"github.com/ddanilov/poisk/internal/util"
)

// ErrBoundaryNotFound reports that the place search returned no result for
// the region name. Callers skip the region and continue the run.
var ErrBoundaryNotFound = errors.New("boundary: region not found")

// Resolver resolves region names to bounding boxes.
type Resolver struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	cache      cache.Cache
	robots     *util.RobotsChecker
	limiter    *util.HostLimiter
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithCache replaces the default layered cache.
func WithCache(c cache.Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithRobots enables a robots.txt politeness check before each request.
func WithRobots(rc *util.RobotsChecker) Option {
	return func(r *Resolver) { r.robots = rc }
}

// WithLimiter paces requests through a shared per-host limiter.
func WithLimiter(l *util.HostLimiter) Option {
	return func(r *Resolver) { r.limiter = l }
}

// WithHTTPClient replaces the default client, e.g. for proxy support.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.httpClient = c }
}

// NewResolver creates a resolver against the given Nominatim-compatible
// search endpoint.
func NewResolver(endpoint, userAgent, cacheDir string, timeout time.Duration, opts ...Option) *Resolver {
	r := &Resolver{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		cache:      cache.NewLayeredCache(cache.Forever, cacheDir, cache.Forever),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// searchResult mirrors the relevant parts of the Nominatim search payload.
// The boundingbox array is [minlat, maxlat, minlon, maxlon], as strings.
type searchResult struct {
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
}

// Resolve returns the bounding box for a region name, normalized to
// (south, west, north, east). The first search result wins.
func (r *Resolver) Resolve(ctx context.Context, regionName string) (*model.BoundingBox, error) {
	key := cache.Key("boundary", regionName)
	if data, found := r.cache.Get(key); found {
		var box model.BoundingBox
		if err := json.Unmarshal(data, &box); err == nil {
			return &box, nil
		}
	}

	box, err := r.fetch(ctx, regionName)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(box); err == nil {
		_ = r.cache.Set(key, data, cache.Forever)
	}
	return box, nil
}

func (r *Resolver) fetch(ctx context.Context, regionName string) (*model.BoundingBox, error) {
	q := url.Values{}
	q.Set("q", regionName)
	q.Set("format", "json")
	q.Set("limit", "1")
	reqURL := r.endpoint + "?" + q.Encode()

	if r.robots != nil {
		if allowed, _, _ := r.robots.CanFetch(ctx, reqURL); !allowed {
			return nil, fmt.Errorf("boundary: robots.txt disallows %s", r.endpoint)
		}
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, reqURL); err != nil {
			return nil, fmt.Errorf("boundary: rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("boundary search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("boundary search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("boundary search: read body: %w", err)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("boundary search: parse response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrBoundaryNotFound, regionName)
	}

	return normalizeBox(results[0].BoundingBox)
}

func normalizeBox(raw []string) (*model.BoundingBox, error) {
	if len(raw) != 4 {
		return nil, fmt.Errorf("boundary search: malformed bounding box %v", raw)
	}

	vals := make([]float64, 4)
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("boundary search: parse bounding box %q: %w", s, err)
		}
		vals[i] = v
	}

	// Upstream order is [minlat, maxlat, minlon, maxlon].
	return &model.BoundingBox{
		South: vals[0],
		North: vals[1],
		West:  vals[2],
		East:  vals[3],
	}, nil
}
