// Package source queries an Overpass-compatible spatial service for raw POI
// and event elements and normalizes them into ingestion candidates.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ddanilov/poisk/internal/model"
	"github.com/ddanilov/poisk/internal/util"
)

// Client fetches candidates for one category inside a bounding box.
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	locale     string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *util.HostLimiter
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLocale sets the preferred name locale (default "ru").
func WithLocale(locale string) ClientOption {
	return func(c *Client) { c.locale = locale }
}

// WithRobots enables a robots.txt politeness check before each request.
func WithRobots(rc *util.RobotsChecker) ClientOption {
	return func(c *Client) { c.robots = rc }
}

// WithMaxBytes bounds the response size read from the service.
func WithMaxBytes(n int64) ClientOption {
	return func(c *Client) { c.maxBytes = n }
}

// WithLimiter paces requests through a shared per-host limiter.
func WithLimiter(l *util.HostLimiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithHTTPClient replaces the default client, e.g. for proxy support.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a candidate source against the given Overpass-compatible
// endpoint.
func NewClient(endpoint, userAgent string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		locale:     "ru",
		maxBytes:   20_000_000,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// element mirrors one entry of the Overpass response. Ways and relations
// carry a pre-computed centroid in Center; nodes carry Lat/Lon directly.
type element struct {
	Type   string  `json:"type"`
	ID     int64   `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []element `json:"elements"`
}

// Fetch substitutes the bounding box into the category's query template,
// runs the request and maps each raw element to a Candidate. Errors are
// transient by contract: the orchestrator treats them as zero candidates for
// the category and continues.
func (c *Client) Fetch(ctx context.Context, tpl model.CategoryTemplate, box model.BoundingBox) ([]model.Candidate, error) {
	bbox := fmt.Sprintf("%f,%f,%f,%f", box.South, box.West, box.North, box.East)
	query := strings.ReplaceAll(tpl.Query, bboxPlaceholder, bbox)

	if c.robots != nil {
		if allowed, _, _ := c.robots.CanFetch(ctx, c.endpoint); !allowed {
			return nil, fmt.Errorf("source: robots.txt disallows %s", c.endpoint)
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
			return nil, fmt.Errorf("source: rate limit: %w", err)
		}
	}

	form := url.Values{}
	form.Set("data", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source query: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("source query: read body: %w", err)
	}

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("source query: parse response: %w", err)
	}

	candidates := make([]model.Candidate, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		candidates = append(candidates, c.toCandidate(el, tpl.Code))
	}
	return candidates, nil
}

// toCandidate maps a raw element to a Candidate. The name prefers the
// localized tag, falls back to the default-language tag and stays empty when
// neither exists; placeholders are never substituted.
func (c *Client) toCandidate(el element, category string) model.Candidate {
	cand := model.Candidate{
		ExternalID: fmt.Sprintf("%s/%d", el.Type, el.ID),
		Category:   category,
		Tags:       el.Tags,
	}

	if name := el.Tags["name:"+c.locale]; name != "" {
		cand.Name = name
	} else {
		cand.Name = el.Tags["name"]
	}

	switch {
	case el.Lat != 0 || el.Lon != 0:
		cand.Coords = &model.Coordinates{Lat: el.Lat, Lng: el.Lon}
	case el.Center != nil:
		cand.Coords = &model.Coordinates{Lat: el.Center.Lat, Lng: el.Center.Lon}
	}

	cand.Address = buildAddress(el.Tags)
	return cand
}

// buildAddress assembles a free-text address from structured fragments when
// present: street, house number, locality.
func buildAddress(tags map[string]string) string {
	var parts []string
	street := tags["addr:street"]
	if street != "" {
		if house := tags["addr:housenumber"]; house != "" {
			street += ", " + house
		}
		parts = append(parts, street)
	}
	if city := tags["addr:city"]; city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}
