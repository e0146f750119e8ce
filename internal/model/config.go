package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the complete engine configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Crawl    CrawlConfig    `yaml:"crawl" mapstructure:"crawl"`
	Dedup    DedupConfig    `yaml:"dedup" mapstructure:"dedup"`
	Quality  QualityConfig  `yaml:"quality" mapstructure:"quality"`
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls outbound HTTP behavior shared by all external clients.
type HTTPConfig struct {
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	CheckRobots  bool          `yaml:"check_robots" mapstructure:"check_robots"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// BoundaryConfig controls region boundary resolution.
type BoundaryConfig struct {
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CacheDir string        `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// SourceConfig controls the spatial candidate source.
type SourceConfig struct {
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Categories string        `yaml:"categories" mapstructure:"categories"` // path to categories.yaml, empty = built-in set
}

// GeocodeConfig controls forward geocoding for candidates without coordinates.
type GeocodeConfig struct {
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Delay    time.Duration `yaml:"delay" mapstructure:"delay"`
	APIKeys  []string      `yaml:"api_keys,omitempty" mapstructure:"api_keys"`
}

// CrawlConfig controls ingestion pacing and resumable state.
type CrawlConfig struct {
	StateDir      string        `yaml:"state_dir" mapstructure:"state_dir"`
	CategoryDelay time.Duration `yaml:"category_delay" mapstructure:"category_delay"`
	RecordDelay   time.Duration `yaml:"record_delay" mapstructure:"record_delay"`
	DryRun        bool          `yaml:"dry_run" mapstructure:"dry_run"`
}

// DedupConfig controls duplicate detection.
type DedupConfig struct {
	RadiusM float64 `yaml:"radius_m" mapstructure:"radius_m"`
}

// QualityConfig extends the built-in title denylist.
type QualityConfig struct {
	ExtraDenylist []string `yaml:"extra_denylist,omitempty" mapstructure:"extra_denylist"`
}

// CatalogConfig locates the catalog database.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// EnrichConfig controls the optional LLM description enricher.
type EnrichConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Model   string `yaml:"model" mapstructure:"model"`
	APIKey  string `yaml:"-" mapstructure:"-"` // from OPENAI_API_KEY, never persisted
}

// OutputConfig controls CLI output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults. Values mirror the pacing and
// timeouts the public geodata services tolerate.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			UserAgent:    "poisk/0.3 (+https://github.com/ddanilov/poisk)",
			Timeout:      30 * time.Second,
			CheckRobots:  true,
			MaxBodyBytes: 20_000_000,
		},
		Boundary: BoundaryConfig{
			Endpoint: "https://nominatim.openstreetmap.org/search",
			Timeout:  10 * time.Second,
			CacheDir: defaultStateDir("boundary-cache"),
		},
		Source: SourceConfig{
			Endpoint: "https://overpass-api.de/api/interpreter",
			Timeout:  30 * time.Second,
		},
		Geocode: GeocodeConfig{
			Endpoint: "https://nominatim.openstreetmap.org/search",
			Timeout:  10 * time.Second,
			Delay:    500 * time.Millisecond,
		},
		Crawl: CrawlConfig{
			StateDir:      defaultStateDir("state"),
			CategoryDelay: 2 * time.Second,
			RecordDelay:   time.Second,
		},
		Dedup: DedupConfig{
			RadiusM: 100,
		},
		Catalog: CatalogConfig{
			Path: "poisk.db",
		},
		Enrich: EnrichConfig{
			Model: "gpt-4o-mini",
		},
	}
}

func defaultStateDir(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".poisk", sub)
	}
	return filepath.Join(home, ".poisk", sub)
}
