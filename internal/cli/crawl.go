package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ddanilov/poisk/internal/boundary"
	"github.com/ddanilov/poisk/internal/catalog"
	"github.com/ddanilov/poisk/internal/crawler"
	"github.com/ddanilov/poisk/internal/enrich"
	"github.com/ddanilov/poisk/internal/geocode"
	"github.com/ddanilov/poisk/internal/identity"
	"github.com/ddanilov/poisk/internal/model"
	"github.com/ddanilov/poisk/internal/quality"
	"github.com/ddanilov/poisk/internal/source"
	"github.com/ddanilov/poisk/internal/util"
)

var (
	regionsArg    string
	dbPath        string
	stateDir      string
	categoriesArg string
	categoryDelay time.Duration
	recordDelay   time.Duration
	dryRun        bool
	enrichEnabled bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Ingest POIs and events for the given regions",
	Long: `Crawl walks every region through the full category list: resolve the
region boundary, query the spatial source per category, filter low-quality
titles, drop already-seen identities, geocode candidates without
coordinates, and insert the survivors into the catalog.

Regions come from --regions as a comma-separated list, or from a file
(one region per line) with --regions-file.

Example:
  poisk crawl --regions "Тверская область,Калужская область"
  poisk crawl --regions-file regions.txt --db poisk.db --dry-run`,
	RunE: runCrawl,
}

var regionsFile string

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVar(&regionsArg, "regions", "", "comma-separated region names")
	crawlCmd.Flags().StringVar(&regionsFile, "regions-file", "", "file with one region name per line")
	crawlCmd.Flags().StringVar(&dbPath, "db", "", "catalog database path (default poisk.db)")
	crawlCmd.Flags().StringVar(&stateDir, "state-dir", "", "directory for resumable state (default ~/.poisk/state)")
	crawlCmd.Flags().StringVar(&categoriesArg, "categories", "", "category templates YAML (default: built-in set)")
	crawlCmd.Flags().DurationVar(&categoryDelay, "category-delay", 0, "pause between categories (default 2s)")
	crawlCmd.Flags().DurationVar(&recordDelay, "record-delay", 0, "pause between records (default 1s, floored at half the category delay)")
	crawlCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the full pipeline without persisting catalog, identity or progress state")
	crawlCmd.Flags().BoolVar(&enrichEnabled, "enrich", false, "draft descriptions with an LLM (needs OPENAI_API_KEY)")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	regions, err := collectRegions()
	if err != nil {
		return err
	}
	if len(regions) == 0 {
		return fmt.Errorf("no regions given: use --regions or --regions-file")
	}

	cfg := loadConfig()
	if dbPath != "" {
		cfg.Catalog.Path = dbPath
	}
	if stateDir != "" {
		cfg.Crawl.StateDir = stateDir
	}
	if categoriesArg != "" {
		cfg.Source.Categories = categoriesArg
	}
	if categoryDelay > 0 {
		cfg.Crawl.CategoryDelay = categoryDelay
	}
	if recordDelay > 0 {
		cfg.Crawl.RecordDelay = recordDelay
	}
	cfg.Crawl.DryRun = dryRun

	categories, err := source.LoadCategories(cfg.Source.Categories)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	store, err := catalog.OpenSQLite(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	// A dry run must leave the durable seen set untouched.
	var identStore identity.Store = identity.NewFileStore(filepath.Join(cfg.Crawl.StateDir, "seen.json"))
	if cfg.Crawl.DryRun {
		identStore = identity.NewMemoryStore()
	}
	identities, err := identity.NewResolver(identStore)
	if err != nil {
		return fmt.Errorf("load identities: %w", err)
	}

	var robots *util.RobotsChecker
	if cfg.HTTP.CheckRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.Boundary.Timeout)
	}
	// Nominatim's usage policy asks for at most one request per second.
	limiter := util.NewHostLimiter(1, 1)

	boundaries := boundary.NewResolver(cfg.Boundary.Endpoint, cfg.HTTP.UserAgent,
		cfg.Boundary.CacheDir, cfg.Boundary.Timeout,
		boundary.WithRobots(robots), boundary.WithLimiter(limiter),
		boundary.WithHTTPClient(util.NewHTTPClient(cfg.Boundary.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy)))
	src := source.NewClient(cfg.Source.Endpoint, cfg.HTTP.UserAgent, cfg.Source.Timeout,
		source.WithRobots(robots), source.WithMaxBytes(cfg.HTTP.MaxBodyBytes),
		source.WithLimiter(limiter),
		source.WithHTTPClient(util.NewHTTPClient(cfg.Source.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy)))
	geocoder := geocode.NewGeocoder(cfg.Geocode.Endpoint, cfg.HTTP.UserAgent,
		cfg.Geocode.APIKeys, cfg.Geocode.Delay, cfg.Geocode.Timeout)

	var describer crawler.Describer
	if enrichEnabled || cfg.Enrich.Enabled {
		d, err := enrich.NewDescriber(cfg.Enrich.APIKey, cfg.Enrich.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: enrichment disabled: %v\n", err)
		} else {
			describer = d
		}
	}

	opts := crawler.Options{
		Boundaries:    boundaries,
		Source:        src,
		Gate:          quality.NewGate(append(quality.DefaultDenylist(), cfg.Quality.ExtraDenylist...)),
		Identities:    identities,
		Geocoder:      geocoder,
		Store:         store,
		Progress:      crawler.NewProgressStore(cfg.Crawl.StateDir),
		Describer:     describer,
		CategoryDelay: cfg.Crawl.CategoryDelay,
		RecordDelay:   cfg.Crawl.RecordDelay,
		DryRun:        cfg.Crawl.DryRun,
	}
	if verbose {
		opts.Log = os.Stderr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := crawler.New(opts).Run(ctx, regions, categories)
	if summary != nil {
		printSummary(summary)
	}
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	return nil
}

func collectRegions() ([]string, error) {
	var regions []string
	for _, r := range strings.Split(regionsArg, ",") {
		if r = strings.TrimSpace(r); r != "" {
			regions = append(regions, r)
		}
	}

	if regionsFile != "" {
		f, err := os.Open(regionsFile)
		if err != nil {
			return nil, fmt.Errorf("open regions file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
				regions = append(regions, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read regions file: %w", err)
		}
	}

	return regions, nil
}

func printSummary(s *crawler.Summary) {
	fmt.Printf("Regions processed: %d (skipped %d)\n", s.RegionsProcessed, s.RegionsSkipped)
	fmt.Printf("Candidates:        %d\n", s.Candidates)
	fmt.Printf("Inserted:          %d\n", s.Inserted)
	fmt.Printf("Quality rejected:  %d\n", s.QualityRejected)
	fmt.Printf("Already seen:      %d\n", s.AlreadySeen)
	fmt.Printf("Conflicts:         %d\n", s.Conflicts)
	fmt.Printf("Unlocatable:       %d\n", s.Unlocatable)
}

// loadConfig merges defaults, the config file and environment variables.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: config: %v\n", err)
	}

	// A geocoder key from the environment outranks configured ones.
	if key := os.Getenv("POISK_GEOCODER_KEY"); key != "" {
		cfg.Geocode.APIKeys = append([]string{key}, cfg.Geocode.APIKeys...)
	}
	// The enrichment key comes from the environment only, never the file.
	cfg.Enrich.APIKey = os.Getenv("OPENAI_API_KEY")
	return cfg
}
