package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddanilov/poisk/internal/catalog"
	"github.com/ddanilov/poisk/internal/crawler"
)

var (
	statsDB       string
	statsStateDir string
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog and ingestion statistics",
	Long: `Stats prints the number of active catalog records, cumulative ingestion
counters and the per-region completion state from the resumable progress
document.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsDB, "db", "", "catalog database path (default poisk.db)")
	statsCmd.Flags().StringVar(&statsStateDir, "state-dir", "", "directory with resumable state (default ~/.poisk/state)")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if statsDB != "" {
		cfg.Catalog.Path = statsDB
	}
	if statsStateDir != "" {
		cfg.Crawl.StateDir = statsStateDir
	}

	store, err := catalog.OpenSQLite(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	n, err := store.CountAll(context.Background())
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}

	progress, err := crawler.NewProgressStore(cfg.Crawl.StateDir).Load()
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}

	fmt.Printf("Catalog records:   %d\n", n)
	fmt.Printf("Records ingested:  %d\n", progress.RecordsIngested)
	fmt.Printf("Regions completed: %d\n", progress.RegionsCompleted)

	if regions := progress.Regions(); len(regions) > 0 {
		fmt.Println("\nRegions:")
		for _, r := range regions {
			fmt.Printf("  %-30s %s\n", r.Name, r.Status)
		}
	}
	return nil
}
