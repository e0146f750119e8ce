package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ddanilov/poisk/internal/catalog"
	"github.com/ddanilov/poisk/internal/dedup"
	"github.com/ddanilov/poisk/internal/model"
)

var (
	checkLat      float64
	checkLng      float64
	checkTitle    string
	checkCategory string
	checkExclude  int64
	checkDB       string
	checkRadius   float64
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a proposed point against the catalog for duplicates",
	Long: `Check runs the duplicate detector for a proposed title and location
and prints the full report as JSON: risk level, per-match classification,
recommended action and up to three existing alternatives.

The command exits non-zero when creation would be blocked, so it can gate
scripted imports:

  poisk check --lat 55.7539 --lng 37.6208 --title "Музей Воды" --category museum`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Float64Var(&checkLat, "lat", 0, "latitude of the proposed point")
	checkCmd.Flags().Float64Var(&checkLng, "lng", 0, "longitude of the proposed point")
	checkCmd.Flags().StringVar(&checkTitle, "title", "", "proposed title")
	checkCmd.Flags().StringVar(&checkCategory, "category", "", "proposed category code")
	checkCmd.Flags().Int64Var(&checkExclude, "exclude", 0, "record ID to ignore (edit flows)")
	checkCmd.Flags().StringVar(&checkDB, "db", "", "catalog database path (default poisk.db)")
	checkCmd.Flags().Float64Var(&checkRadius, "radius", 0, "search radius in meters (default 100)")

	_ = checkCmd.MarkFlagRequired("lat")
	_ = checkCmd.MarkFlagRequired("lng")
	_ = checkCmd.MarkFlagRequired("title")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if checkDB != "" {
		cfg.Catalog.Path = checkDB
	}
	if checkRadius > 0 {
		cfg.Dedup.RadiusM = checkRadius
	}

	store, err := catalog.OpenSQLite(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	svc := dedup.NewService(store, cfg.Dedup.RadiusM)
	report, err := svc.Check(cmd.Context(), checkLat, checkLng, checkTitle, checkCategory, checkExclude)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if report.Action == model.ActionBlock {
		return fmt.Errorf("creation blocked: %s", report.Message)
	}
	return nil
}
