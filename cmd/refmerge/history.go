package main

import (
	"context"
	"fmt"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/storage"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded merge runs",
	Long: `List recorded merge runs, newest first.

Runs are recorded only when history_db is configured: a SQLite file, or a
JSONL file when the path ends in .jsonl. Only counts are kept; file contents
are never stored.

Examples:
  refmerge history
  refmerge history --limit 5 --human`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

// HistoryResult is the JSON response for refmerge history.
type HistoryResult struct {
	Runs  []storage.Run `json:"runs"`
	Total int           `json:"total"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenHistory(cfg)

	result, err := listHistory(cmd.Context(), db, historyLimit)
	db.Close()
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		printHistoryHuman(result)
		return nil
	}
	return outputJSON(result)
}

// listHistory reads up to limit runs (all when limit is 0) and the total count.
func listHistory(ctx context.Context, db storage.Store, limit int) (HistoryResult, error) {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("listing runs: %w", err)
	}
	total, err := db.Count(ctx)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("counting runs: %w", err)
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	return HistoryResult{Runs: runs, Total: total}, nil
}

func printHistoryHuman(result HistoryResult) {
	if len(result.Runs) == 0 {
		fmt.Println("No merge runs recorded.")
		return
	}
	for _, r := range result.Runs {
		outputHuman("%s  %-8s %-10s files=%d ris=%d enw=%d dupes=%d skipped=%d failed=%d\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Source, r.Mode,
			r.Files, r.RISUnique, r.ENWUnique, r.Duplicates, r.Skipped, r.Failed)
	}
	if result.Total > len(result.Runs) {
		outputHuman("(%d of %d runs shown)\n", len(result.Runs), result.Total)
	}
}

// mustOpenHistory opens the configured history store, exits on error.
func mustOpenHistory(cfg *config.Config) storage.Store {
	if cfg.HistoryDB == "" {
		exitWithError(ExitConfigError, "history_db not configured (set it in %s or REFMERGE_HISTORY_DB)", config.Path())
	}
	hist, err := storage.Open(cfg.HistoryDB)
	if err != nil {
		exitWithError(ExitConfigError, "opening history: %v", err)
	}
	return hist
}
