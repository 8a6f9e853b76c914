package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/webspider/internal/config"
	"github.com/nao1215/webspider/internal/database"
	"github.com/nao1215/webspider/internal/model"
	"github.com/nao1215/webspider/internal/report"
	"github.com/spf13/cobra"
)

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List crawl history",
		Long: `Runs lists crawls stored in the local history database.

By default it shows the most recent runs with their final counters.
Pass a run ID with --id to print the full report for that run,
including every recorded resource.

Examples:
  # List recent runs
  webspider runs

  # Show the last 5 runs
  webspider runs --limit 5

  # Print the full report of one run
  webspider runs --id 5f0c9a2e-...

  # Print the full report as JSON
  webspider runs --id 5f0c9a2e-... --json`,
		RunE: runRunsCmd,
	}

	cmd.Flags().IntP("limit", "l", 20,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().String("id", "",
		"Show the full report for the run with this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output the run report as JSON (requires --id)")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	runID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// History is read-only here: a missing database means no crawl has
	// ever been recorded, not an error in this command.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("No crawl history found. Run 'webspider crawl' first.")
			return nil
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if runID != "" {
		return showRun(ctx, db, runID, jsonOutput)
	}

	return listRuns(ctx, db, limit)
}

// listRuns prints one line per stored run, newest first.
func listRuns(ctx context.Context, db *database.CrawlDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No crawl history found. Run 'webspider crawl' first.")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %-9s  %7s  %6s  %8s  %s\n",
		"RUN ID", "STARTED", "STATE", "FETCHED", "FAILED", "REJECTED", "SEED")
	for _, run := range runs {
		started := "-"
		if !run.StartedAt.IsZero() {
			started = run.StartedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-36s  %-19s  %-9s  %7d  %6d  %8d  %s\n",
			run.ID, started, run.State,
			run.Fetched, run.Failed, run.Rejected,
			truncateSeed(run.Seed, 60))
	}

	return nil
}

// showRun prints the full report for one stored run.
func showRun(ctx context.Context, db *database.CrawlDB, runID string, jsonOutput bool) error {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	resources, err := db.ListResources(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}

	crawlReport := report.NewCrawlReport(snapshotFromRecord(run), run.Seed, resources)
	crawlReport.FinishedAt = run.FinishedAt

	if jsonOutput {
		_, err := report.NewJSONWriter(os.Stdout, report.WithPrettyPrint()).Write(crawlReport)
		return err
	}

	// Stored runs always list their resources; that is what the user
	// asked for by naming a run ID.
	_, err = report.NewConsoleWriter(os.Stdout, report.WithVerbose(true)).Write(crawlReport)
	return err
}

// snapshotFromRecord rebuilds a run snapshot from its stored form.
func snapshotFromRecord(run *database.RunRecord) model.Snapshot {
	return model.Snapshot{
		ID:        run.ID,
		State:     run.State,
		StartedAt: run.StartedAt,
		Fetched:   run.Fetched,
		Failed:    run.Failed,
		Rejected:  run.Rejected,
		MaxDepth:  run.MaxDepth,
	}
}

// truncateSeed shortens long seed URLs for the table listing.
func truncateSeed(seed string, maxLen int) string {
	if len(seed) <= maxLen {
		return seed
	}
	return seed[:maxLen-3] + "..."
}
