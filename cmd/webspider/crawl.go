package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/webspider/internal/config"
	"github.com/nao1215/webspider/internal/database"
	"github.com/nao1215/webspider/internal/log"
	"github.com/nao1215/webspider/internal/model"
	"github.com/nao1215/webspider/internal/report"
	"github.com/nao1215/webspider/internal/spider"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl one or more sites and report the discovered structure",
		Long: `Crawl starts from the given seed URLs and follows links breadth-first.

Only URLs on the seed hosts are followed; everything else is rejected as
out of scope. The crawl is bounded by depth, per-page child limits, and
a total page budget, so it always terminates.

Press Ctrl-C once to stop gracefully (in-flight fetches complete, queued
work is discarded). Press it again to abort immediately.

Examples:
  # Crawl a site with default limits
  webspider crawl https://app.example.com/

  # Limit depth and total pages
  webspider crawl -d 3 -p 200 https://app.example.com/

  # Output JSON report to a file
  webspider crawl --json -o report.json https://app.example.com/

  # Use a custom scope file
  webspider crawl -c myscope.yaml https://app.example.com/

Scope file (.webspider) example:
  targets:
    app.example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 10
      exclude:
        - "/logout*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl recursion depth (seed is depth 0)")
	cmd.Flags().Int("max-children", config.DefaultMaxChildren,
		"Maximum accepted children per page")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch per run")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of concurrent crawl workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each fetch")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Minimum interval between requests across all workers")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Scope file
	cmd.Flags().StringP("config", "c", "",
		"Scope file path (default: .webspider in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the crawl history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return runCrawl(ctx, cancel, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxChildren, err = cmd.Flags().GetInt("max-children")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.ScopeFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-host scope rules from the scope file.
	// If user explicitly specified a scope file path, error if not found.
	// If no path specified, silently use default scope if no file found.
	explicitScopePath := cfg.ScopeFilePath != ""
	scopePath := config.FindScopeFile(cfg.ScopeFilePath)

	if scopePath != "" {
		cfg.Scope, err = config.LoadScopeFile(scopePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load scope file %s: %w", scopePath, err)
		}
	} else if explicitScopePath {
		// User explicitly specified a scope file that doesn't exist
		return nil, fmt.Errorf("scope file not found: %s", cfg.ScopeFilePath)
	} else {
		// Use default scope if no file found and user didn't explicitly specify one
		cfg.Scope = &config.File{
			Targets: make(map[string]config.TargetConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}

	// Save to database using XDG data directory unless opted out
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	// Get positional arguments (seed URLs)
	cfg.Seeds = args

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Sensitive attribute values (cookies, auth headers) are masked before
// they reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"maxDepth", cfg.MaxDepth,
		"maxPages", cfg.MaxPages,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// The in-memory recorder feeds the end-of-run report; the database
	// recorder persists the same events for the runs subcommand.
	collector := newMemoryRecorder()
	recorders := multiRecorder{collector}
	if db != nil {
		recorders = append(recorders, database.NewRecorder(db))
	}

	ctrl := spider.NewController(cfg,
		spider.WithLogger(logger),
		spider.WithRecorder(recorders),
	)

	fmt.Printf("Crawling %s...\n", strings.Join(cfg.Seeds, ", "))
	startTime := time.Now()

	runID, err := ctrl.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start crawl: %w", err)
	}

	if db != nil {
		if err := db.SaveRun(ctx, runID, cfg.Seeds[0], startTime, cfg.MaxDepth); err != nil {
			logger.Warn("failed to record run start", "error", err)
		}
	}

	// First signal stops the crawl gracefully (in-flight fetches finish,
	// queued work is discarded). A second signal aborts outright.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping crawl...")
		fmt.Fprintln(os.Stderr, "\nStopping... press Ctrl-C again to abort")
		if err := ctrl.Stop(); err != nil {
			cancel()
			return
		}
		<-sigCh
		logger.Info("received second signal, aborting")
		cancel()
	}()

	waitErr := ctrl.Wait(ctx)

	snap := ctrl.Status()
	elapsed := time.Since(startTime)
	fmt.Printf("Crawl %s in %s\n", snap.State, elapsed.Round(time.Millisecond))

	// Record the terminal state even when the run was aborted, so the
	// history never shows a run as still running.
	if db != nil {
		if err := db.FinishRun(context.Background(), snap); err != nil {
			logger.Warn("failed to record run result", "error", err)
		}
	}

	if waitErr != nil {
		return fmt.Errorf("crawl aborted: %w", waitErr)
	}

	crawlReport := report.NewCrawlReport(snap, cfg.Seeds[0], collector.Resources())
	return outputReport(cfg, crawlReport)
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *report.CrawlReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600)
		// Reports may contain session-bound URLs that should only be
		// readable by the owner
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full report with every resource)
	if cfg.JSONReport {
		_, err := report.NewJSONWriter(output, report.WithPrettyPrint()).Write(crawlReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		_, err := report.NewMarkdownWriter(output).Write(crawlReport)
		return err
	}

	// Human-readable report (default)
	_, err := report.NewConsoleWriter(output, report.WithVerbose(cfg.Verbose)).Write(crawlReport)
	return err
}

// memoryRecorder collects crawl resources in memory for the
// end-of-run report.
type memoryRecorder struct {
	mu        sync.Mutex
	resources []*model.Resource
}

// newMemoryRecorder creates an empty memoryRecorder.
func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{}
}

// Record stores the resource. It never fails.
func (r *memoryRecorder) Record(_ context.Context, _ string, res *model.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources = append(r.resources, res)
	return nil
}

// Resources returns the collected resources ordered by depth then URL,
// matching the ordering the database uses for stored runs.
func (r *memoryRecorder) Resources() []*model.Resource {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Resource, len(r.resources))
	copy(out, r.resources)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// multiRecorder fans each crawl event out to every recorder.
// Errors from one recorder do not stop the others.
type multiRecorder []spider.Recorder

// Record delivers the resource to every recorder and returns the first
// error encountered.
func (m multiRecorder) Record(ctx context.Context, runID string, res *model.Resource) error {
	var firstErr error
	for _, rec := range m {
		if err := rec.Record(ctx, runID, res); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
