package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webspider/internal/model"
)

// CrawlDB provides SQLite-based storage for crawl runs and the
// resources they discovered.
//
// Design decision: We use a single database file for all runs rather
// than one file per run. This makes run history queries trivial and
// keeps backup/restore a single-file operation.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "webspider.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, os.ErrNotExist)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to refuse creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections mostly
	// produce SQLITE_BUSY under concurrent recorder traffic.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Runs store one row per crawl run with its final counters
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'running',
		started_at TEXT NOT NULL,
		finished_at TEXT,
		fetched INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		rejected INTEGER DEFAULT 0,
		max_depth INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Resources store one row per completed task, success or failure
	CREATE TABLE IF NOT EXISTS resources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT 'GET',
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		depth INTEGER,
		hash TEXT,
		fetched_at TEXT,
		failed INTEGER DEFAULT 0,
		error TEXT,
		UNIQUE(run_id, url, method)
	);

	CREATE INDEX IF NOT EXISTS idx_resources_run ON resources(run_id);
	CREATE INDEX IF NOT EXISTS idx_resources_url ON resources(url);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord represents a stored crawl run.
type RunRecord struct {
	// ID is the run identifier assigned by the controller.
	ID string

	// Seed is the first seed URL of the run.
	Seed string

	// State is the terminal state name, or "running" for an open run.
	State string

	// StartedAt is when the run started.
	StartedAt time.Time

	// FinishedAt is when the run reached a terminal state.
	// Zero for runs that are still open (or crashed).
	FinishedAt time.Time

	// Fetched, Failed, and Rejected mirror the run counters.
	Fetched  int
	Failed   int
	Rejected int

	// MaxDepth is the depth limit the run was configured with.
	MaxDepth int
}

// SaveRun inserts a new run row when a crawl starts.
func (cdb *CrawlDB) SaveRun(ctx context.Context, runID, seed string, startedAt time.Time, maxDepth int) error {
	query := `
	INSERT INTO runs (id, seed, started_at, max_depth)
	VALUES (?, ?, ?, ?)
	`

	_, err := cdb.db.ExecContext(ctx, query, runID, seed, formatTimestamp(startedAt), maxDepth)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// FinishRun records the terminal state and final counters of a run.
func (cdb *CrawlDB) FinishRun(ctx context.Context, snap model.Snapshot) error {
	query := `
	UPDATE runs
	SET state = ?, finished_at = ?, fetched = ?, failed = ?, rejected = ?
	WHERE id = ?
	`

	_, err := cdb.db.ExecContext(ctx, query,
		snap.State,
		formatTimestamp(time.Now()),
		snap.Fetched,
		snap.Failed,
		snap.Rejected,
		snap.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil when the run is unknown.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `
	SELECT id, seed, state, started_at, finished_at, fetched, failed, rejected, max_depth
	FROM runs
	WHERE id = ?
	`

	rec, err := scanRun(cdb.db.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns runs ordered from newest to oldest.
// A limit of zero or less returns every run.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, seed, state, started_at, finished_at, fetched, failed, rejected, max_depth
	FROM runs
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Best-effort close on read path

	var results []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, *rec)
	}

	return results, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRun.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun reads one run row.
func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var startedAt string
	var finishedAt sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.Seed,
		&rec.State,
		&startedAt,
		&finishedAt,
		&rec.Fetched,
		&rec.Failed,
		&rec.Rejected,
		&rec.MaxDepth,
	)
	if err != nil {
		return nil, err
	}

	rec.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		rec.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &rec, nil
}

// InsertResource inserts or updates one resource record.
// The upsert handles a re-crawl of the same URL in a later run of the
// same run ID gracefully, though in practice run IDs are unique.
func (cdb *CrawlDB) InsertResource(ctx context.Context, runID string, res *model.Resource) (int64, error) {
	query := `
	INSERT INTO resources (run_id, url, method, status_code, content_type, title, depth, hash, fetched_at, failed, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url, method) DO UPDATE SET
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		depth = excluded.depth,
		hash = excluded.hash,
		fetched_at = excluded.fetched_at,
		failed = excluded.failed,
		error = excluded.error
	`

	result, err := cdb.db.ExecContext(ctx, query,
		runID,
		res.URL,
		res.Method,
		res.StatusCode,
		res.ContentType,
		res.Title,
		res.Depth,
		res.Hash,
		formatTimestamp(res.FetchedAt),
		boolToInt(res.Failed),
		res.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert resource: %w", err)
	}

	return result.LastInsertId()
}

// ListResources returns every resource of a run ordered by depth, then
// URL. This is the natural order for site-map style output.
func (cdb *CrawlDB) ListResources(ctx context.Context, runID string) ([]*model.Resource, error) {
	query := `
	SELECT url, method, status_code, content_type, title, depth, hash, fetched_at, failed, error
	FROM resources
	WHERE run_id = ?
	ORDER BY depth, url
	`

	rows, err := cdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Best-effort close on read path

	var results []*model.Resource
	for rows.Next() {
		var res model.Resource
		var fetchedAt sql.NullString
		var failed int

		err := rows.Scan(
			&res.URL,
			&res.Method,
			&res.StatusCode,
			&res.ContentType,
			&res.Title,
			&res.Depth,
			&res.Hash,
			&fetchedAt,
			&failed,
			&res.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}

		if fetchedAt.Valid {
			res.FetchedAt = parseTimestamp(fetchedAt.String)
		}
		res.Failed = failed != 0
		results = append(results, &res)
	}

	return results, rows.Err()
}

// CountResources returns the number of resources stored for a run.
func (cdb *CrawlDB) CountResources(ctx context.Context, runID string) (int, error) {
	var count int
	err := cdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resources WHERE run_id = ?", runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatTimestamp stores times as UTC RFC3339 strings.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
