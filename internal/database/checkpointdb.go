package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/qcrawl/internal/feature"
	"github.com/nao1215/qcrawl/internal/graph"
	"github.com/nao1215/qcrawl/internal/model"
	"github.com/nao1215/qcrawl/internal/qlearn"
)

// DBFileName is the checkpoint database file name inside the checkpoint
// directory.
const DBFileName = "qcrawl.db"

// CheckpointDB stores step-indexed crawl checkpoints in SQLite.
// Writes come only from the single crawl controller; reads may come from
// the inspect command while a crawl is running.
type CheckpointDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CheckpointDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent reads.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CheckpointDB in the given directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned; the inspect command uses that mode so a typo'd path fails
// instead of creating an empty database.
func Open(dbDir string, opts Options) (*CheckpointDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection strings: mode=rw prevents creating
	// new files, mode=rwc allows creation.
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

	// SQLite only supports one writer; keep the pool minimal.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CheckpointDB{
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
func (cdb *CheckpointDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CheckpointDB) createTables() error {
	schema := `
	-- Checkpoints store the full learned state keyed by step count
	CREATE TABLE IF NOT EXISTS checkpoints (
		step INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		q_state TEXT NOT NULL,
		link_params TEXT NOT NULL,
		page_params TEXT NOT NULL,
		hyperparams TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_checkpoints_run ON checkpoints(run_id);

	-- Crawl graph snapshots, one row per node/edge per checkpoint step
	CREATE TABLE IF NOT EXISTS graph_nodes (
		step INTEGER NOT NULL,
		node_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		domain TEXT NOT NULL,
		fetched INTEGER NOT NULL,
		reward REAL NOT NULL,
		fetch_step INTEGER NOT NULL,
		PRIMARY KEY (step, node_id)
	);

	CREATE TABLE IF NOT EXISTS graph_edges (
		step INTEGER NOT NULL,
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_graph_edges_step ON graph_edges(step);

	-- Final run summaries, one per crawl run
	CREATE TABLE IF NOT EXISTS run_summaries (
		run_id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		summary_json TEXT NOT NULL
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// CheckpointRecord is one stored checkpoint.
type CheckpointRecord struct {
	// Step is the value-function step count at checkpoint time.
	Step int

	// RunID identifies the crawl run that wrote this checkpoint.
	RunID string

	// CreatedAt is when the checkpoint was written.
	CreatedAt time.Time

	// QState is the value-function snapshot.
	QState *qlearn.Snapshot

	// LinkParams and PageParams are the vectorizer configurations the
	// weights were trained against.
	LinkParams feature.Params
	PageParams feature.Params

	// Hyperparams is the active hyperparameter manifest as JSON.
	Hyperparams json.RawMessage
}

// SaveCheckpoint inserts or replaces a checkpoint for its step.
// Re-running a restored crawl past the same step overwrites the stale row.
func (cdb *CheckpointDB) SaveCheckpoint(ctx context.Context, rec *CheckpointRecord) error {
	qState, err := json.Marshal(rec.QState)
	if err != nil {
		return fmt.Errorf("failed to serialize value-function state: %w", err)
	}
	linkParams, err := json.Marshal(rec.LinkParams)
	if err != nil {
		return fmt.Errorf("failed to serialize link vectorizer params: %w", err)
	}
	pageParams, err := json.Marshal(rec.PageParams)
	if err != nil {
		return fmt.Errorf("failed to serialize page vectorizer params: %w", err)
	}

	query := `
	INSERT INTO checkpoints (step, run_id, q_state, link_params, page_params, hyperparams)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(step) DO UPDATE SET
		run_id = excluded.run_id,
		q_state = excluded.q_state,
		link_params = excluded.link_params,
		page_params = excluded.page_params,
		hyperparams = excluded.hyperparams,
		created_at = CURRENT_TIMESTAMP
	`

	if _, err := cdb.db.ExecContext(ctx, query,
		rec.Step,
		rec.RunID,
		string(qState),
		string(linkParams),
		string(pageParams),
		string(rec.Hyperparams),
	); err != nil {
		return fmt.Errorf("failed to insert checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint retrieves the checkpoint at an exact step.
// Returns nil without error when no checkpoint exists for that step.
func (cdb *CheckpointDB) GetCheckpoint(ctx context.Context, step int) (*CheckpointRecord, error) {
	query := `
	SELECT step, run_id, created_at, q_state, link_params, page_params, hyperparams
	FROM checkpoints
	WHERE step = ?
	`
	return cdb.scanCheckpoint(cdb.db.QueryRowContext(ctx, query, step))
}

// LatestCheckpoint retrieves the checkpoint with the highest step.
// Returns nil without error when the database holds no checkpoints.
func (cdb *CheckpointDB) LatestCheckpoint(ctx context.Context) (*CheckpointRecord, error) {
	query := `
	SELECT step, run_id, created_at, q_state, link_params, page_params, hyperparams
	FROM checkpoints
	ORDER BY step DESC
	LIMIT 1
	`
	return cdb.scanCheckpoint(cdb.db.QueryRowContext(ctx, query))
}

// scanCheckpoint decodes one checkpoint row.
func (cdb *CheckpointDB) scanCheckpoint(row *sql.Row) (*CheckpointRecord, error) {
	var rec CheckpointRecord
	var createdAt, qState, linkParams, pageParams, hyperparams string

	err := row.Scan(&rec.Step, &rec.RunID, &createdAt, &qState, &linkParams, &pageParams, &hyperparams)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	rec.CreatedAt = parseTimestamp(createdAt)
	rec.Hyperparams = json.RawMessage(hyperparams)
	if err := json.Unmarshal([]byte(qState), &rec.QState); err != nil {
		return nil, fmt.Errorf("failed to decode value-function state: %w", err)
	}
	if err := json.Unmarshal([]byte(linkParams), &rec.LinkParams); err != nil {
		return nil, fmt.Errorf("failed to decode link vectorizer params: %w", err)
	}
	if err := json.Unmarshal([]byte(pageParams), &rec.PageParams); err != nil {
		return nil, fmt.Errorf("failed to decode page vectorizer params: %w", err)
	}
	return &rec, nil
}

// CheckpointMetadata is a checkpoint listing entry without the state blobs.
type CheckpointMetadata struct {
	Step      int
	RunID     string
	CreatedAt time.Time
}

// ListCheckpoints returns metadata for all checkpoints in ascending step order.
func (cdb *CheckpointDB) ListCheckpoints(ctx context.Context) ([]CheckpointMetadata, error) {
	query := `SELECT step, run_id, created_at FROM checkpoints ORDER BY step ASC`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []CheckpointMetadata
	for rows.Next() {
		var meta CheckpointMetadata
		var createdAt string
		if err := rows.Scan(&meta.Step, &meta.RunID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint metadata: %w", err)
		}
		meta.CreatedAt = parseTimestamp(createdAt)
		out = append(out, meta)
	}
	return out, rows.Err()
}

// SaveGraph stores a crawl-graph snapshot for a checkpoint step.
// An existing snapshot for the same step is replaced.
func (cdb *CheckpointDB) SaveGraph(ctx context.Context, step int, nodes []graph.Node, edges []graph.Edge) error {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin graph transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_nodes WHERE step = ?`, step); err != nil {
		return fmt.Errorf("failed to clear graph nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_edges WHERE step = ?`, step); err != nil {
		return fmt.Errorf("failed to clear graph edges: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO graph_nodes (step, node_id, url, domain, fetched, reward, fetch_step)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer nodeStmt.Close()

	for _, n := range nodes {
		fetched := 0
		if n.Fetched {
			fetched = 1
		}
		if _, err := nodeStmt.ExecContext(ctx, step, n.ID, n.URL, n.Domain, fetched, n.Reward, n.Step); err != nil {
			return fmt.Errorf("failed to insert graph node: %w", err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT INTO graph_edges (step, from_id, to_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, e := range edges {
		if _, err := edgeStmt.ExecContext(ctx, step, e.From, e.To); err != nil {
			return fmt.Errorf("failed to insert graph edge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit graph snapshot: %w", err)
	}
	return nil
}

// GetGraph retrieves the crawl-graph snapshot stored at a checkpoint step.
func (cdb *CheckpointDB) GetGraph(ctx context.Context, step int) ([]graph.Node, []graph.Edge, error) {
	nodeRows, err := cdb.db.QueryContext(ctx, `
	SELECT node_id, url, domain, fetched, reward, fetch_step
	FROM graph_nodes WHERE step = ? ORDER BY node_id ASC`, step)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query graph nodes: %w", err)
	}
	defer nodeRows.Close()

	var nodes []graph.Node
	for nodeRows.Next() {
		var n graph.Node
		var fetched int
		if err := nodeRows.Scan(&n.ID, &n.URL, &n.Domain, &fetched, &n.Reward, &n.Step); err != nil {
			return nil, nil, fmt.Errorf("failed to scan graph node: %w", err)
		}
		n.Fetched = fetched != 0
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	edgeRows, err := cdb.db.QueryContext(ctx, `
	SELECT from_id, to_id FROM graph_edges WHERE step = ?`, step)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query graph edges: %w", err)
	}
	defer edgeRows.Close()

	var edges []graph.Edge
	for edgeRows.Next() {
		var e graph.Edge
		if err := edgeRows.Scan(&e.From, &e.To); err != nil {
			return nil, nil, fmt.Errorf("failed to scan graph edge: %w", err)
		}
		edges = append(edges, e)
	}
	return nodes, edges, edgeRows.Err()
}

// SaveSummary stores or replaces the final summary for a crawl run.
func (cdb *CheckpointDB) SaveSummary(ctx context.Context, summary *model.CrawlSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize crawl summary: %w", err)
	}

	query := `
	INSERT INTO run_summaries (run_id, summary_json)
	VALUES (?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		summary_json = excluded.summary_json,
		created_at = CURRENT_TIMESTAMP
	`
	if _, err := cdb.db.ExecContext(ctx, query, summary.RunID, string(data)); err != nil {
		return fmt.Errorf("failed to insert crawl summary: %w", err)
	}
	return nil
}

// LatestSummary retrieves the most recently written run summary.
// Returns nil without error when no summary exists.
func (cdb *CheckpointDB) LatestSummary(ctx context.Context) (*model.CrawlSummary, error) {
	query := `SELECT summary_json FROM run_summaries ORDER BY created_at DESC LIMIT 1`

	var data string
	err := cdb.db.QueryRowContext(ctx, query).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl summary: %w", err)
	}

	var summary model.CrawlSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode crawl summary: %w", err)
	}
	return &summary, nil
}

// parseTimestamp parses SQLite timestamps, which vary by version and
// configuration. Unparsable values yield the zero time.
func parseTimestamp(s string) time.Time {
	formats := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05Z",
	}
	for _, format := range formats {
		if ts, err := time.Parse(format, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
