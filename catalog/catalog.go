package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zebehn/docscalpel/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	pages INTEGER NOT NULL,
	element_count INTEGER NOT NULL,
	gap_count INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	warnings TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS elements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	element_id TEXT NOT NULL,
	type TEXT NOT NULL,
	sequence INTEGER NOT NULL,
	page INTEGER NOT NULL,
	x REAL NOT NULL,
	y REAL NOT NULL,
	width REAL NOT NULL,
	height REAL NOT NULL,
	confidence REAL NOT NULL,
	sources TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_elements_run ON elements(run_id);
`

// Run is one recorded consolidation run. ID and CreatedAt are assigned by
// the catalog on save; ElementCount is derived from the saved elements.
type Run struct {
	ID           int64
	Source       string
	Pages        int
	ElementCount int
	GapCount     int
	Elapsed      time.Duration
	Warnings     []string
	CreatedAt    time.Time
}

// Element is one catalogued element row. Geometry is page space; Sources
// holds the backing detection IDs.
type Element struct {
	RunID      int64
	ElementID  string
	Type       string
	Sequence   int
	Page       int
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Confidence float64
	Sources    []string
}

// Catalog wraps the SQLite database holding recorded runs.
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at the given path and
// ensures the schema exists. The parent directory is created if needed.
func Open(path string) (*Catalog, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("catalog: create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// SaveRun records a run and its elements in one transaction and returns the
// new run ID. run.ElementCount is overwritten with len(elements); the
// caller supplies GapCount since reserved slots are not stored as rows.
func (c *Catalog) SaveRun(ctx context.Context, run Run, elements []model.Element) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog: begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (source, pages, element_count, gap_count, elapsed_ms, warnings)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.Source, run.Pages, len(elements), run.GapCount, run.Elapsed.Milliseconds(), strings.Join(run.Warnings, "\n"))
	if err != nil {
		return 0, fmt.Errorf("catalog: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("catalog: run id: %w", err)
	}

	for _, e := range elements {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO elements (run_id, element_id, type, sequence, page, x, y, width, height, confidence, sources)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, e.ID, e.Type.String(), e.SequenceNumber, e.Page,
			e.BBox.X, e.BBox.Y, e.BBox.Width, e.BBox.Height,
			e.Confidence, strings.Join(e.SourceDetectionIDs, ","))
		if err != nil {
			return 0, fmt.Errorf("catalog: insert element %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("catalog: commit: %w", err)
	}
	return runID, nil
}

// Runs returns all recorded runs, newest first.
func (c *Catalog) Runs(ctx context.Context) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, source, pages, element_count, gap_count, elapsed_ms, warnings, created_at
		FROM runs ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var elapsedMS int64
		var warnings string
		if err := rows.Scan(&r.ID, &r.Source, &r.Pages, &r.ElementCount, &r.GapCount, &elapsedMS, &warnings, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan run: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if warnings != "" {
			r.Warnings = strings.Split(warnings, "\n")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate runs: %w", err)
	}
	return runs, nil
}

// Elements returns the catalogued elements of one run in the order they
// were saved, which is the consolidation output order.
func (c *Catalog) Elements(ctx context.Context, runID int64) ([]Element, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT run_id, element_id, type, sequence, page, x, y, width, height, confidence, sources
		FROM elements WHERE run_id = ? ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("catalog: query elements: %w", err)
	}
	defer rows.Close()

	var elements []Element
	for rows.Next() {
		var e Element
		var sources string
		if err := rows.Scan(&e.RunID, &e.ElementID, &e.Type, &e.Sequence, &e.Page,
			&e.X, &e.Y, &e.Width, &e.Height, &e.Confidence, &sources); err != nil {
			return nil, fmt.Errorf("catalog: scan element: %w", err)
		}
		if sources != "" {
			e.Sources = strings.Split(sources, ",")
		}
		elements = append(elements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate elements: %w", err)
	}
	return elements, nil
}
