// Package store keeps a queryable SQLite copy of generated reports.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"filereport/internal/report"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	ext         TEXT NOT NULL,
	root        TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	row_count   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS files (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	acron            TEXT NOT NULL,
	path             TEXT NOT NULL,
	vol_num          TEXT NOT NULL,
	file_name        TEXT NOT NULL,
	file_date        TEXT NOT NULL,
	file_size        INTEGER NOT NULL,
	xml_content_size INTEGER,
	doctype          TEXT,
	doi              TEXT
);
CREATE INDEX IF NOT EXISTS idx_files_run_acron ON files(run_id, acron);
CREATE INDEX IF NOT EXISTS idx_files_doi ON files(doi);
`

// Index records one report run into a SQLite database.
type Index struct {
	db     *sql.DB
	tx     *sql.Tx // open until Finish
	runID  string
	rows   int
	insert *sql.Stmt
	logger *zap.Logger
}

// Open creates or opens the database at path and starts a new run.
func Open(ctx context.Context, path, ext, root string, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set journal_mode=WAL", zap.Error(err))
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	idx := &Index{db: db, runID: uuid.NewString(), logger: logger}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO runs (id, ext, root, started_at) VALUES (?, ?, ?, ?)`,
		idx.runID, ext, root, time.Now().UTC()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	idx.tx, err = db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	idx.insert, err = idx.tx.PrepareContext(ctx, `INSERT INTO files
		(run_id, acron, path, vol_num, file_name, file_date, file_size, xml_content_size, doctype, doi)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		idx.tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	logger.Debug("index opened", zap.String("path", path), zap.String("run", idx.runID))
	return idx, nil
}

// RunID identifies the current run.
func (i *Index) RunID() string {
	return i.runID
}

// WriteRow stores one row. Missing XML metrics are stored as NULL.
func (i *Index) WriteRow(r report.Row) error {
	var (
		size    sql.NullInt64
		doctype sql.NullString
		doi     sql.NullString
	)
	if r.XML != nil && r.XML.IsArticle {
		size = sql.NullInt64{Int64: int64(r.XML.TextSize), Valid: true}
		doctype = sql.NullString{String: r.XML.DocType, Valid: r.XML.DocType != ""}
		doi = sql.NullString{String: r.XML.DOI, Valid: r.XML.DOI != ""}
	}

	if _, err := i.insert.Exec(i.runID, r.Acron, r.Dir, r.Volume, r.Name, r.Date(), r.Size, size, doctype, doi); err != nil {
		return fmt.Errorf("failed to index %s%s: %w", r.Dir, r.Name, err)
	}
	i.rows++
	return nil
}

// Finish stamps the run with its completion time and row count and
// commits the rows.
func (i *Index) Finish(ctx context.Context) error {
	if i.tx == nil {
		return fmt.Errorf("run %s already finished", i.runID)
	}
	if _, err := i.tx.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, row_count = ? WHERE id = ?`,
		time.Now().UTC(), i.rows, i.runID); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	i.insert.Close()
	i.insert = nil
	err := i.tx.Commit()
	i.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Close releases the database. Rows of an unfinished run are discarded.
func (i *Index) Close() error {
	if i.insert != nil {
		i.insert.Close()
	}
	if i.tx != nil {
		i.tx.Rollback()
	}
	return i.db.Close()
}
