package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"paramsheet/internal"
)

const (
	RunStatusOK     = "ok"
	RunStatusFailed = "failed"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  dialect TEXT NOT NULL,
  inputPath TEXT NOT NULL,
  hash TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  records INTEGER NOT NULL DEFAULT 0,
  fallbacks INTEGER NOT NULL DEFAULT 0,
  outputPath TEXT NOT NULL DEFAULT '',
  summaryJson TEXT NOT NULL DEFAULT '{}',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_hash ON runs(hash);

CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  address TEXT NOT NULL,
  editable INTEGER NOT NULL,
  description TEXT NOT NULL,
  scale REAL,
  scaleB TEXT NOT NULL,
  unit TEXT NOT NULL,
  value TEXT NOT NULL,
  scaleValue TEXT NOT NULL,
  scaleFormat TEXT NOT NULL,
  type TEXT NOT NULL,
  groupKey TEXT NOT NULL,
  period REAL,
  size TEXT NOT NULL,
  degree TEXT NOT NULL,
  code TEXT NOT NULL,
  UNIQUE(runId, position),
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun stores the run row and its records in one transaction. Failed
// runs carry no records.
func (d *DB) InsertRun(run internal.RunRow, summary internal.RunSummary, records []internal.Record) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, err
	}

	result, err := tx.Exec(`
INSERT INTO runs (traceId, dialect, inputPath, hash, status, error, records, fallbacks, outputPath, summaryJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, run.Dialect, run.InputPath, run.Hash, run.Status, run.Error,
		len(records), summary.FallbackCount(), run.OutputPath, string(summaryJSON))
	if err != nil {
		return 0, err
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
INSERT INTO records (
  runId, position, name, address, editable, description, scale, scaleB, unit, value,
  scaleValue, scaleFormat, type, groupKey, period, size, degree, code
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(
			runID, i, r.Name, r.Address, r.Editable, r.Description, r.Scale, r.ScaleB, r.Unit, r.Value,
			r.ScaleValue, r.ScaleFormat, string(r.Type), r.Group, r.Period, r.Size, r.Degree, r.Code,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

const runColumns = `id, traceId, dialect, inputPath, hash, status, error, records, fallbacks, outputPath, createdAt`

func scanRun(s interface{ Scan(...any) error }) (internal.RunRow, error) {
	var row internal.RunRow
	err := s.Scan(
		&row.ID, &row.TraceID, &row.Dialect, &row.InputPath, &row.Hash, &row.Status, &row.Error,
		&row.Records, &row.Fallbacks, &row.OutputPath, &row.CreatedAt,
	)
	return row, err
}

func (d *DB) GetRun(id int) (*internal.RunRow, error) {
	row, err := scanRun(d.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustRun(id int) (internal.RunRow, error) {
	row, err := d.GetRun(id)
	if err != nil {
		return internal.RunRow{}, err
	}
	if row == nil {
		return internal.RunRow{}, fmt.Errorf("run not found: id=%d", id)
	}
	return *row, nil
}

// FindRunByHash returns the most recent run of an input with this content
// hash, whatever its status.
func (d *DB) FindRunByHash(hash string) (*internal.RunRow, error) {
	row, err := scanRun(d.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE hash = ? ORDER BY id DESC LIMIT 1`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		row, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) GetRunSummary(runID int) (internal.RunSummary, error) {
	var summaryJSON string
	err := d.conn.QueryRow(`SELECT summaryJson FROM runs WHERE id = ?`, runID).Scan(&summaryJSON)
	if err != nil {
		return internal.RunSummary{}, err
	}
	var summary internal.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return internal.RunSummary{}, fmt.Errorf("run %d summary: %w", runID, err)
	}
	return summary, nil
}

// GetRunRecords returns the stored records in their export order.
func (d *DB) GetRunRecords(runID int) ([]internal.Record, error) {
	rows, err := d.conn.Query(`
SELECT name, address, editable, description, scale, scaleB, unit, value,
       scaleValue, scaleFormat, type, groupKey, period, size, degree, code
FROM records WHERE runId = ? ORDER BY position ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.Record{}
	for rows.Next() {
		var r internal.Record
		var scale, period sql.NullFloat64
		var typ string
		if err := rows.Scan(
			&r.Name, &r.Address, &r.Editable, &r.Description, &scale, &r.ScaleB, &r.Unit, &r.Value,
			&r.ScaleValue, &r.ScaleFormat, &typ, &r.Group, &period, &r.Size, &r.Degree, &r.Code,
		); err != nil {
			return nil, err
		}
		r.Type = internal.CanonicalType(typ)
		if scale.Valid {
			v := scale.Float64
			r.Scale = &v
		}
		if period.Valid {
			v := period.Float64
			r.Period = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
