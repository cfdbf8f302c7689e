package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"censusfmt/internal"
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
CREATE TABLE IF NOT EXISTS uploads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(source, messageId)
);

CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  uploadId INTEGER NOT NULL,
  rowNo INTEGER NOT NULL,
  relationship TEXT NOT NULL,
  memberLastName TEXT,
  firstName TEXT,
  recordJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(uploadId, rowNo),
  FOREIGN KEY(uploadId) REFERENCES uploads(id)
);

CREATE TABLE IF NOT EXISTS issues (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  uploadId INTEGER NOT NULL,
  severity TEXT NOT NULL,
  rowNo INTEGER,
  field TEXT,
  code TEXT,
  value TEXT,
  message TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(uploadId) REFERENCES uploads(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  uploadId INTEGER,
  summaryJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(uploadId) REFERENCES uploads(id)
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

func (d *DB) UpsertUpload(source, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.UploadRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO uploads (source, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, source, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.UploadRow{}, err
	}

	row, err := d.GetUploadBySourceMessageID(source, messageID)
	if err != nil {
		return internal.UploadRow{}, err
	}
	if row == nil {
		return internal.UploadRow{}, errors.New("failed to upsert upload")
	}
	return *row, nil
}

func (d *DB) GetUploadBySourceMessageID(source, messageID string) (*internal.UploadRow, error) {
	var row internal.UploadRow
	err := d.conn.QueryRow(`
SELECT id, source, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM uploads WHERE source = ? AND messageId = ?
`, source, messageID).Scan(
		&row.ID, &row.Source, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetUploadByID(id int) (*internal.UploadRow, error) {
	var row internal.UploadRow
	err := d.conn.QueryRow(`
SELECT id, source, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM uploads WHERE id = ?
`, id).Scan(
		&row.ID, &row.Source, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListUploadsByStatus(status string, limit int) ([]internal.UploadRow, error) {
	rows, err := d.conn.Query(`
SELECT id, source, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM uploads WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.UploadRow
	for rows.Next() {
		var row internal.UploadRow
		if err := rows.Scan(&row.ID, &row.Source, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateUploadStatus(uploadID int, status string) error {
	_, err := d.conn.Exec(`UPDATE uploads SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, uploadID)
	return err
}

// ClearUploadProcessing removes records and issues from a previous run
// so an upload can be reprocessed cleanly.
func (d *DB) ClearUploadProcessing(uploadID int) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM issues WHERE uploadId = ?`, uploadID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM records WHERE uploadId = ?`, uploadID); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) InsertRecords(uploadID int, records []internal.CanonicalRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO records (uploadId, rowNo, relationship, memberLastName, firstName, recordJson)
VALUES (?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		recordJSON, _ := json.Marshal(rec)
		if _, err := stmt.Exec(uploadID, i+1, string(rec.Relationship), rec.MemberLastName, rec.FirstName, string(recordJSON)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListRecords(uploadID int) ([]internal.CanonicalRecord, error) {
	rows, err := d.conn.Query(`
SELECT recordJson FROM records WHERE uploadId = ? ORDER BY rowNo ASC
`, uploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CanonicalRecord
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, err
		}
		var rec internal.CanonicalRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) InsertIssues(uploadID int, diags []internal.Diagnostic, result internal.ValidationResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO issues (uploadId, severity, rowNo, field, code, value, message)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range result.Errors {
		if _, err := stmt.Exec(uploadID, "error", e.RowIndex, e.Field, nil, nil, e.Message); err != nil {
			return err
		}
	}
	for _, w := range result.Warnings {
		if _, err := stmt.Exec(uploadID, "warning", w.RowIndex, w.Field, nil, nil, w.Message); err != nil {
			return err
		}
	}
	for _, dg := range diags {
		if _, err := stmt.Exec(uploadID, "diagnostic", dg.Row, dg.Field, string(dg.Code), dg.Value, dg.Message); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListIssues reads back the persisted issues of one upload, grouped by
// severity. The returned diagnostics carry the original row, code and
// offending value so exports can reproduce the ISSUES sheet without
// re-running normalization.
func (d *DB) ListIssues(uploadID int) ([]internal.ValidationError, []internal.ValidationWarning, []internal.Diagnostic, error) {
	rows, err := d.conn.Query(`
SELECT severity, rowNo, field, code, value, message
FROM issues WHERE uploadId = ? ORDER BY id ASC
`, uploadID)
	if err != nil {
		return nil, nil, nil, err
	}
	defer rows.Close()

	var (
		errs  []internal.ValidationError
		warns []internal.ValidationWarning
		diags []internal.Diagnostic
	)
	for rows.Next() {
		var (
			severity           string
			rowNo              sql.NullInt64
			field, code, value sql.NullString
			message            string
		)
		if err := rows.Scan(&severity, &rowNo, &field, &code, &value, &message); err != nil {
			return nil, nil, nil, err
		}
		switch severity {
		case "error":
			e := internal.ValidationError{Field: field.String, Message: message}
			if rowNo.Valid {
				idx := int(rowNo.Int64)
				e.RowIndex = &idx
			}
			errs = append(errs, e)
		case "warning":
			w := internal.ValidationWarning{Field: field.String, Message: message}
			if rowNo.Valid {
				idx := int(rowNo.Int64)
				w.RowIndex = &idx
			}
			warns = append(warns, w)
		case "diagnostic":
			diags = append(diags, internal.Diagnostic{
				Row:     int(rowNo.Int64),
				Field:   field.String,
				Code:    internal.DiagCode(code.String),
				Value:   value.String,
				Message: message,
			})
		}
	}
	return errs, warns, diags, rows.Err()
}

func (d *DB) InsertRun(traceID string, uploadID int, summary internal.ValidationSummary, counts map[string]int) error {
	summaryJSON, _ := json.Marshal(summary)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, uploadId, summaryJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, uploadID, string(summaryJSON), string(countsJSON))
	return err
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

func (d *DB) MustUploadBySourceMessageID(source, messageID string) (internal.UploadRow, error) {
	row, err := d.GetUploadBySourceMessageID(source, messageID)
	if err != nil {
		return internal.UploadRow{}, err
	}
	if row == nil {
		return internal.UploadRow{}, fmt.Errorf("upload not found: source=%s messageId=%s", source, messageID)
	}
	return *row, nil
}
