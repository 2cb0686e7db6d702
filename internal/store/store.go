// internal/store/store.go
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"montage/internal/composition"
	"montage/internal/history"
)

// Store persists composition records and their history snapshots in SQLite.
// Each read-execute-replace cycle runs against the version column, so
// concurrent writers are detected rather than silently interleaved.
type Store struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	encoder, _ := zstd.NewWriter(nil)
	decoder, _ := zstd.NewReader(nil)

	s := &Store{db: db, encoder: encoder, decoder: decoder}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// init creates the database schema.
func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS compositions (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		ir TEXT NOT NULL,
		compiled_artifact TEXT,
		version INTEGER NOT NULL DEFAULT 0,
		history_cursor INTEGER NOT NULL DEFAULT -1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		composition_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		ir BLOB NOT NULL,
		description TEXT,
		version INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		PRIMARY KEY (composition_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_compositions_project ON compositions(project_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateComposition inserts a new composition record.
func (s *Store) CreateComposition(rec *Composition) error {
	irJSON, err := json.Marshal(rec.IR)
	if err != nil {
		return fmt.Errorf("marshal ir: %w", err)
	}

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO compositions (id, project_id, ir, compiled_artifact, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProjectID, string(irJSON), rec.CompiledArtifact, rec.Version, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert composition: %w", err)
	}
	return nil
}

// GetComposition retrieves a composition record by id.
func (s *Store) GetComposition(id string) (*Composition, error) {
	row := s.db.QueryRow(`
		SELECT id, project_id, ir, compiled_artifact, version, created_at, updated_at
		FROM compositions WHERE id = ?`, id)

	rec := &Composition{}
	var irJSON string
	var artifact sql.NullString
	err := row.Scan(&rec.ID, &rec.ProjectID, &irJSON, &artifact, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.CompiledArtifact = artifact.String

	rec.IR = &composition.Document{}
	if err := json.Unmarshal([]byte(irJSON), rec.IR); err != nil {
		return nil, fmt.Errorf("unmarshal ir: %w", err)
	}
	return rec, nil
}

// ListCompositions returns all composition records for a project.
func (s *Store) ListCompositions(projectID string) ([]*Composition, error) {
	rows, err := s.db.Query(`
		SELECT id, project_id, ir, compiled_artifact, version, created_at, updated_at
		FROM compositions WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Composition
	for rows.Next() {
		rec := &Composition{}
		var irJSON string
		var artifact sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &irJSON, &artifact, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.CompiledArtifact = artifact.String
		rec.IR = &composition.Document{}
		if err := json.Unmarshal([]byte(irJSON), rec.IR); err != nil {
			return nil, fmt.Errorf("unmarshal ir: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ReplaceIR atomically replaces the stored document, guarded by the version
// the caller read. Returns ErrConflict if the stored version has advanced,
// ErrNotFound if the record does not exist. On success the stored version
// is expectedVersion+1.
func (s *Store) ReplaceIR(id string, ir *composition.Document, expectedVersion int) (*Composition, error) {
	irJSON, err := json.Marshal(ir)
	if err != nil {
		return nil, fmt.Errorf("marshal ir: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE compositions SET ir = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(irJSON), expectedVersion+1, time.Now(), id, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("replace ir: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, err := s.GetComposition(id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.GetComposition(id)
}

// SetCompiledArtifact stores the opaque compiled artifact for a composition.
func (s *Store) SetCompiledArtifact(id, artifact string) error {
	res, err := s.db.Exec(`UPDATE compositions SET compiled_artifact = ?, updated_at = ? WHERE id = ?`,
		artifact, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComposition removes a composition and its snapshots.
func (s *Store) DeleteComposition(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE composition_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM compositions WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceHistory persists the full snapshot log and cursor for a
// composition in one transaction. Snapshot documents are zstd-compressed;
// the log is bounded upstream so the rewrite stays small.
func (s *Store) ReplaceHistory(compositionID string, entries []history.Snapshot, cursor int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE composition_id = ?`, compositionID); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}

	for seq, snap := range entries {
		irJSON, err := json.Marshal(snap.IR)
		if err != nil {
			return fmt.Errorf("marshal snapshot ir: %w", err)
		}
		compressed := s.encoder.EncodeAll(irJSON, nil)
		_, err = tx.Exec(`
			INSERT INTO snapshots (composition_id, seq, ir, description, version, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)`,
			compositionID, seq, compressed, snap.Description, snap.Version, snap.Timestamp)
		if err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	if _, err := tx.Exec(`UPDATE compositions SET history_cursor = ? WHERE id = ?`, cursor, compositionID); err != nil {
		return fmt.Errorf("update cursor: %w", err)
	}
	return tx.Commit()
}

// LoadHistory returns the persisted snapshot log (oldest first) and cursor.
func (s *Store) LoadHistory(compositionID string) ([]history.Snapshot, int, error) {
	var cursor int
	err := s.db.QueryRow(`SELECT history_cursor FROM compositions WHERE id = ?`, compositionID).Scan(&cursor)
	if err == sql.ErrNoRows {
		return nil, -1, ErrNotFound
	}
	if err != nil {
		return nil, -1, err
	}

	rows, err := s.db.Query(`
		SELECT seq, ir, description, version, timestamp
		FROM snapshots WHERE composition_id = ? ORDER BY seq`, compositionID)
	if err != nil {
		return nil, -1, err
	}
	defer rows.Close()

	var entries []history.Snapshot
	for rows.Next() {
		var seq int
		var compressed []byte
		snap := history.Snapshot{CompositionID: compositionID}
		if err := rows.Scan(&seq, &compressed, &snap.Description, &snap.Version, &snap.Timestamp); err != nil {
			return nil, -1, err
		}
		irJSON, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, -1, fmt.Errorf("decompress snapshot: %w", err)
		}
		snap.IR = &composition.Document{}
		if err := json.Unmarshal(irJSON, snap.IR); err != nil {
			return nil, -1, fmt.Errorf("unmarshal snapshot ir: %w", err)
		}
		entries = append(entries, snap)
	}
	return entries, cursor, rows.Err()
}
