package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/folio/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// Extension is the snapshot file suffix.
const Extension = ".db"

const (
	metaModel      = "model"
	metaDimensions = "dimensions"
	metaUpdatedAt  = "updated_at"

	timeLayout = time.RFC3339Nano
)

// SnapshotStore reads and writes corpus snapshot files.
type SnapshotStore struct {
	migrations fs.FS
}

// NewSnapshotStore creates a snapshot store using the embedded schema.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{migrations: migrations.FS}
}

// Extension returns the snapshot file suffix.
func (s *SnapshotStore) Extension() string {
	return Extension
}

// Save writes snap to path atomically.
func (s *SnapshotStore) Save(ctx context.Context, path string, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrPersistenceFailed)
	}

	tmp := path + ".tmp"
	removeDatabase(tmp)

	if err := s.write(ctx, tmp, snap); err != nil {
		removeDatabase(tmp)
		return fmt.Errorf("%w: write %s: %w", domain.ErrPersistenceFailed, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		removeDatabase(tmp)
		return fmt.Errorf("%w: replace %s: %w", domain.ErrPersistenceFailed, path, err)
	}
	return nil
}

func (s *SnapshotStore) write(ctx context.Context, path string, snap *domain.Snapshot) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := s.migrate(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	meta := map[string]string{
		metaModel:      snap.Model,
		metaDimensions: strconv.Itoa(snap.Dimensions),
		metaUpdatedAt:  formatTime(snap.UpdatedAt),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("saving meta %s: %w", k, err)
		}
	}

	if err := insertChunks(ctx, tx, snap); err != nil {
		return err
	}
	if err := insertDocuments(ctx, tx, snap.Documents); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return db.Close()
}

func insertChunks(ctx context.Context, tx *sql.Tx, snap *domain.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (position, document_path, document_name, source_tag, chunk_index,
			total, text, start_word, end_word, tags, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, ic := range snap.Chunks {
		if len(ic.Vector) != snap.Dimensions {
			return fmt.Errorf("chunk %d has %d dimensions, expected %d", i, len(ic.Vector), snap.Dimensions)
		}

		var tags sql.NullString
		if ic.Chunk.Tags != nil {
			b, err := json.Marshal(ic.Chunk.Tags)
			if err != nil {
				return fmt.Errorf("marshalling tags: %w", err)
			}
			tags = sql.NullString{String: string(b), Valid: true}
		}

		c := ic.Chunk
		if _, err := stmt.ExecContext(ctx, i, c.DocumentPath, c.DocumentName, c.SourceTag, c.Index,
			c.Total, c.Text, c.StartWord, c.EndWord, tags, float32SliceToBytes(ic.Vector)); err != nil {
			return fmt.Errorf("saving chunk %d: %w", i, err)
		}
	}
	return nil
}

func insertDocuments(ctx context.Context, tx *sql.Tx, docs []domain.Document) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (seq, id, path, name, source_tag, text, word_count, size_bytes,
			content_hash, extractor, modified_at, created_at, extracted_at, success, error, duplicate_of)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range docs {
		if _, err := stmt.ExecContext(ctx, i, d.ID, d.Path, d.Name, d.SourceTag, d.Text, d.WordCount,
			d.SizeBytes, d.ContentHash, d.Extractor, formatTime(d.ModifiedAt), formatTime(d.CreatedAt), formatTime(d.ExtractedAt),
			d.Success, d.Error, d.DuplicateOf); err != nil {
			return fmt.Errorf("saving document %s: %w", d.Path, err)
		}
	}
	return nil
}

// Load reads the snapshot at path.
func (s *SnapshotStore) Load(ctx context.Context, path string) (*domain.Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}

	db, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	defer db.Close()

	if err := s.migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("%w: running migrations on %s: %w", domain.ErrPersistenceFailed, path, err)
	}

	snap, err := read(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrPersistenceFailed, path, err)
	}
	return snap, nil
}

func read(ctx context.Context, db *sql.DB) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("querying meta: %w", err)
	}
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		meta[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snap.Model = meta[metaModel]
	if v, ok := meta[metaDimensions]; ok {
		if snap.Dimensions, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid dimensions %q: %w", v, err)
		}
	}
	snap.UpdatedAt = parseTime(meta[metaUpdatedAt])

	if snap.Chunks, err = readChunks(ctx, db, snap.Dimensions); err != nil {
		return nil, err
	}
	if snap.Documents, err = readDocuments(ctx, db); err != nil {
		return nil, err
	}
	return snap, nil
}

func readChunks(ctx context.Context, db *sql.DB, dims int) ([]domain.IndexedChunk, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT document_path, document_name, source_tag, chunk_index, total, text,
			start_word, end_word, tags, vector
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.IndexedChunk
	for rows.Next() {
		var c domain.Chunk
		var tags sql.NullString
		var blob []byte
		if err := rows.Scan(&c.DocumentPath, &c.DocumentName, &c.SourceTag, &c.Index, &c.Total,
			&c.Text, &c.StartWord, &c.EndWord, &tags, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if tags.Valid {
			c.Tags = &domain.StructureTags{}
			if err := json.Unmarshal([]byte(tags.String), c.Tags); err != nil {
				return nil, fmt.Errorf("unmarshalling tags: %w", err)
			}
		}

		vector := bytesToFloat32Slice(blob)
		if len(vector) != dims {
			return nil, fmt.Errorf("chunk %d of %s has %d dimensions, expected %d",
				c.Index, c.DocumentPath, len(vector), dims)
		}
		chunks = append(chunks, domain.IndexedChunk{Chunk: c, Vector: vector})
	}
	return chunks, rows.Err()
}

func readDocuments(ctx context.Context, db *sql.DB) ([]domain.Document, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, path, name, source_tag, text, word_count, size_bytes, content_hash,
			extractor, modified_at, created_at, extracted_at, success, error, duplicate_of
		FROM documents ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		var modifiedAt, createdAt, extractedAt string
		if err := rows.Scan(&d.ID, &d.Path, &d.Name, &d.SourceTag, &d.Text, &d.WordCount, &d.SizeBytes,
			&d.ContentHash, &d.Extractor, &modifiedAt, &createdAt, &extractedAt, &d.Success, &d.Error,
			&d.DuplicateOf); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.ModifiedAt = parseTime(modifiedAt)
		d.CreatedAt = parseTime(createdAt)
		d.ExtractedAt = parseTime(extractedAt)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// migrate applies every embedded up migration newer than the recorded
// schema version.
func (s *SnapshotStore) migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(s.migrations, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_snapshot.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(s.migrations, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// open opens a single-connection database. Snapshot files are written
// once and renamed, so the rollback journal is used instead of WAL.
func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// removeDatabase deletes a database file and its journals, ignoring
// missing files.
func removeDatabase(path string) {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
