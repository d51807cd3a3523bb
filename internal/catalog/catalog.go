// Package catalog stores the durable, bidirectional mapping between
// document paths and the vector IDs the Indexer assigned to their chunks.
// It is the only resource shared across all four worker goroutines.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sureshkumar/semdesk/internal/semerr"
)

// Entry is one catalog record: a filename and the vector IDs its chunks
// were indexed under.
type Entry struct {
	Filename string   `json:"filename"`
	Indexes  []uint64 `json:"indexes"`
}

// Store is the SQLite-backed catalog. It emulates the original sled-backed
// catalog's two keyspaces ("byfile/" and "byindex/") as key prefixes in a
// single table, and its generate_id() counter as an autoincrement table.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS id_seq (
	id INTEGER PRIMARY KEY AUTOINCREMENT
);
`

// Open opens (creating if necessary) the catalog database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, semerr.Wrap(semerr.CodeIO, "open catalog database "+path, err)
	}
	// The catalog is accessed from multiple goroutines but semdesk never
	// needs concurrent writers to race; a single connection serializes them
	// the same way a single sled::Db handle would.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, semerr.Wrap(semerr.CodeIO, "create catalog schema", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func normalizeFilename(filename string) string {
	return strings.TrimPrefix(filename, "/")
}

func fileKey(filename string) string {
	return "byfile/" + normalizeFilename(filename)
}

func indexKey(id uint64) string {
	return "byindex/" + strconv.FormatUint(id, 10)
}

// NextID draws a fresh, monotonically increasing vector ID. It is the sole
// source of IDs in the system — nothing else generates them.
func (s *Store) NextID(ctx context.Context) (uint64, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO id_seq DEFAULT VALUES")
	if err != nil {
		return 0, semerr.Wrap(semerr.CodeIO, "generate catalog id", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, semerr.Wrap(semerr.CodeIO, "read generated catalog id", err)
	}
	return uint64(id), nil
}

// Add stores entry under both its byfile and byindex keys in one
// transaction, overwriting any prior entry for the same filename.
func (s *Store) Add(ctx context.Context, entry Entry) error {
	blob, err := json.Marshal(entry)
	if err != nil {
		return semerr.Wrap(semerr.CodeInternal, "marshal catalog entry", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return semerr.Wrap(semerr.CodeIO, "begin catalog transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_entries(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fileKey(entry.Filename), blob); err != nil {
		return semerr.Wrap(semerr.CodeIO, "write catalog byfile entry", err)
	}

	for _, id := range entry.Indexes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_entries(key, value) VALUES(?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			indexKey(id), blob); err != nil {
			return semerr.Wrap(semerr.CodeIO, "write catalog byindex entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return semerr.Wrap(semerr.CodeIO, "commit catalog transaction", err)
	}
	return nil
}

func (s *Store) getByKey(ctx context.Context, key string) (Entry, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM catalog_entries WHERE key = ?", key).Scan(&blob)
	if err == sql.ErrNoRows {
		return Entry{}, semerr.NotFound("catalog key not found: " + key)
	}
	if err != nil {
		return Entry{}, semerr.Wrap(semerr.CodeIO, "read catalog entry", err)
	}
	var entry Entry
	if err := json.Unmarshal(blob, &entry); err != nil {
		return Entry{}, semerr.Wrap(semerr.CodeInternal, "unmarshal catalog entry", err)
	}
	return entry, nil
}

// GetByFile looks up the entry for filename, returning a NotFound semerr if
// the file has never been cataloged.
func (s *Store) GetByFile(ctx context.Context, filename string) (Entry, error) {
	return s.getByKey(ctx, fileKey(filename))
}

// GetByIndex looks up the entry that owns the chunk vector id.
func (s *Store) GetByIndex(ctx context.Context, id uint64) (Entry, error) {
	return s.getByKey(ctx, indexKey(id))
}

// ContainsFile reports whether filename already has a catalog entry.
func (s *Store) ContainsFile(ctx context.Context, filename string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM catalog_entries WHERE key = ?", fileKey(filename)).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, semerr.Wrap(semerr.CodeIO, "check catalog membership", err)
	}
	return true, nil
}

// Delete removes filename's entry along with every byindex key it owns.
func (s *Store) Delete(ctx context.Context, filename string) error {
	entry, err := s.GetByFile(ctx, filename)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return semerr.Wrap(semerr.CodeIO, "begin catalog transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM catalog_entries WHERE key = ?", fileKey(filename)); err != nil {
		return semerr.Wrap(semerr.CodeIO, "delete catalog byfile entry", err)
	}
	for _, id := range entry.Indexes {
		if _, err := tx.ExecContext(ctx, "DELETE FROM catalog_entries WHERE key = ?", indexKey(id)); err != nil {
			return semerr.Wrap(semerr.CodeIO, "delete catalog byindex entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return semerr.Wrap(semerr.CodeIO, "commit catalog delete", err)
	}
	return nil
}
