// Package index persists the output-flag store backing §4.6/§4.7: which
// paths this tool has produced, their size/mtime, and the PathLiteral flag
// bits recorded the last time they were built. It is grounded on the
// directory/file table split and the preference-table schema-version gate
// used by original_source/src/pp/Database.cpp, rebuilt on a pure-Go SQLite
// driver (modernc.org/sqlite) in place of the original's linked SQLite3.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// schemaVersion gates automatic recreation when the table layout changes
// (§4.7's "a schema-version marker gates automatic recreation").
const schemaVersion = 1

// Record is one file row as read back from the store.
type Record struct {
	Path    string
	Size    int64
	ModTime time.Time
	Flags   uint32
}

// Store is the sqlite-backed output index. One Store serialises all access
// to its database file under mu, matching §5's "output index has one
// handle per target with an internal mutex".
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewStore returns an unopened Store.
func NewStore() *Store {
	return &Store{}
}

// Open is idempotent: calling it again on an already-open Store is a no-op.
func (s *Store) Open(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("index: open %s: %w", path, err)
	}
	s.db = db
	s.path = path
	if err := s.migrate(); err != nil {
		db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) migrate() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = OFF",
		"PRAGMA journal_mode = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("index: %s: %w", p, err)
		}
	}

	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return fmt.Errorf("index: create meta table: %w", err)
	}

	var version int
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if err := s.createSchemaLocked(); err != nil {
			return err
		}
		_, err = s.db.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion)
		return err
	case err != nil:
		return fmt.Errorf("index: read schema_version: %w", err)
	case version != schemaVersion:
		return s.recreateLocked()
	default:
		return nil
	}
}

func (s *Store) createSchemaLocked() error {
	collate := ""
	if runtime.GOOS == "windows" {
		collate = " COLLATE NOCASE"
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS directory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT%s UNIQUE NOT NULL
		)`, collate),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS file (
			dir INTEGER NOT NULL REFERENCES directory(id) ON DELETE CASCADE,
			name TEXT%s NOT NULL,
			size INTEGER NOT NULL,
			mtime INTEGER NOT NULL,
			flags INTEGER NOT NULL DEFAULT 0,
			UNIQUE(dir, name) ON CONFLICT REPLACE
		)`, collate),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("index: create schema: %w", err)
		}
	}
	return nil
}

// recreateLocked drops and rebuilds the schema in place, matching the
// original's "database version does not match -> recreate database"
// behavior without needing a full Close/unlink/Open cycle.
func (s *Store) recreateLocked() error {
	for _, stmt := range []string{`DROP TABLE IF EXISTS file`, `DROP TABLE IF EXISTS directory`, `DROP TABLE IF EXISTS meta`} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("index: recreate: %w", err)
		}
	}
	if _, err := s.db.Exec(`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return err
	}
	if err := s.createSchemaLocked(); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion)
	return err
}

// Clear closes the store, deletes the database file, and reopens a fresh
// one, per the Open Question decision recorded in DESIGN.md.
func (s *Store) Clear() error {
	s.mu.Lock()
	p := s.path
	s.mu.Unlock()

	if err := s.Close(); err != nil {
		return err
	}
	if p != "" {
		if err := removeFile(p); err != nil {
			return err
		}
	}
	return s.Open(p)
}

// normalizePath canonicalises a path for storage/lookup (§4.7): forward
// slashes, no duplicate separators.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return path.Clean(p)
}

func splitPath(p string) (dir, name string) {
	p = normalizePath(p)
	dir = path.Dir(p)
	name = path.Base(p)
	return dir, name
}

func removeFile(p string) error {
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
