package index

import (
	"database/sql"
	"fmt"
	"time"
)

// UpdateFile upserts a file's size/mtime/flags, creating its directory row
// if needed (§4.7). The statement's ON CONFLICT(dir, name) DO UPDATE clause
// gives the upsert semantics directly.
func (s *Store) UpdateFile(p string, size int64, mtime time.Time, flags uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, name := splitPath(p)
	dirID, err := s.directoryIDLocked(dir, true)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO file (dir, name, size, mtime, flags) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(dir, name) DO UPDATE SET size = excluded.size, mtime = excluded.mtime, flags = excluded.flags`,
		dirID, name, size, mtime.Unix(), flags,
	)
	if err != nil {
		return fmt.Errorf("index: UpdateFile %s: %w", p, err)
	}
	return nil
}

// directoryIDLocked returns dir's row id, inserting it first if create is
// true and it doesn't exist yet. Caller must hold s.mu.
func (s *Store) directoryIDLocked(dir string, create bool) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM directory WHERE path = ?`, dir).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("index: lookup directory %s: %w", dir, err)
	}
	if !create {
		return 0, sql.ErrNoRows
	}
	res, err := s.db.Exec(`INSERT INTO directory (path) VALUES (?)`, dir)
	if err != nil {
		return 0, fmt.Errorf("index: insert directory %s: %w", dir, err)
	}
	return res.LastInsertId()
}

// GetFile looks up one file's record by path.
func (s *Store) GetFile(p string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, name := splitPath(p)
	var size int64
	var mtimeUnix int64
	var flags uint32
	err := s.db.QueryRow(
		`SELECT file.size, file.mtime, file.flags
		 FROM file JOIN directory ON directory.id = file.dir
		 WHERE directory.path = ? AND file.name = ?`,
		dir, name,
	).Scan(&size, &mtimeUnix, &flags)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("index: GetFile %s: %w", p, err)
	}
	return Record{Path: normalizePath(p), Size: size, ModTime: time.Unix(mtimeUnix, 0), Flags: flags}, true, nil
}

// SetFlags overwrites path's flags.
func (s *Store) SetFlags(p string, flags uint32) error {
	return s.updateOneFlags(p, `UPDATE file SET flags = ?
		WHERE dir = (SELECT id FROM directory WHERE path = ?) AND name = ?`, flags)
}

// AddFlags ORs bits into path's existing flags.
func (s *Store) AddFlags(p string, flags uint32) error {
	return s.updateOneFlags(p, `UPDATE file SET flags = (flags | ?)
		WHERE dir = (SELECT id FROM directory WHERE path = ?) AND name = ?`, flags)
}

func (s *Store) updateOneFlags(p string, query string, flags uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, name := splitPath(p)
	_, err := s.db.Exec(query, flags, dir, name)
	if err != nil {
		return fmt.Errorf("index: update flags for %s: %w", p, err)
	}
	return nil
}

// SetAllFlags overwrites every file row's flags at once, used by §4.6 step 5
// to reset all index flags to 1 before a run's outputs clear their own bit.
func (s *Store) SetAllFlags(flags uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE file SET flags = ?`, flags)
	if err != nil {
		return fmt.Errorf("index: SetAllFlags: %w", err)
	}
	return nil
}

// DeleteFile removes one file's row.
func (s *Store) DeleteFile(p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, name := splitPath(p)
	_, err := s.db.Exec(
		`DELETE FROM file WHERE dir = (SELECT id FROM directory WHERE path = ?) AND name = ?`,
		dir, name,
	)
	if err != nil {
		return fmt.Errorf("index: DeleteFile %s: %w", p, err)
	}
	return nil
}

// DeleteFilesByFlag deletes every file row matching flags: flags == 0
// matches rows whose flags are exactly zero, otherwise a bitwise-AND match
// (§4.7). It returns the number of rows removed.
func (s *Store) DeleteFilesByFlag(flags uint32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(flagMatchQuery("DELETE FROM file WHERE"), flags, flags, flags, flags)
	if err != nil {
		return 0, fmt.Errorf("index: DeleteFilesByFlag: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ForEachFileByFlag iterates every file row matching flags in path order,
// stopping early if cb returns false (§4.7).
func (s *Store) ForEachFileByFlag(flags uint32, cb func(Record) bool) error {
	s.mu.Lock()
	rows, err := s.db.Query(
		flagMatchQuery(`SELECT (directory.path || '/' || file.name) AS full_path, file.size, file.mtime, file.flags
		 FROM file JOIN directory ON directory.id = file.dir WHERE`)+` ORDER BY full_path`,
		flags, flags, flags, flags,
	)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("index: ForEachFileByFlag: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec Record
		var mtimeUnix int64
		if err := rows.Scan(&rec.Path, &rec.Size, &mtimeUnix, &rec.Flags); err != nil {
			return fmt.Errorf("index: ForEachFileByFlag scan: %w", err)
		}
		rec.Path = normalizePath(rec.Path)
		rec.ModTime = time.Unix(mtimeUnix, 0)
		if !cb(rec) {
			break
		}
	}
	return rows.Err()
}

// flagMatchQuery appends the "(?1 == 0 AND flags == 0) OR (?1 != 0 AND
// (flags & ?1) == ?1)" predicate used by both DeleteFilesByFlag and
// ForEachFileByFlag, grounded on the original's getFilesByFlag/
// deleteFilesByFlag statements.
func flagMatchQuery(prefix string) string {
	return prefix + ` ((? = 0 AND flags = 0) OR (? != 0 AND (flags & ?) = ?))`
}

// CleanUp prunes directory rows with no referencing file row (§4.7).
func (s *Store) CleanUp() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM directory WHERE id NOT IN (SELECT DISTINCT dir FROM file)`)
	if err != nil {
		return fmt.Errorf("index: CleanUp: %w", err)
	}
	return nil
}
