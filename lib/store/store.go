// Package store persists serialized arrays in a SQLite database, keyed
// by name.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/quillvm/quill/vm"
	"github.com/quillvm/quill/vm/wire"
)

// ErrNotFound indicates the requested array doesn't exist.
var ErrNotFound = errors.New("array not found")

// Store is a SQLite-backed array store.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (or creates) the store database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Create table if needed
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS arrays (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put serializes an array and writes it under name, replacing any
// previous value.
func (s *Store) Put(name string, a *vm.Array) error {
	payload, err := wire.MarshalArray(a)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		`INSERT INTO arrays (name, payload) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload`,
		name, payload)
	if err != nil {
		return fmt.Errorf("storing array %q: %w", name, err)
	}
	return nil
}

// Get loads and reconstructs the array stored under name.
func (s *Store) Get(ctx *vm.Context, name string) (*vm.Array, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM arrays WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading array %q: %w", name, err)
	}
	return wire.UnmarshalArray(ctx, payload)
}

// Delete removes the array stored under name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM arrays WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting array %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Names lists the stored array names in order.
func (s *Store) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`SELECT name FROM arrays ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing arrays: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
