package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
)

// DriverName is the database/sql driver registered by this package.
// It is the stock go-sqlite3 driver plus the "unicase" collation that
// Anki declares on deck, note type and field name columns. Without the
// collation SQLite refuses any statement touching those columns.
const DriverName = "sqlite3_anki"

// UnicaseCollation is the collation name Anki uses for name columns.
const UnicaseCollation = "unicase"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterCollation(UnicaseCollation, CompareUnicase)
		},
	})
}

var folder = cases.Fold()

// CompareUnicase orders two strings by their Unicode case folding.
// Strings that differ only in case compare equal.
func CompareUnicase(a, b string) int {
	return strings.Compare(folder.String(a), folder.String(b))
}

// Store wraps a SQLite connection to an Anki collection file.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// Open opens an existing collection file for reading.
//
// The file must already exist: SQLite would otherwise create an empty
// database at path, and an empty file is not a collection. The returned
// error wraps os.ErrNotExist in that case.
//
// The connection is configured with:
//   - a mode=ro URI so SQLite itself refuses writes
//   - query_only so no statement can modify the collection
//   - 5-second busy timeout in case the producer still holds a lock
func Open(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("database path %s is a directory", path)
	}

	return open(path, true, []string{
		"PRAGMA query_only = ON",
		"PRAGMA busy_timeout = 5000",
	})
}

// OpenWritable creates or opens a collection file for writing.
// Only fixture builders use it; the verification path never writes.
func OpenWritable(path string) (*Store, error) {
	return open(path, false, []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	})
}

func open(path string, readOnly bool, pragmas []string) (*Store, error) {
	db, err := sql.Open(DriverName, dataSource(path, readOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db, path: path, readOnly: readOnly}, nil
}

// dataSource returns the DSN for path. Read-only stores use a file URI
// with mode=ro; the path is escaped so spaces and '?' survive.
func dataSource(path string, readOnly bool) string {
	if !readOnly {
		return path
	}
	u := url.URL{Scheme: "file", Opaque: (&url.URL{Path: path}).EscapedPath(), RawQuery: "mode=ro"}
	return u.String()
}

// Close closes the database connection.
// Safe to call more than once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the file path the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store was opened with Open.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Query executes a query and returns the resulting rows.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query expected to return at most one row.
func (s *Store) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// Exec executes a statement. It fails on stores opened with Open.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.readOnly {
		return nil, fmt.Errorf("store %s is read-only", s.path)
	}
	return s.db.ExecContext(ctx, query, args...)
}

// HasTable reports whether a table with the given name exists.
func (s *Store) HasTable(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return count > 0, nil
}

// applyPragmas sets per-connection SQLite configuration.
func applyPragmas(db *sql.DB, pragmas []string) error {
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
