// Package store is the Knowledge Store: durable, single-writer persistence
// for topics, knowledge items, related-topic edges, user-query feedback,
// and learning sessions, backed by SQLite in WAL mode.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/001_initial_schema.sql
var initialSchema string

// Store wraps the single *sql.DB connection. SQLite is configured for a
// single writer; all mutating operations below run through db directly
// rather than a pooled connection.
type Store struct {
	db *sql.DB
}

// Open creates or attaches to the knowledge database under dataDir and
// brings it up to the current schema.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := validateLocalPath(dataDir); err != nil {
		return nil, fmt.Errorf("validate data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "knowledge.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}

	if err := s.initPragmas(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize pragmas: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// OpenMemory opens an in-memory database, for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) initPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA mmap_size = 268435456",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("execute %s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate() error {
	return s.runMigration("initial_schema", initialSchema)
}

func (s *Store) runMigration(name, schema string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range splitSQL(schema) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %s statement %d: %w", name, i+1, err)
		}
	}

	return tx.Commit()
}

// Health reports whether the connection is usable.
func (s *Store) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// Close checkpoints the WAL and closes the connection. Safe to call once
// after Stop has drained all workers.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: wal checkpoint failed: %v\n", err)
	}
	return s.db.Close()
}

func validateLocalPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	networkPrefixes := []string{"//", "\\\\", "/mnt/", "/net/", "/Volumes/"}
	for _, prefix := range networkPrefixes {
		if strings.HasPrefix(absPath, prefix) {
			return fmt.Errorf("network path detected: %s", absPath)
		}
	}
	testFile := filepath.Join(path, ".thorlearn-write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}
	os.Remove(testFile)
	return nil
}

// splitSQL splits a schema string on statement-terminating semicolons,
// tolerating BEGIN...END trigger bodies and quoted strings.
func splitSQL(schema string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	var stringChar byte
	beginDepth := 0

	for i := 0; i < len(schema); i++ {
		c := schema[i]

		if inString {
			current.WriteByte(c)
			if c == stringChar {
				inString = false
			}
			continue
		}

		switch c {
		case '\'', '"':
			inString = true
			stringChar = c
			current.WriteByte(c)
			continue
		case ';':
			if beginDepth > 0 {
				current.WriteByte(c)
				continue
			}
			statements = append(statements, current.String())
			current.Reset()
			continue
		}

		current.WriteByte(c)

		if matchesKeyword(schema, i, "BEGIN") {
			beginDepth++
		} else if matchesKeyword(schema, i, "END") {
			if beginDepth > 0 {
				beginDepth--
			}
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}

func matchesKeyword(s string, end int, keyword string) bool {
	start := end - len(keyword) + 1
	if start < 0 || !strings.EqualFold(s[start:end+1], keyword) {
		return false
	}
	if start > 0 && isWordChar(s[start-1]) {
		return false
	}
	if end+1 < len(s) && isWordChar(s[end+1]) {
		return false
	}
	return true
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
