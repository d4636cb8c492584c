package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/scout/internal/handle"
)

// Catalog persists index name bindings and their swap history in SQLite.
// It implements handle.Locator; unbound names locate to themselves.
type Catalog struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Binding is the current generation of one index name.
type Binding struct {
	Name    string
	Ref     string
	BoundAt time.Time
}

// Swap is one recorded rebinding.
type Swap struct {
	Name      string
	Ref       string
	Previous  string
	SwappedAt time.Time
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS bindings (
	name     TEXT PRIMARY KEY,
	ref      TEXT NOT NULL,
	bound_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS swaps (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	ref        TEXT NOT NULL,
	previous   TEXT NOT NULL DEFAULT '',
	swapped_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_swaps_name ON swaps(name, id);
`

// OpenCatalog opens or creates the catalog at path.
// An empty path opens an in-memory catalog.
func OpenCatalog(path string) (*Catalog, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	// Single connection: an in-memory database is per connection, and one
	// writer avoids lock contention on disk.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	if path != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return &Catalog{db: db, path: path, now: time.Now}, nil
}

// Locate implements handle.Locator.
func (c *Catalog) Locate(name string) (string, error) {
	var ref string
	err := c.db.QueryRow(`SELECT ref FROM bindings WHERE name = ?`, name).Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return name, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to locate %s: %w", name, err)
	}
	return ref, nil
}

// Bind implements handle.Locator. All bindings commit in one transaction.
func (c *Catalog) Bind(refs map[string]string) (err error) {
	if len(refs) == 0 {
		return nil
	}
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := c.now().UnixNano()
	for _, name := range names {
		var previous string
		err = tx.QueryRow(`SELECT ref FROM bindings WHERE name = ?`, name).Scan(&previous)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read binding %s: %w", name, err)
		}
		if _, err = tx.Exec(`
			INSERT INTO bindings (name, ref, bound_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET ref = excluded.ref, bound_at = excluded.bound_at`,
			name, refs[name], now); err != nil {
			return fmt.Errorf("failed to bind %s: %w", name, err)
		}
		if _, err = tx.Exec(`INSERT INTO swaps (name, ref, previous, swapped_at) VALUES (?, ?, ?, ?)`,
			name, refs[name], previous, now); err != nil {
			return fmt.Errorf("failed to record swap of %s: %w", name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bindings: %w", err)
	}
	return nil
}

// Bindings returns every binding ordered by name.
func (c *Catalog) Bindings() ([]Binding, error) {
	rows, err := c.db.Query(`SELECT name, ref, bound_at FROM bindings ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	defer rows.Close()

	var out []Binding
	for rows.Next() {
		var b Binding
		var at int64
		if err := rows.Scan(&b.Name, &b.Ref, &at); err != nil {
			return nil, fmt.Errorf("failed to scan binding: %w", err)
		}
		b.BoundAt = time.Unix(0, at)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Refs returns the bound reference of every name.
func (c *Catalog) Refs() ([]string, error) {
	bindings, err := c.Bindings()
	if err != nil {
		return nil, err
	}
	refs := make([]string, len(bindings))
	for i, b := range bindings {
		refs[i] = b.Ref
	}
	return refs, nil
}

// History returns up to limit swaps of name, newest first.
// An empty name returns swaps of every index.
func (c *Catalog) History(name string, limit int) ([]Swap, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT name, ref, previous, swapped_at FROM swaps`
	args := []any{}
	if name != "" {
		q += ` WHERE name = ?`
		args = append(args, name)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read swap history: %w", err)
	}
	defer rows.Close()

	var out []Swap
	for rows.Next() {
		var s Swap
		var at int64
		if err := rows.Scan(&s.Name, &s.Ref, &s.Previous, &at); err != nil {
			return nil, fmt.Errorf("failed to scan swap: %w", err)
		}
		s.SwappedAt = time.Unix(0, at)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

var _ handle.Locator = (*Catalog)(nil)
