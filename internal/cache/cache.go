// Package cache stores generation artifacts keyed by input content so that
// unchanged packages are not re-expanded.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite"
)

// Version participates in cache keys so that artifacts produced by an older
// generator are never reused.
const Version = "hostbridge/1"

// ErrMiss is returned by Get when no artifact matches the key.
var ErrMiss = errors.New("cache miss")

// Cache is a sqlite-backed artifact store.
type Cache struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the cache database at dbPath.
func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		key TEXT PRIMARY KEY,
		code TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Key hashes the contents of the given source files together with the
// generator version and the effective generation options. File order does
// not affect the result; a change to any option invalidates the key, so a
// reconfigured project never hits an artifact generated under old settings.
func Key(files []string, options ...string) (string, error) {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	h := sha256.New()
	io.WriteString(h, Version)
	for _, opt := range options {
		io.WriteString(h, "\x01"+opt)
	}
	for _, name := range sorted {
		f, err := os.Open(name)
		if err != nil {
			return "", fmt.Errorf("hashing %s: %w", name, err)
		}
		io.WriteString(h, "\x00"+filepath.Base(name)+"\x00")
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("hashing %s: %w", name, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get retrieves the artifact stored under key, or ErrMiss.
func (c *Cache) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var code string
	err := c.db.QueryRow("SELECT code FROM artifacts WHERE key = ?", key).Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("querying artifact: %w", err)
	}
	return code, nil
}

// Put stores an artifact under key, replacing any previous entry.
func (c *Cache) Put(key, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO artifacts (key, code) VALUES (?, ?)",
		key, code,
	)
	if err != nil {
		return fmt.Errorf("saving artifact: %w", err)
	}
	return nil
}
