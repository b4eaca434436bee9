package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type cacheWriteRequest struct {
	path    string
	size    int64
	modTime time.Time
	date    ResolvedDate
}

// Cache remembers metadata-sourced dates keyed by path, size and mtime
type Cache struct {
	db     *sql.DB
	log    logrus.FieldLogger
	writes chan cacheWriteRequest
	writer sync.WaitGroup
}

// OpenCache opens or creates the cache database under dataDir. Write
// failures are reported to log; nil discards them.
func OpenCache(dataDir string, log logrus.FieldLogger) (*Cache, error) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create date cache dir %s: %w", dataDir, err)
	}

	dbPath := filepath.Join(dataDir, "cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open date cache %s: %w", dbPath, err)
	}

	setup := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		`CREATE TABLE IF NOT EXISTS dates (
			path         TEXT PRIMARY KEY,
			size         INTEGER NOT NULL,
			mod_time     INTEGER NOT NULL,
			taken        INTEGER NOT NULL,
			source       INTEGER NOT NULL,
			processed_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range setup {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("prepare date cache: %w", err)
		}
	}

	c := &Cache{db: db, log: log, writes: make(chan cacheWriteRequest, 1000)}

	// All inserts go through one goroutine
	c.writer.Add(1)
	go func() {
		defer c.writer.Done()
		for req := range c.writes {
			c.writeToDatabase(req)
		}
	}()
	return c, nil
}

// Close flushes pending writes and closes the database
func (c *Cache) Close() error {
	if c.writes != nil {
		close(c.writes)
		c.writer.Wait()
		c.writes = nil
	}
	return c.db.Close()
}

// Get returns the cached date if the entry still matches size and mtime
func (c *Cache) Get(path string, size int64, modTime time.Time) (ResolvedDate, bool) {
	var taken int64
	var source int

	err := c.db.QueryRow(`
		SELECT taken, source
		FROM dates
		WHERE path = ? AND size = ? AND mod_time = ?
	`, path, size, modTime.Unix()).Scan(&taken, &source)
	if err != nil {
		return ResolvedDate{}, false
	}
	if DateSource(source) != SourceExifOriginal && DateSource(source) != SourceXmpMetadataDate {
		return ResolvedDate{}, false
	}

	return newResolvedDate(time.Unix(taken, 0).UTC(), DateSource(source)), true
}

// Put queues a write; it never blocks and drops the entry if the queue is full
func (c *Cache) Put(path string, size int64, modTime time.Time, date ResolvedDate) error {
	select {
	case c.writes <- cacheWriteRequest{path: path, size: size, modTime: modTime, date: date}:
		return nil
	default:
		return errors.New("date cache queue full")
	}
}

func (c *Cache) writeToDatabase(req cacheWriteRequest) {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO dates
		(path, size, mod_time, taken, source, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, req.path, req.size, req.modTime.Unix(), req.date.Time().Unix(), int(req.date.Source), time.Now().Unix())

	if err != nil {
		// Cache is best-effort
		c.log.WithField("file", req.path).WithError(err).Warn("Cache write failed")
	}
}

// GetStats returns the number of cached entries per date source
func (c *Cache) GetStats() (total, exif, xmp int64) {
	c.db.QueryRow("SELECT COUNT(*) FROM dates").Scan(&total)
	c.db.QueryRow("SELECT COUNT(*) FROM dates WHERE source = ?", int(SourceExifOriginal)).Scan(&exif)
	c.db.QueryRow("SELECT COUNT(*) FROM dates WHERE source = ?", int(SourceXmpMetadataDate)).Scan(&xmp)
	return
}

// PruneDeleted removes entries under root whose path is not in validPaths.
// Entries outside root, or more than maxDepth directories below it, were
// not walked and are left alone.
func (c *Cache) PruneDeleted(root string, maxDepth int, validPaths map[string]bool) (int64, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}
	prefix := strings.TrimSuffix(root, string(filepath.Separator)) + string(filepath.Separator)

	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// substr avoids LIKE wildcards in file names
	rows, err := tx.Query("SELECT path FROM dates WHERE substr(path, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var path string
		if rows.Scan(&path) != nil || validPaths[path] {
			continue
		}
		if strings.Count(path[len(prefix):], string(filepath.Separator)) > maxDepth {
			continue
		}
		stale = append(stale, path)
	}
	rows.Close()

	var pruned int64
	for _, path := range stale {
		res, err := tx.Exec("DELETE FROM dates WHERE path = ?", path)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		pruned += n
	}

	if pruned == 0 {
		return 0, nil
	}
	return pruned, tx.Commit()
}
