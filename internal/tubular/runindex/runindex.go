// Package runindex maintains a secondary SQLite index of completed runs
// and their per-tick summaries, for querying run history without
// replaying the compressed tick log. The log written by observelog
// remains the source of truth; this index may silently drop entries
// under backpressure.
package runindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// TickRow is one completed-tick record to index.
type TickRow struct {
	Tick         uint64
	LiveDroplets int
	Collisions   int
	BytesWritten int
}

// Index is an async SQLite writer: WriteTick enqueues and returns
// immediately, and a single background goroutine serializes all writes.
type Index struct {
	db     *sql.DB
	runID  string
	ch     chan TickRow
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool
}

// Open creates (or reuses) the SQLite database at path and registers a new
// run row under a fresh UUID, returned as RunID.
func Open(path, programPath string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	runID := uuid.NewString()
	if _, err := db.Exec(
		`INSERT INTO runs(id, program_path, started_at) VALUES(?,?,?)`,
		runID, programPath, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &Index{db: db, runID: runID, ch: make(chan TickRow, 65536)}
	idx.wg.Add(1)
	go idx.loop()
	return idx, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			program_path TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			stop_reason TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			live_droplets INTEGER NOT NULL,
			collisions INTEGER NOT NULL,
			bytes_written INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_run ON ticks(run_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RunID returns the UUID assigned to this run.
func (idx *Index) RunID() string { return idx.runID }

// WriteTick enqueues one tick's summary for indexing. It never blocks the
// caller: under backpressure the row is silently dropped.
func (idx *Index) WriteTick(row TickRow) {
	if idx == nil || idx.closed.Load() {
		return
	}
	select {
	case idx.ch <- row:
	default:
	}
}

// Finish records the run's stop reason and closes the index.
func (idx *Index) Finish(stopReason string) error {
	var err error
	idx.once.Do(func() {
		idx.closed.Store(true)
		close(idx.ch)
		idx.wg.Wait()
		_, err = idx.db.Exec(
			`UPDATE runs SET finished_at=?, stop_reason=? WHERE id=?`,
			time.Now().UTC().Format(time.RFC3339Nano), stopReason, idx.runID,
		)
		if cerr := idx.db.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

func (idx *Index) loop() {
	defer idx.wg.Done()

	insert, err := idx.db.Prepare(
		`INSERT OR REPLACE INTO ticks(run_id,tick,live_droplets,collisions,bytes_written) VALUES(?,?,?,?,?)`,
	)
	if err != nil {
		return
	}
	defer insert.Close()

	for row := range idx.ch {
		_, _ = insert.Exec(idx.runID, row.Tick, row.LiveDroplets, row.Collisions, row.BytesWritten)
	}
}
