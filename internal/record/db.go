// Package record provides SQLite-based run recording: one row per run, per-tick
// aggregate stats, and the event feed. The viewer and post-run analysis read
// from here; the simulation core never does.
package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/firewatch/internal/sim"
)

// DB wraps a SQLite connection for run recording.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		swarm_size INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		final_state TEXT,
		ticks INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		unburned INTEGER NOT NULL,
		igniting INTEGER NOT NULL,
		burning INTEGER NOT NULL,
		burnt INTEGER NOT NULL,
		drones_active INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tick_stats_run ON tick_stats(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun registers a new run and returns its id.
func (db *DB) BeginRun(name string, seed int64, width, height, swarmSize int) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`INSERT INTO runs
		(id, name, seed, width, height, swarm_size, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, seed, width, height, swarmSize, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveTick appends one snapshot's aggregate stats.
func (db *DB) SaveTick(runID string, snap *sim.Snapshot, dronesActive int) error {
	_, err := db.conn.Exec(`INSERT INTO tick_stats
		(run_id, tick, unburned, igniting, burning, burnt, drones_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, snap.Tick, snap.Unburned, snap.Igniting, snap.Burning, snap.Burnt, dronesActive)
	if err != nil {
		return fmt.Errorf("insert tick %d: %w", snap.Tick, err)
	}
	return nil
}

// SaveEvents appends events to the run's feed.
func (db *DB) SaveEvents(runID string, events []sim.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		if _, err := tx.Exec(`INSERT INTO events (run_id, tick, description, category)
			VALUES (?, ?, ?, ?)`, runID, e.Tick, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// FinishRun stamps the run's terminal state and tick count.
func (db *DB) FinishRun(runID string, finalState string, ticks uint64) error {
	_, err := db.conn.Exec(`UPDATE runs SET finished_at = ?, final_state = ?, ticks = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), finalState, ticks, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RunSummary is a recorded run's top-line row.
type RunSummary struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Seed       int64  `db:"seed"`
	Width      int    `db:"width"`
	Height     int    `db:"height"`
	SwarmSize  int    `db:"swarm_size"`
	FinalState string `db:"final_state"`
	Ticks      uint64 `db:"ticks"`
}

// LoadRun reads one run's summary row back.
func (db *DB) LoadRun(runID string) (*RunSummary, error) {
	var rs RunSummary
	err := db.conn.Get(&rs, `SELECT id, name, seed, width, height, swarm_size,
		COALESCE(final_state, '') AS final_state, ticks FROM runs WHERE id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	return &rs, nil
}

// EventCount returns the number of recorded events for a run.
func (db *DB) EventCount(runID string) (int, error) {
	var n int
	if err := db.conn.Get(&n, `SELECT COUNT(*) FROM events WHERE run_id = ?`, runID); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
