// Package persistence provides SQLite-backed session storage: ledger
// snapshots, price history, the event log, and session metadata. The market
// core never touches this package; the daemon writes snapshots on its own
// cadence and restores metadata at boot.
package persistence

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/starlanes/internal/market"
	"github.com/talgya/starlanes/internal/sim"
)

// DB wraps a SQLite connection for session storage.
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
	CREATE TABLE IF NOT EXISTS ledger (
		location_id TEXT NOT NULL,
		commodity_id TEXT NOT NULL,
		price INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		pressure REAL NOT NULL,
		last_interaction_day INTEGER NOT NULL,
		depletion_day INTEGER NOT NULL,
		hover_until_day INTEGER NOT NULL,
		rival_active INTEGER NOT NULL,
		rival_end_day INTEGER NOT NULL,
		PRIMARY KEY (location_id, commodity_id)
	);

	CREATE TABLE IF NOT EXISTS price_history (
		location_id TEXT NOT NULL,
		commodity_id TEXT NOT NULL,
		day_offset INTEGER NOT NULL,
		price INTEGER NOT NULL,
		PRIMARY KEY (location_id, commodity_id, day_offset)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveLedger writes the full ledger snapshot (full replace).
func (db *DB) SaveLedger(sess *sim.Session) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM ledger"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM price_history"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO ledger
		(location_id, commodity_id, price, quantity, pressure,
		 last_interaction_day, depletion_day, hover_until_day,
		 rival_active, rival_end_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	histStmt, err := tx.Preparex(`INSERT INTO price_history
		(location_id, commodity_id, day_offset, price) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer histStmt.Close()

	for li, loc := range sess.Catalog.Locations {
		for ci, comm := range sess.Catalog.Commodities {
			e := sess.Market.Snapshot(li, ci)

			rival := 0
			if e.Rival.Active {
				rival = 1
			}
			if _, err := stmt.Exec(
				loc.ID, comm.ID, e.Price, e.Quantity, e.Pressure,
				e.LastInteractionDay, e.DepletionDay, e.HoverUntilDay,
				rival, e.Rival.EndDay,
			); err != nil {
				return fmt.Errorf("insert ledger %s/%s: %w", loc.ID, comm.ID, err)
			}

			for off, p := range sess.Market.History(li, ci) {
				if _, err := histStmt.Exec(loc.ID, comm.ID, off, p); err != nil {
					return fmt.Errorf("insert history %s/%s: %w", loc.ID, comm.ID, err)
				}
			}
		}
	}

	return tx.Commit()
}

// SaveEvents appends events to the log.
func (db *DB) SaveEvents(events []sim.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		if _, err := tx.Exec(
			"INSERT INTO events (day, category, description) VALUES (?, ?, ?)",
			e.Day, e.Category, e.Description,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in session metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO session_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM session_meta WHERE key = ?", key)
	return value, err
}

// HasSession reports whether a saved session exists.
func (db *DB) HasSession() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM session_meta"); err != nil {
		return false
	}
	return n > 0
}

// SaveSession performs a full snapshot: ledger, pending events, metadata.
func (db *DB) SaveSession(sess *sim.Session) error {
	slog.Info("saving session", "day", sess.Day())

	if err := db.SaveLedger(sess); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	if err := db.SaveEvents(sess.Events(0)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("day", fmt.Sprintf("%d", sess.Day())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("credits", fmt.Sprintf("%d", sess.Player.Credits())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("tier", fmt.Sprintf("%d", sess.Player.RevealedTier())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("session saved")
	return nil
}

// ledgerRow mirrors one saved ledger record.
type ledgerRow struct {
	LocationID         string  `db:"location_id"`
	CommodityID        string  `db:"commodity_id"`
	Price              int     `db:"price"`
	Quantity           int     `db:"quantity"`
	Pressure           float64 `db:"pressure"`
	LastInteractionDay int     `db:"last_interaction_day"`
	DepletionDay       int     `db:"depletion_day"`
	HoverUntilDay      int     `db:"hover_until_day"`
	RivalActive        int     `db:"rival_active"`
	RivalEndDay        int     `db:"rival_end_day"`
}

// LoadLedger restores the saved ledger into a freshly built session. Rows
// referencing ids the current catalog no longer defines are skipped.
func (db *DB) LoadLedger(sess *sim.Session) error {
	var rows []ledgerRow
	if err := db.conn.Select(&rows, "SELECT * FROM ledger"); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	for _, row := range rows {
		li := sess.Catalog.LocationIndex(row.LocationID)
		ci := sess.Catalog.CommodityIndex(row.CommodityID)
		if li < 0 || ci < 0 {
			slog.Warn("skipping ledger row for unknown pair",
				"location", row.LocationID, "commodity", row.CommodityID)
			continue
		}

		var history []int
		if err := db.conn.Select(&history,
			"SELECT price FROM price_history WHERE location_id = ? AND commodity_id = ? ORDER BY day_offset",
			row.LocationID, row.CommodityID,
		); err != nil {
			return fmt.Errorf("load history %s/%s: %w", row.LocationID, row.CommodityID, err)
		}

		sess.Market.RestoreEntry(li, ci, market.Entry{
			Price:              row.Price,
			Quantity:           row.Quantity,
			Pressure:           row.Pressure,
			LastInteractionDay: row.LastInteractionDay,
			DepletionDay:       row.DepletionDay,
			HoverUntilDay:      row.HoverUntilDay,
			Rival:              market.Rival{Active: row.RivalActive != 0, EndDay: row.RivalEndDay},
		}, history)
	}

	return nil
}

// RecentEvents returns the most recent N events from the log.
func (db *DB) RecentEvents(limit int) ([]sim.Event, error) {
	var events []sim.Event
	err := db.conn.Select(&events,
		"SELECT day, category, description FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}
