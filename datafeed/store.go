package datafeed

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/traderforge/fxbot/market"
)

// Schema holds one row per bar, keyed by (symbol, timeframe, ts). The
// timestamp is the uniqueness and ordering key within a series.
const Schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	ts DATETIME NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, timeframe, ts)
);

CREATE INDEX IF NOT EXISTS idx_bars_series ON bars(symbol, timeframe, ts);
`

// Store persists bar series in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the bar store at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open bar store: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bar schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns the full cached series for (symbol, timeframe) ordered by
// timestamp. A missing series is an empty slice, not an error.
func (s *Store) Load(symbol string, tf market.Timeframe) ([]market.Candle, error) {
	rows, err := s.db.Query(`
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timeframe = ?
		ORDER BY ts ASC`, symbol, string(tf))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Candle
	for rows.Next() {
		var c market.Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		c.Time = c.Time.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestTime returns the newest cached timestamp for the series, or ok=false
// when nothing is cached.
func (s *Store) LatestTime(symbol string, tf market.Timeframe) (time.Time, bool, error) {
	row := s.db.QueryRow(`
		SELECT ts FROM bars
		WHERE symbol = ? AND timeframe = ?
		ORDER BY ts DESC LIMIT 1`, symbol, string(tf))

	var ts time.Time
	if err := row.Scan(&ts); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return ts.UTC(), true, nil
}

// Save upserts the full series in one transaction. Re-saving identical bars
// leaves the store content unchanged, which is what makes repeated cache
// updates idempotent.
func (s *Store) Save(symbol string, tf market.Timeframe, candles []market.Candle) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars
		(symbol, timeframe, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(symbol, string(tf), c.Time.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
