package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists answered queries to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets external readers query while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS average_queries (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			ticker        TEXT NOT NULL,
			minutes       INTEGER NOT NULL,
			average_price REAL,
			samples       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_average_ts ON average_queries(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_average_ticker ON average_queries(ticker)`,

		`CREATE TABLE IF NOT EXISTS correlation_queries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			ticker_a    TEXT NOT NULL,
			ticker_b    TEXT NOT NULL,
			minutes     INTEGER NOT NULL,
			correlation REAL,
			average_a   REAL,
			average_b   REAL,
			samples_a   INTEGER,
			samples_b   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_correlation_ts ON correlation_queries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAverage(q *AverageQuery) error {
	if q == nil || q.Stats == nil {
		return fmt.Errorf("record average: empty query")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO average_queries
		(timestamp, ticker, minutes, average_price, samples)
		VALUES (?,?,?,?,?)`,
		answeredAt(q.Answered), q.Ticker, q.Minutes,
		q.Stats.AveragePrice, len(q.Stats.PriceHistory),
	)
	return err
}

func (r *SQLiteRecorder) RecordCorrelation(q *CorrelationQuery) error {
	if q == nil || q.Result == nil {
		return fmt.Errorf("record correlation: empty query")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	res := q.Result
	a, b := res.Stocks[res.TickerA], res.Stocks[res.TickerB]
	_, err := r.db.Exec(`INSERT INTO correlation_queries
		(timestamp, ticker_a, ticker_b, minutes, correlation, average_a, average_b, samples_a, samples_b)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		answeredAt(q.Answered), res.TickerA, res.TickerB, q.Minutes, res.Correlation,
		a.AveragePrice, b.AveragePrice, len(a.PriceHistory), len(b.PriceHistory),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func answeredAt(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Unix()
}
