package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"orb-scanner/src/helpers"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// ----------------------------------------------------------------------------------
// SQLite persistence for emitted signals. The default backend; a single file,
// WAL mode, batch inserts inside one transaction per broadcast.
// ----------------------------------------------------------------------------------

type SQLiteDatabase struct {
	db     *sql.DB
	path   string
	logger *logger.Logger
}

func NewSQLiteDatabase(path string, log *logger.Logger) *SQLiteDatabase {
	return &SQLiteDatabase{path: path, logger: log}
}

// -----------------------------------------------------------------------------

func (s *SQLiteDatabase) Initialize() error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return &helpers.StorageError{Op: "open", Err: err}
	}
	s.db = db

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return &helpers.StorageError{Op: "pragma", Err: err}
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL,
		symbol TEXT NOT NULL,
		bias TEXT NOT NULL,
		score INTEGER NOT NULL,
		price REAL NOT NULL,
		signal_time TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_signals_token_time ON signals(token, signal_time);
	CREATE INDEX IF NOT EXISTS idx_signals_created ON signals(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return &helpers.StorageError{Op: "create schema", Err: err}
	}

	s.logger.Info("sqlite storage ready at %s", s.path)
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLiteDatabase) SaveSignals(signals []models.MSignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &helpers.StorageError{Op: "begin tx", Err: err}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO signals (token, symbol, bias, score, price, signal_time)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return &helpers.StorageError{Op: "prepare insert", Err: err}
	}
	defer stmt.Close()

	for _, sig := range signals {
		if _, err := stmt.Exec(sig.Token, sig.Symbol, string(sig.Bias), sig.Score, sig.Price, sig.At); err != nil {
			tx.Rollback()
			return &helpers.StorageError{Op: "insert signal", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &helpers.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLiteDatabase) CleanupOldData(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	res, err := s.db.Exec("DELETE FROM signals WHERE created_at < ?", cutoff)
	if err != nil {
		return &helpers.StorageError{Op: "cleanup", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Info("cleaned up %d signals older than %d days", n, retentionDays)
	}
	return nil
}

// -----------------------------------------------------------------------------

// RecentSignals returns the newest rows, for the diagnostics endpoint.
func (s *SQLiteDatabase) RecentSignals(limit int) ([]models.MSignal, error) {
	rows, err := s.db.Query(`
		SELECT token, symbol, bias, score, price, signal_time
		FROM signals ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, &helpers.StorageError{Op: "query recent", Err: err}
	}
	defer rows.Close()

	var out []models.MSignal
	for rows.Next() {
		var sig models.MSignal
		var bias string
		if err := rows.Scan(&sig.Token, &sig.Symbol, &bias, &sig.Score, &sig.Price, &sig.At); err != nil {
			return nil, &helpers.StorageError{Op: "scan recent", Err: err}
		}
		sig.Bias = models.Bias(bias)
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *SQLiteDatabase) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
