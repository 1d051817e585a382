package storage

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"orb-scanner/src/helpers"
	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// PostgresDatabase is the multi-instance deployment backend. Same contract as
// the SQLite store, $n placeholders and a BIGSERIAL key.
type PostgresDatabase struct {
	db      *sql.DB
	connStr string
	logger  *logger.Logger
}

func NewPostgresDatabase(connStr string, log *logger.Logger) *PostgresDatabase {
	return &PostgresDatabase{connStr: connStr, logger: log}
}

// -----------------------------------------------------------------------------

func (p *PostgresDatabase) Initialize() error {
	db, err := sql.Open("postgres", p.connStr)
	if err != nil {
		return &helpers.StorageError{Op: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		return &helpers.StorageError{Op: "ping", Err: err}
	}
	p.db = db

	schema := `
	CREATE TABLE IF NOT EXISTS signals (
		id BIGSERIAL PRIMARY KEY,
		token TEXT NOT NULL,
		symbol TEXT NOT NULL,
		bias TEXT NOT NULL,
		score INTEGER NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		signal_time TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_signals_token_time ON signals(token, signal_time);
	CREATE INDEX IF NOT EXISTS idx_signals_created ON signals(created_at);
	`
	if _, err := p.db.Exec(schema); err != nil {
		return &helpers.StorageError{Op: "create schema", Err: err}
	}

	p.logger.Info("postgres storage ready")
	return nil
}

// -----------------------------------------------------------------------------

func (p *PostgresDatabase) SaveSignals(signals []models.MSignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := p.db.Begin()
	if err != nil {
		return &helpers.StorageError{Op: "begin tx", Err: err}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO signals (token, symbol, bias, score, price, signal_time)
		VALUES ($1, $2, $3, $4, $5, $6)`)
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

func (p *PostgresDatabase) CleanupOldData(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	res, err := p.db.Exec("DELETE FROM signals WHERE created_at < $1", cutoff)
	if err != nil {
		return &helpers.StorageError{Op: "cleanup", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		p.logger.Info("cleaned up %d signals older than %d days", n, retentionDays)
	}
	return nil
}

func (p *PostgresDatabase) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
