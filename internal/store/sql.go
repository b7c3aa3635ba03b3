package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/Skufu/hearttriage/internal/triage"
)

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	Name      string
	Schema    string
	Insert    string
	SelectAll string
}

var SQLiteDialect = Dialect{
	Name: "sqlite",
	Schema: `
	CREATE TABLE IF NOT EXISTS patients (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		risk_level INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_patients_id ON patients(id);
	`,
	Insert:    `INSERT INTO patients (id, risk_level, created_at, payload) VALUES (?, ?, ?, ?)`,
	SelectAll: `SELECT payload FROM patients ORDER BY seq`,
}

var PostgresDialect = Dialect{
	Name: "postgres",
	Schema: `
	CREATE TABLE IF NOT EXISTS patients (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL,
		risk_level INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		payload JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_patients_id ON patients(id);
	`,
	Insert:    `INSERT INTO patients (id, risk_level, created_at, payload) VALUES ($1, $2, $3, $4)`,
	SelectAll: `SELECT payload FROM patients ORDER BY seq`,
}

// SQLStore persists results in a single patients table. Ordering comes from
// the auto-increment seq column; ids are not unique.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	closers []func()
}

// NewSQLStore wraps an open database and creates the schema if needed.
func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if _, err := db.Exec(dialect.Schema); err != nil {
		return nil, fmt.Errorf("create %s schema: %w", dialect.Name, err)
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s, err := NewSQLStore(db, SQLiteDialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects a pgx pool and exposes it through database/sql.
func OpenPostgres(ctx context.Context, url string) (*SQLStore, error) {
	pool, err := connectDB(ctx, url)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	s, err := NewSQLStore(db, PostgresDialect)
	if err != nil {
		db.Close()
		pool.Close()
		return nil, err
	}
	s.closers = append(s.closers, pool.Close)
	return s, nil
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func (s *SQLStore) Append(ctx context.Context, result triage.PredictionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.dialect.Insert,
		result.ID,
		int(result.Tier),
		result.Timestamp.UTC(),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert patient %s: %w", result.ID, err)
	}
	return nil
}

func (s *SQLStore) All(ctx context.Context) ([]triage.PredictionResult, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.SelectAll)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	out := []triage.PredictionResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		var r triage.PredictionResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode patient: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	err := s.db.Close()
	for _, c := range s.closers {
		c()
	}
	return err
}
