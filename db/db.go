package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
// An empty connStr falls back to DATABASE_URL and then to DB_* variables.
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	if connStr == "" {
		connStr = connStringFromEnv()
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func connStringFromEnv() string {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		return connStr
	}

	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "provider_scraper")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "provider_scraper")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scrape_runs (
			id SERIAL PRIMARY KEY,
			listing_url TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
			pages_visited INTEGER NOT NULL DEFAULT 0,
			pages_skipped INTEGER NOT NULL DEFAULT 0,
			entries_visited INTEGER NOT NULL DEFAULT 0,
			entries_skipped INTEGER NOT NULL DEFAULT 0,
			profiles_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT valid_status CHECK (status IN ('in_progress', 'done', 'failed'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scrape_runs table: %w", err)
	}

	// visit_order keeps the visitation order; the same profile link may repeat within a run
	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			id SERIAL PRIMARY KEY,
			run_id INTEGER NOT NULL REFERENCES scrape_runs(id) ON DELETE CASCADE,
			visit_order INTEGER NOT NULL,
			profile_link TEXT NOT NULL,
			name TEXT,
			profession TEXT,
			total_ratings INTEGER NOT NULL DEFAULT 0,
			conditions_treated TEXT[] NOT NULL DEFAULT '{}',
			procedures_performed TEXT[] NOT NULL DEFAULT '{}',
			document JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (run_id, visit_order)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_profiles_profile_link ON profiles(profile_link)`)
	if err != nil {
		log.Printf("Warning: Failed to create index on profiles.profile_link: %v\n", err)
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_scrape_runs_status ON scrape_runs(status)`)
	if err != nil {
		log.Printf("Warning: Failed to create index on scrape_runs.status: %v\n", err)
	}

	log.Println("Database schema initialized successfully")
	return nil
}
