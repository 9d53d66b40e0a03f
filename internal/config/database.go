package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

var schemaStatements = []struct {
	name string
	sql  string
}{
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		role TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT now(),
		updated_at TIMESTAMP DEFAULT now()
	);`},
	{"children", `
	CREATE TABLE IF NOT EXISTS children (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		birth_date DATE NOT NULL,
		gender SMALLINT NOT NULL CHECK (gender IN (0, 1)),
		note TEXT,
		guardian_id UUID NOT NULL,
		growth_velocity_result JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMP DEFAULT now(),
		updated_at TIMESTAMP DEFAULT now()
	);`},
	{"growth_data", `
	CREATE TABLE IF NOT EXISTS growth_data (
		id UUID PRIMARY KEY,
		child_id UUID NOT NULL REFERENCES children(id) ON DELETE CASCADE,
		input_date DATE NOT NULL,
		height NUMERIC NOT NULL CHECK (height > 0),
		weight NUMERIC NOT NULL CHECK (weight > 0),
		head_circumference NUMERIC,
		arm_circumference NUMERIC,
		bmi NUMERIC NOT NULL,
		growth_result JSONB NOT NULL,
		created_by UUID NOT NULL,
		is_deleted BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP DEFAULT now(),
		updated_at TIMESTAMP DEFAULT now()
	);`},
	{"growth_metric_for_age", `
	CREATE TABLE IF NOT EXISTS growth_metric_for_age (
		id BIGSERIAL PRIMARY KEY,
		gender SMALLINT NOT NULL,
		type TEXT NOT NULL,
		age_in_days NUMERIC NOT NULL,
		age_in_months NUMERIC NOT NULL,
		percentiles JSONB NOT NULL,
		UNIQUE (gender, type, age_in_days, age_in_months)
	);`},
	{"growth_velocity_standard", `
	CREATE TABLE IF NOT EXISTS growth_velocity_standard (
		id BIGSERIAL PRIMARY KEY,
		position INTEGER NOT NULL,
		gender SMALLINT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		first_in_months NUMERIC NOT NULL,
		first_in_weeks NUMERIC NOT NULL,
		first_in_days INTEGER NOT NULL,
		last_in_months NUMERIC NOT NULL,
		last_in_weeks NUMERIC NOT NULL,
		last_in_days INTEGER NOT NULL,
		percentiles JSONB NOT NULL,
		UNIQUE (gender, type, first_in_days, last_in_days)
	);`},
	{"weight_for_length", `
	CREATE TABLE IF NOT EXISTS weight_for_length (
		id BIGSERIAL PRIMARY KEY,
		gender SMALLINT NOT NULL,
		height NUMERIC(5,1) NOT NULL,
		percentiles JSONB NOT NULL,
		UNIQUE (gender, height)
	);`},
}

var schemaIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_children_guardian_id ON children(guardian_id)",
	"CREATE INDEX IF NOT EXISTS idx_growth_data_child_id ON growth_data(child_id)",
	"CREATE INDEX IF NOT EXISTS idx_growth_data_input_date ON growth_data(input_date)",
	"CREATE INDEX IF NOT EXISTS idx_growth_metric_for_age_lookup ON growth_metric_for_age(gender, age_in_days, age_in_months)",
}

// InitDatabase creates the schema if it does not exist
// Set DROP_TABLES_ON_STARTUP=true to drop the measurement tables first; reference tables are kept
func InitDatabase(db *sql.DB) error {
	if os.Getenv("DROP_TABLES_ON_STARTUP") == "true" {
		log.Println("Dropping existing tables (DROP_TABLES_ON_STARTUP=true)...")
		for _, table := range []string{"growth_data", "children", "users"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table + " CASCADE"); err != nil {
				log.Printf("Warning: Failed to drop %s table: %v", table, err)
			}
		}
	}

	for _, stmt := range schemaStatements {
		log.Printf("Creating %s table...", stmt.name)
		if _, err := db.Exec(stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.name, err)
		}
	}

	// One live measurement per child per day
	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_growth_data_child_date
		ON growth_data(child_id, input_date) WHERE NOT is_deleted`); err != nil {
		return fmt.Errorf("failed to create growth data date index: %w", err)
	}

	for _, indexSQL := range schemaIndexes {
		if _, err := db.Exec(indexSQL); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
		}
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// ConnectDatabase establishes a connection to PostgreSQL with retry logic
func ConnectDatabase(databaseURL string, maxRetries int, retryDelay time.Duration) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			log.Printf("Failed to open database connection (attempt %d/%d): %v", i+1, maxRetries, err)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
		}

		if err = db.Ping(); err != nil {
			log.Printf("Failed to ping database (attempt %d/%d): %v", i+1, maxRetries, err)
			db.Close()
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", maxRetries, err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		log.Println("Database connection established successfully")
		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
