package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'applicant',
		password_hash TEXT NOT NULL,
		reset_token_hash TEXT,
		reset_token_expires DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT NOT NULL,
		email TEXT,
		address TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		formatted_address TEXT,
		city TEXT,
		state TEXT,
		zipcode TEXT,
		country TEXT,
		company TEXT NOT NULL,
		-- Store the industry tag list as JSON text
		industries_json TEXT NOT NULL,
		job_type TEXT NOT NULL,
		min_education TEXT NOT NULL,
		positions INTEGER NOT NULL DEFAULT 1,
		experience TEXT NOT NULL,
		salary INTEGER NOT NULL,
		posting_date DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_date DATETIME,
		user_id TEXT NOT NULL REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_slug ON jobs(slug);
	CREATE INDEX IF NOT EXISTS idx_jobs_user ON jobs(user_id);

	CREATE TABLE IF NOT EXISTS applications (
		id TEXT NOT NULL PRIMARY KEY,
		job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id),
		resume_file TEXT NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(job_id, user_id)
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
