package database

import (
	"database/sql"
	"fmt"
)

// Migrate applies the schema. Statements are idempotent so the server can
// run this on every boot.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT,
			username TEXT NOT NULL,
			avatar_url TEXT,
			role TEXT NOT NULL DEFAULT 'READER'
				CHECK (role IN ('READER','CREATOR','ADMIN')),
			google_id TEXT UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE
		);`,
		`CREATE TABLE IF NOT EXISTS comics (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			cover_image_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'ONGOING'
				CHECK (status IN ('ONGOING','COMPLETED')),
			visibility TEXT NOT NULL DEFAULT 'PUBLIC'
				CHECK (visibility IN ('PRIVATE','PUBLIC')),
			author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS comic_categories (
			comic_id TEXT NOT NULL REFERENCES comics(id) ON DELETE CASCADE,
			category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			PRIMARY KEY (comic_id, category_id)
		);`,
		`CREATE TABLE IF NOT EXISTS chapters (
			id TEXT PRIMARY KEY,
			comic_id TEXT NOT NULL REFERENCES comics(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			chapter_number REAL NOT NULL,
			pdf_url TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chapters_comic
			ON chapters(comic_id, chapter_number);`,
		`CREATE TABLE IF NOT EXISTS library_entries (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			comic_id TEXT NOT NULL REFERENCES comics(id) ON DELETE CASCADE,
			is_favorited INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'NOT_STARTED'
				CHECK (status IN ('NOT_STARTED','READING','FINISHED')),
			last_read_chapter_id TEXT REFERENCES chapters(id) ON DELETE SET NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, comic_id)
		);`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			comic_id TEXT NOT NULL REFERENCES comics(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			rating INTEGER NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_comic
			ON reviews(comic_id, created_at);`,
	}

	for i, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate stmt %d: %w", i, err)
		}
	}
	return nil
}
