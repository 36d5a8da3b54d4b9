package store

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS visitors (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			hashed_ip  TEXT NOT NULL,
			user_agent TEXT,
			path       TEXT,
			lang       TEXT,
			timestamp  DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_visitors_timestamp ON visitors(timestamp);

		CREATE TABLE IF NOT EXISTS reveals (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			view_id   TEXT NOT NULL,
			section   TEXT NOT NULL,
			lang      TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(view_id, section)
		);

		CREATE INDEX IF NOT EXISTS idx_reveals_section ON reveals(section);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating analytics tables: %w", err)
	}

	return nil
}
