// Package store keeps privacy-conscious visitor analytics in SQLite.
package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Visitor is one tracked page request. The IP is stored hashed.
type Visitor struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Lang      string    `json:"lang"`
	Timestamp time.Time `json:"timestamp"`
}

// SectionReach counts how many page views scrolled a section into view.
type SectionReach struct {
	Section string `json:"section"`
	Views   int64  `json:"views"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalVisitors    int64            `json:"total_visitors"`
	UniqueVisitors   int64            `json:"unique_visitors"`
	VisitorsToday    int64            `json:"visitors_today"`
	VisitorsThisWeek int64            `json:"visitors_this_week"`
	ByLanguage       map[string]int64 `json:"by_language"`
	Reach            []SectionReach   `json:"reach"`
	RecentVisitors   []Visitor        `json:"recent_visitors"`
}

// SQLite stores visitors and section reveals.
type SQLite struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

// New opens the database at path and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and avoids
	// SQLITE_BUSY from concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	salt, err := randomHex(32)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("generating hashing salt: %w", err)
	}

	s := &SQLite{db: db, salt: salt, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// HashIP hashes ip with the per-process salt. The result is stable for the
// life of the process so unique visitors can be counted.
func (s *SQLite) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// RecordVisit stores a page request.
func (s *SQLite) RecordVisit(ctx context.Context, ip, userAgent, path, lang string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, lang, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, s.HashIP(ip), userAgent, path, lang, s.now().UTC())
	if err != nil {
		return fmt.Errorf("inserting visitor: %w", err)
	}
	return nil
}

// RecordReveal stores that a section was scrolled into view in a page view.
// Repeated reveals of the same section in the same view are ignored.
func (s *SQLite) RecordReveal(ctx context.Context, viewID, section, lang string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reveals (view_id, section, lang, timestamp)
		VALUES (?, ?, ?, ?)
	`, viewID, section, lang, s.now().UTC())
	if err != nil {
		return fmt.Errorf("inserting reveal: %w", err)
	}
	return nil
}

// RecentVisitors returns the latest visitors, newest first.
func (s *SQLite) RecentVisitors(ctx context.Context, limit int) ([]Visitor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), COALESCE(lang, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying visitors: %w", err)
	}
	defer rows.Close()

	var visitors []Visitor
	for rows.Next() {
		var v Visitor
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Lang, &v.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning visitor: %w", err)
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

// Stats returns the dashboard summary.
func (s *SQLite) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByLanguage: make(map[string]int64)}
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{startOfDay}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{now.Add(-7 * 24 * time.Hour)}},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("counting visitors: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(lang, ''), COUNT(*) FROM visitors GROUP BY lang
	`)
	if err != nil {
		return nil, fmt.Errorf("querying languages: %w", err)
	}
	for rows.Next() {
		var lang string
		var n int64
		if err := rows.Scan(&lang, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning language: %w", err)
		}
		stats.ByLanguage[lang] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT section, COUNT(DISTINCT view_id) AS views
		FROM reveals
		GROUP BY section
		ORDER BY views DESC, section
	`)
	if err != nil {
		return nil, fmt.Errorf("querying reach: %w", err)
	}
	for rows.Next() {
		var r SectionReach
		if err := rows.Scan(&r.Section, &r.Views); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning reach: %w", err)
		}
		stats.Reach = append(stats.Reach, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.RecentVisitors, err = s.RecentVisitors(ctx, 10)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CleanupOlderThan deletes analytics older than maxAge and returns the number
// of visitor and reveal rows removed.
func (s *SQLite) CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-maxAge)
	var total int64
	for _, table := range []string{"visitors", "reveals"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return total, fmt.Errorf("cleaning %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
