package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hyperengineering/stockin/internal/types"
)

// DefaultRecentsLimit caps ListRecents when the caller supplies no limit.
const DefaultRecentsLimit = 50

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is the SQLite-backed implementation of Store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if absent) the database at dbPath,
// applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertRecent appends a research query row scoped to userID.
func (s *SQLiteStore) InsertRecent(ctx context.Context, userID, company, tab, prompt, response string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recents (user_id, company, tab, prompt, response, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, company, tab, prompt, response, now)
	if err != nil {
		return 0, fmt.Errorf("insert recent: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert recent id: %w", err)
	}
	return id, nil
}

// ListRecents returns the user's recents, newest first by insertion ID.
func (s *SQLiteStore) ListRecents(ctx context.Context, userID string, limit int) ([]types.Recent, error) {
	if limit <= 0 {
		limit = DefaultRecentsLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, company, tab, prompt, response, created_at
		FROM recents
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recents: %w", err)
	}
	defer rows.Close()

	recents := make([]types.Recent, 0)
	for rows.Next() {
		var r types.Recent
		var createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Company, &r.Tab, &r.Prompt, &r.Response, &createdAt); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		r.CreatedAt = parseTimestamp(createdAt)
		recents = append(recents, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recents: %w", err)
	}
	return recents, nil
}

// DeleteRecent removes at most one row matching both userID and id.
// Missing or foreign-owned rows are a silent no-op.
func (s *SQLiteStore) DeleteRecent(ctx context.Context, userID string, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM recents WHERE user_id = ? AND id = ?", userID, id); err != nil {
		return fmt.Errorf("delete recent: %w", err)
	}
	return nil
}

// UpsertFavourite inserts or flag-sets the row keyed on (userID, companyName).
// The conflict path touches only the flag, never created_at or company_id.
func (s *SQLiteStore) UpsertFavourite(ctx context.Context, userID string, companyID *int64, companyName string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favourites (user_id, company_id, company_name, is_favourite, created_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(user_id, company_name) DO UPDATE SET is_favourite = 1
	`, userID, nullableInt(companyID), companyName, now)
	if err != nil {
		return fmt.Errorf("upsert favourite: %w", err)
	}
	return nil
}

// ClearFavourite clears the flag for (userID, companyName), keeping the row.
func (s *SQLiteStore) ClearFavourite(ctx context.Context, userID, companyName string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE favourites SET is_favourite = 0
		WHERE user_id = ? AND company_name = ?
	`, userID, companyName); err != nil {
		return fmt.Errorf("clear favourite: %w", err)
	}
	return nil
}

// ListFavourites returns the user's flagged favourites, newest first.
func (s *SQLiteStore) ListFavourites(ctx context.Context, userID string) ([]types.FavouriteCompany, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, company_id, company_name, is_favourite, created_at
		FROM favourites
		WHERE user_id = ? AND is_favourite = 1
		ORDER BY id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favourites: %w", err)
	}
	defer rows.Close()

	favourites := make([]types.FavouriteCompany, 0)
	for rows.Next() {
		var f types.FavouriteCompany
		var companyID sql.NullInt64
		var createdAt string
		if err := rows.Scan(&f.UserID, &companyID, &f.CompanyName, &f.IsFavourite, &createdAt); err != nil {
			return nil, fmt.Errorf("scan favourite: %w", err)
		}
		if companyID.Valid {
			f.CompanyID = &companyID.Int64
		}
		f.CreatedAt = parseTimestamp(createdAt)
		favourites = append(favourites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favourites: %w", err)
	}
	return favourites, nil
}

// BackupTo writes a consistent copy of the database to path using VACUUM INTO.
func (s *SQLiteStore) BackupTo(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("vacuum into: %w", err)
	}
	return nil
}

// parseTimestamp parses a stored RFC3339 timestamp. Unparseable values yield
// the zero time rather than failing a whole listing.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
