package store

import (
	"context"

	"github.com/hyperengineering/stockin/internal/types"
)

// Store defines the tenant-scoped persistence contract. Every operation is
// parameterized by the owning user ID and never touches rows outside it.
type Store interface {
	// InsertRecent appends a research query row and returns its assigned ID.
	InsertRecent(ctx context.Context, userID, company, tab, prompt, response string) (int64, error)

	// ListRecents returns up to limit rows for the user, newest first
	// (descending insertion ID). A non-positive limit applies DefaultRecentsLimit.
	ListRecents(ctx context.Context, userID string, limit int) ([]types.Recent, error)

	// DeleteRecent removes at most one row matching (userID, id). Deleting a
	// missing or foreign-owned row is a silent no-op: delete means
	// "ensure absence", not "assert presence".
	DeleteRecent(ctx context.Context, userID string, id int64) error

	// UpsertFavourite inserts or updates the row keyed on (userID, companyName),
	// setting the favourite flag. The conflict path touches only the flag;
	// created_at and company_id are set on insert only.
	UpsertFavourite(ctx context.Context, userID string, companyID *int64, companyName string) error

	// ClearFavourite clears the favourite flag for (userID, companyName).
	// The row is kept; clearing a missing row is a no-op.
	ClearFavourite(ctx context.Context, userID, companyName string) error

	// ListFavourites returns the user's flagged favourites, newest first.
	ListFavourites(ctx context.Context, userID string) ([]types.FavouriteCompany, error)

	// BackupTo writes a consistent copy of the database to path.
	BackupTo(ctx context.Context, path string) error

	Close() error
}
