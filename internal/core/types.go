package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/pfcatalog/internal/diff"
	"github.com/JonMunkholm/pfcatalog/internal/playfab"
	"github.com/JonMunkholm/pfcatalog/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DB is the database handle the service needs.
// Satisfied by *pgxpool.Pool.
type DB interface {
	store.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Remote is the PlayFab catalog API. Satisfied by *playfab.Client.
type Remote interface {
	GetCatalogItems(ctx context.Context, catalogVersion string) ([]playfab.CatalogItem, error)
	UpdateCatalogItems(ctx context.Context, req playfab.UpdateCatalogItemsRequest) error
}

// FailedRow is a row an import could not store.
type FailedRow struct {
	Line   int    `json:"line"`             // 1-based line in the source file
	ItemID string `json:"itemId,omitempty"` // empty when the row could not be decoded
	Reason string `json:"reason"`
}

// ImportResult summarizes a finished import.
type ImportResult struct {
	ImportID       uuid.UUID     `json:"importId"`
	FileName       string        `json:"fileName"`
	CatalogVersion string        `json:"catalogVersion"`
	TotalRows      int           `json:"totalRows"`
	Imported       int           `json:"imported"`
	FailedRows     []FailedRow   `json:"failedRows,omitempty"`
	BytesRead      int64         `json:"bytesRead"`
	Duration       time.Duration `json:"duration"`
}

// Skipped is the number of rows that were not stored.
func (r *ImportResult) Skipped() int {
	return len(r.FailedRows)
}

// PushResult summarizes a push to PlayFab.
type PushResult struct {
	CatalogVersion string        `json:"catalogVersion"`
	Items          int           `json:"items"`
	SetAsDefault   bool          `json:"setAsDefault"`
	Duration       time.Duration `json:"duration"`
}

// DiffSessionInfo describes an open diff session.
type DiffSessionInfo struct {
	ID        string     `json:"id"`
	ItemID    string     `json:"itemId,omitempty"` // set for remote compares
	Rows      []diff.Row `json:"rows"`
	Differing int        `json:"differing"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// MergeResult is the outcome of finishing a diff session.
type MergeResult struct {
	SessionID string            `json:"sessionId"`
	Fields    map[string]string `json:"fields"`
	Applied   bool              `json:"applied"`
	ItemID    string            `json:"itemId,omitempty"` // set when applied
}
