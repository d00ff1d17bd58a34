package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
)

// Item is a stored catalog record.
type Item struct {
	CatalogVersion string         `json:"catalogVersion"`
	Record         catalog.Record `json:"record"`
	Kind           catalog.Kind   `json:"kind"`
	ImportID       *uuid.UUID     `json:"importId,omitempty"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// UpsertItem inserts or replaces one record in a catalog version. importID
// may be uuid.Nil for records that did not come from an import.
func (q *Queries) UpsertItem(ctx context.Context, catalogVersion string, r catalog.Record, importID uuid.UUID) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record %q: %w", r.ItemID, err)
	}
	_, err = q.db.Exec(ctx, `
		INSERT INTO catalog_items (catalog_version, item_id, item_class, kind, record, import_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (catalog_version, item_id) DO UPDATE SET
			item_class = EXCLUDED.item_class,
			kind       = EXCLUDED.kind,
			record     = EXCLUDED.record,
			import_id  = EXCLUDED.import_id,
			updated_at = now()`,
		catalogVersion, r.ItemID, r.ItemClass, string(catalog.KindOf(r)), raw, toPgUUID(importID),
	)
	if err != nil {
		return fmt.Errorf("upsert item %q: %w", r.ItemID, err)
	}
	return nil
}

// GetItem returns one record or ErrNotFound.
func (q *Queries) GetItem(ctx context.Context, catalogVersion, itemID string) (*Item, error) {
	row := q.db.QueryRow(ctx, `
		SELECT catalog_version, kind, record, import_id, updated_at
		FROM catalog_items
		WHERE catalog_version = $1 AND item_id = $2`,
		catalogVersion, itemID,
	)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %q: %w", itemID, err)
	}
	return item, nil
}

// ListItemsParams filters ListItems. Empty fields do not filter.
type ListItemsParams struct {
	CatalogVersion string
	Kind           catalog.Kind
	// Search matches item id or display name, case-insensitively.
	Search string
	// Limit caps the result; zero or less returns every match.
	Limit int
}

// ListItems returns the records of a catalog version ordered by item id.
func (q *Queries) ListItems(ctx context.Context, p ListItemsParams) ([]Item, error) {
	limit := listLimit(p.Limit)
	pattern := ""
	if p.Search != "" {
		pattern = "%" + escapeLike(p.Search) + "%"
	}

	rows, err := q.db.Query(ctx, `
		SELECT catalog_version, kind, record, import_id, updated_at
		FROM catalog_items
		WHERE catalog_version = $1
		  AND ($2 = '' OR kind = $2)
		  AND ($3 = '' OR item_id ILIKE $3 OR record->>'DisplayName' ILIKE $3)
		ORDER BY item_id
		LIMIT $4`,
		p.CatalogVersion, string(p.Kind), pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// listLimit maps a non-positive limit to NULL, which Postgres reads as
// LIMIT ALL.
func listLimit(n int) *int64 {
	if n <= 0 {
		return nil
	}
	v := int64(n)
	return &v
}

// DeleteItem removes one record and reports whether it existed.
func (q *Queries) DeleteItem(ctx context.Context, catalogVersion, itemID string) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM catalog_items WHERE catalog_version = $1 AND item_id = $2`,
		catalogVersion, itemID,
	)
	if err != nil {
		return false, fmt.Errorf("delete item %q: %w", itemID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var (
		item     Item
		kind     string
		raw      []byte
		importID pgtype.UUID
	)
	if err := row.Scan(&item.CatalogVersion, &kind, &raw, &importID, &item.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &item.Record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	item.Kind = catalog.Kind(kind)
	if importID.Valid {
		id := uuid.UUID(importID.Bytes)
		item.ImportID = &id
	}
	return &item, nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
