package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Import is one recorded CSV or JSON import. Source is only filled by
// GetImportSource.
type Import struct {
	ID             uuid.UUID `json:"id"`
	FileName       string    `json:"fileName"`
	CatalogVersion string    `json:"catalogVersion"`
	RowsTotal      int       `json:"rowsTotal"`
	RowsImported   int       `json:"rowsImported"`
	RowsSkipped    int       `json:"rowsSkipped"`
	SourceSize     int       `json:"sourceSize"`
	CreatedAt      time.Time `json:"createdAt"`
}

// InsertImport records an import. The source text is stored snappy
// compressed.
func (q *Queries) InsertImport(ctx context.Context, imp Import, source []byte) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO catalog_imports
			(id, file_name, catalog_version, rows_total, rows_imported, rows_skipped, source, source_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		toPgUUID(imp.ID), imp.FileName, imp.CatalogVersion,
		imp.RowsTotal, imp.RowsImported, imp.RowsSkipped,
		snappy.Encode(nil, source), len(source),
	)
	if err != nil {
		return fmt.Errorf("insert import: %w", err)
	}
	return nil
}

// SetImportCounts updates the row counts once an import has finished.
func (q *Queries) SetImportCounts(ctx context.Context, id uuid.UUID, imported, skipped int) error {
	_, err := q.db.Exec(ctx,
		`UPDATE catalog_imports SET rows_imported = $2, rows_skipped = $3 WHERE id = $1`,
		toPgUUID(id), imported, skipped,
	)
	if err != nil {
		return fmt.Errorf("update import counts: %w", err)
	}
	return nil
}

// ListImports returns the newest imports first.
func (q *Queries) ListImports(ctx context.Context, limit int) ([]Import, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.Query(ctx, `
		SELECT id, file_name, catalog_version, rows_total, rows_imported, rows_skipped, source_size, created_at
		FROM catalog_imports
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		var (
			imp Import
			id  pgtype.UUID
		)
		if err := rows.Scan(&id, &imp.FileName, &imp.CatalogVersion, &imp.RowsTotal,
			&imp.RowsImported, &imp.RowsSkipped, &imp.SourceSize, &imp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imp.ID = uuid.UUID(id.Bytes)
		out = append(out, imp)
	}
	return out, rows.Err()
}

// GetImportSource returns the decompressed text of an import.
func (q *Queries) GetImportSource(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var compressed []byte
	err := q.db.QueryRow(ctx,
		`SELECT source FROM catalog_imports WHERE id = $1`, toPgUUID(id),
	).Scan(&compressed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import source: %w", err)
	}
	src, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress import source: %w", err)
	}
	return src, nil
}

// PruneImports deletes imports created before cutoff. Items keep their data;
// their import_id is cleared by the foreign key.
func (q *Queries) PruneImports(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM catalog_imports WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune imports: %w", err)
	}
	return tag.RowsAffected(), nil
}
