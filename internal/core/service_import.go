package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
	"github.com/JonMunkholm/pfcatalog/internal/logging"
	"github.com/JonMunkholm/pfcatalog/internal/store"
	"github.com/google/uuid"
)

// ContextCheckInterval is how many rows are stored between cancellation checks.
const ContextCheckInterval = 100

type numberedRecord struct {
	line   int
	record catalog.Record
}

// ImportCSV decodes a catalog CSV and upserts its records into the catalog
// version. Rows that are too short or fail validation are reported in
// FailedRows and the rest are stored. size is the expected length of r, or
// 0 when unknown.
func (s *Service) ImportCSV(ctx context.Context, fileName string, r io.Reader, size int64) (*ImportResult, error) {
	if size > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, s.opts.MaxFileSize)
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.ImportTimeout)
	defer cancel()
	start := s.now()

	limited := &io.LimitedReader{R: r, N: s.opts.MaxFileSize + 1}
	counted := WrapForImport(limited, size)
	data, err := io.ReadAll(counted)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	if limited.N <= 0 {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, s.opts.MaxFileSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	rep, err := catalog.DecodeReport(string(data))
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", fileName, err)
	}

	result := &ImportResult{
		ImportID:       uuid.New(),
		FileName:       fileName,
		CatalogVersion: s.opts.CatalogVersion,
		TotalRows:      rep.DataLines,
		BytesRead:      counted.BytesRead,
	}
	for _, line := range rep.SkippedLines {
		result.FailedRows = append(result.FailedRows, FailedRow{
			Line:   line,
			Reason: fmt.Sprintf("expected %d columns", catalog.NumColumns),
		})
	}

	rows := make([]numberedRecord, len(rep.Records))
	for i, rec := range rep.Records {
		rows[i] = numberedRecord{line: rep.Lines[i], record: rec}
	}
	if err := s.importRows(ctx, result, rows, data); err != nil {
		return nil, err
	}
	result.Duration = s.now().Sub(start)
	return result, nil
}

// ImportJSON stores a JSON array of records. The array must match the
// record schema; records that then fail validation are reported by their
// 1-based position.
func (s *Service) ImportJSON(ctx context.Context, fileName string, data []byte) (*ImportResult, error) {
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(data), s.opts.MaxFileSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.ImportTimeout)
	defer cancel()
	start := s.now()

	records, err := catalog.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", fileName, err)
	}

	result := &ImportResult{
		ImportID:       uuid.New(),
		FileName:       fileName,
		CatalogVersion: s.opts.CatalogVersion,
		TotalRows:      len(records),
		BytesRead:      int64(len(data)),
	}
	rows := make([]numberedRecord, len(records))
	for i, rec := range records {
		rows[i] = numberedRecord{line: i + 1, record: rec}
	}
	if err := s.importRows(ctx, result, rows, data); err != nil {
		return nil, err
	}
	result.Duration = s.now().Sub(start)
	return result, nil
}

// importRows validates rows, then stores the valid ones and the import
// entry in one transaction. Each upsert runs under a savepoint so one bad
// row does not abort the rest.
func (s *Service) importRows(ctx context.Context, result *ImportResult, rows []numberedRecord, source []byte) error {
	log := logging.WithFields(ctx,
		"import_id", result.ImportID,
		"file", result.FileName,
		"client_ip", ClientIPFromContext(ctx),
		"user_agent", UserAgentFromContext(ctx),
	)
	log.Info("import started", "rows", result.TotalRows)

	valid, invalid, err := checkRecords(rows)
	if err != nil {
		return err
	}
	result.FailedRows = append(result.FailedRows, invalid...)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := store.New(s.db).WithTx(tx)
	err = q.InsertImport(ctx, store.Import{
		ID:             result.ImportID,
		FileName:       result.FileName,
		CatalogVersion: result.CatalogVersion,
		RowsTotal:      result.TotalRows,
	}, source)
	if err != nil {
		return err
	}

	for i, row := range valid {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			log.Warn("import cancelled", "stored", result.Imported)
			return ctx.Err()
		}

		savepoint := fmt.Sprintf("import_row_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
			return fmt.Errorf("create savepoint: %w", err)
		}
		if err := q.UpsertItem(ctx, result.CatalogVersion, row.record, result.ImportID); err != nil {
			_, _ = tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint)
			result.FailedRows = append(result.FailedRows, FailedRow{
				Line:   row.line,
				ItemID: row.record.ItemID,
				Reason: err.Error(),
			})
			continue
		}
		_, _ = tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint)
		result.Imported++
	}

	if err := q.SetImportCounts(ctx, result.ImportID, result.Imported, result.Skipped()); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	sort.SliceStable(result.FailedRows, func(i, j int) bool {
		return result.FailedRows[i].Line < result.FailedRows[j].Line
	})
	log.Info("import finished", "imported", result.Imported, "skipped", result.Skipped())
	return nil
}

// checkRecords splits rows into those that pass catalog.Validate and
// FailedRows for those that do not.
func checkRecords(rows []numberedRecord) ([]numberedRecord, []FailedRow, error) {
	records := make([]catalog.Record, len(rows))
	for i, row := range rows {
		records[i] = row.record
	}

	err := catalog.Validate(records)
	if err == nil {
		return rows, nil, nil
	}
	var ves catalog.ValidationErrors
	if !errors.As(err, &ves) {
		return nil, nil, err
	}

	reasons := make(map[int][]string)
	for _, fe := range ves {
		reasons[fe.Index] = append(reasons[fe.Index], fe.Field+" failed "+fe.Rule)
	}

	valid := make([]numberedRecord, 0, len(rows)-len(reasons))
	var failed []FailedRow
	for i, row := range rows {
		if r, bad := reasons[i]; bad {
			failed = append(failed, FailedRow{
				Line:   row.line,
				ItemID: row.record.ItemID,
				Reason: strings.Join(r, "; "),
			})
			continue
		}
		valid = append(valid, row)
	}
	return valid, failed, nil
}

// ImportSource returns the original file of an import.
func (s *Service) ImportSource(ctx context.Context, importID uuid.UUID) ([]byte, error) {
	return store.New(s.db).GetImportSource(ctx, importID)
}
