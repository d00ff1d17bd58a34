package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
	"github.com/JonMunkholm/pfcatalog/internal/logging"
	"github.com/JonMunkholm/pfcatalog/internal/playfab"
)

// ErrEmptyCatalog is returned when a push has no records to send.
var ErrEmptyCatalog = errors.New("catalog is empty, nothing to push")

// Push validates the stored catalog version and replaces the PlayFab
// catalog with it.
func (s *Service) Push(ctx context.Context) (*PushResult, error) {
	if s.remote == nil {
		return nil, playfab.ErrNotConfigured
	}
	records, err := s.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}
	return s.PushRecords(ctx, records)
}

// PushRecords validates records and replaces the PlayFab catalog version
// with them. Prices already set in PlayFab are kept, since records carry
// none.
func (s *Service) PushRecords(ctx context.Context, records []catalog.Record) (*PushResult, error) {
	if s.remote == nil {
		return nil, playfab.ErrNotConfigured
	}
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}
	if err := catalog.Validate(records); err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := s.now()
	version := s.opts.CatalogVersion
	log := logging.WithFields(ctx,
		"catalog_version", version,
		"client_ip", ClientIPFromContext(ctx),
		"user_agent", UserAgentFromContext(ctx),
	)

	items := playfab.FromRecords(records, version)
	current, err := s.remote.GetCatalogItems(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("fetch remote catalog: %w", err)
	}
	playfab.KeepPricing(items, current)

	err = s.remote.UpdateCatalogItems(ctx, playfab.UpdateCatalogItemsRequest{
		CatalogVersion:      version,
		Catalog:             items,
		SetAsDefaultCatalog: s.opts.SetAsDefaultCatalog,
	})
	if err != nil {
		log.Error("push failed", "items", len(items), "error", err)
		return nil, fmt.Errorf("update remote catalog: %w", err)
	}

	result := &PushResult{
		CatalogVersion: version,
		Items:          len(items),
		SetAsDefault:   s.opts.SetAsDefaultCatalog,
		Duration:       s.now().Sub(start),
	}
	log.Info("catalog pushed", "items", result.Items, "duration_ms", result.Duration.Milliseconds())
	return result, nil
}
