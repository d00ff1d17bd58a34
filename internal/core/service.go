package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
	"github.com/JonMunkholm/pfcatalog/internal/store"
)

var (
	// ErrSessionNotFound is returned for unknown or expired diff sessions.
	ErrSessionNotFound = errors.New("diff session not found")

	// ErrTooManySessions is returned by StartDiff when MaxSessions are open.
	ErrTooManySessions = errors.New("too many open diff sessions")

	// ErrFileTooLarge is returned when an import exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyFile is returned for imports with no content.
	ErrEmptyFile = errors.New("empty file")

	// ErrInvalidKind is returned by ListItems for an unknown kind filter.
	ErrInvalidKind = errors.New("invalid item kind")
)

// Defaults used when Options leaves a field zero.
const (
	DefaultMaxFileSize   = 20 << 20
	DefaultImportTimeout = 5 * time.Minute
	DefaultSessionTTL    = 30 * time.Minute
	DefaultMaxSessions   = 500
)

// Options configures a Service.
type Options struct {
	// CatalogVersion is the version items are stored under and pushed to.
	CatalogVersion      string
	SetAsDefaultCatalog bool

	MaxFileSize   int64
	ImportTimeout time.Duration
	MaxConcurrent int
	MaxWaitTime   time.Duration

	SessionTTL  time.Duration
	MaxSessions int
}

func (o *Options) setDefaults() {
	if o.CatalogVersion == "" {
		o.CatalogVersion = "Main"
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.ImportTimeout <= 0 {
		o.ImportTimeout = DefaultImportTimeout
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultSessionTTL
	}
	if o.MaxSessions <= 0 {
		o.MaxSessions = DefaultMaxSessions
	}
}

// Service is the catalog business logic shared by the web server and the
// CLI. It is safe for concurrent use.
type Service struct {
	db      DB
	remote  Remote
	opts    Options
	limiter *OperationLimiter
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*diffSession
}

// NewService creates a Service. remote may be nil, in which case Push and
// CompareWithRemote fail with playfab.ErrNotConfigured. db may be nil for
// callers that only use diff sessions.
func NewService(db DB, remote Remote, opts Options) *Service {
	opts.setDefaults()
	return &Service{
		db:       db,
		remote:   remote,
		opts:     opts,
		limiter:  NewOperationLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		now:      time.Now,
		sessions: make(map[string]*diffSession),
	}
}

// CatalogVersion returns the catalog version the service works on.
func (s *Service) CatalogVersion() string {
	return s.opts.CatalogVersion
}

// RemoteEnabled reports whether PlayFab calls are configured.
func (s *Service) RemoteEnabled() bool {
	return s.remote != nil
}

// Limiter exposes the import/push limiter for health checks and shutdown.
func (s *Service) Limiter() *OperationLimiter {
	return s.limiter
}

// ListItems returns stored items of the catalog version. kind filters by
// item kind ("" for all); filter matches item id or display name.
func (s *Service) ListItems(ctx context.Context, kind, filter string) ([]store.Item, error) {
	p := store.ListItemsParams{
		CatalogVersion: s.opts.CatalogVersion,
		Search:         filter,
	}
	if kind != "" {
		k, ok := catalog.ParseKind(kind)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
		}
		p.Kind = k
	}
	return store.New(s.db).ListItems(ctx, p)
}

// GetItem returns one stored item or store.ErrNotFound.
func (s *Service) GetItem(ctx context.Context, itemID string) (*store.Item, error) {
	return store.New(s.db).GetItem(ctx, s.opts.CatalogVersion, itemID)
}

// Records returns every stored record of the catalog version.
func (s *Service) Records(ctx context.Context) ([]catalog.Record, error) {
	items, err := store.New(s.db).ListItems(ctx, store.ListItemsParams{
		CatalogVersion: s.opts.CatalogVersion,
	})
	if err != nil {
		return nil, err
	}
	records := make([]catalog.Record, len(items))
	for i, it := range items {
		records[i] = it.Record
	}
	return records, nil
}

// ExportCSV writes the stored catalog as catalog CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := s.Records(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := io.WriteString(w, catalog.Encode(records)); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

// ListImports returns recent import history, newest first.
func (s *Service) ListImports(ctx context.Context, limit int) ([]store.Import, error) {
	return store.New(s.db).ListImports(ctx, limit)
}
