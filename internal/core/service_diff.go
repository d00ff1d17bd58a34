package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/pfcatalog/internal/catalog"
	"github.com/JonMunkholm/pfcatalog/internal/diff"
	"github.com/JonMunkholm/pfcatalog/internal/logging"
	"github.com/JonMunkholm/pfcatalog/internal/playfab"
	"github.com/JonMunkholm/pfcatalog/internal/store"
	"github.com/google/uuid"
)

// diffSession is a diff.Session plus its bookkeeping. Every access goes
// through Service.mu because diff.Session is not safe for concurrent use.
type diffSession struct {
	id      string
	itemID  string
	session *diff.Session
	expires time.Time
}

func (ds *diffSession) info() *DiffSessionInfo {
	rows := ds.session.Rows()
	return &DiffSessionInfo{
		ID:        ds.id,
		ItemID:    ds.itemID,
		Rows:      rows,
		Differing: len(diff.Differing(rows)),
		ExpiresAt: ds.expires,
	}
}

// StartDiff opens a session comparing two JSON or YAML objects.
func (s *Service) StartDiff(left, right []byte) (*DiffSessionInfo, error) {
	l, err := diff.FlattenObject(left)
	if err != nil {
		return nil, fmt.Errorf("left: %w", err)
	}
	r, err := diff.FlattenObject(right)
	if err != nil {
		return nil, fmt.Errorf("right: %w", err)
	}
	return s.openSession("", l, r)
}

// CompareWithRemote opens a session with the PlayFab copy of itemID on the
// left and the stored copy on the right, so the default choice keeps the
// stored values. An item missing from PlayFab compares as all empty.
func (s *Service) CompareWithRemote(ctx context.Context, itemID string) (*DiffSessionInfo, error) {
	if s.remote == nil {
		return nil, playfab.ErrNotConfigured
	}
	local, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	items, err := s.remote.GetCatalogItems(ctx, s.opts.CatalogVersion)
	if err != nil {
		return nil, fmt.Errorf("fetch remote catalog: %w", err)
	}

	remote := map[string]string{}
	for _, it := range items {
		if it.ItemID == itemID {
			remote = catalog.Flatten(playfab.ToRecord(it))
			break
		}
	}
	return s.openSession(itemID, remote, catalog.Flatten(local.Record))
}

func (s *Service) openSession(itemID string, left, right map[string]string) (*DiffSessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	if len(s.sessions) >= s.opts.MaxSessions {
		return nil, ErrTooManySessions
	}
	ds := &diffSession{
		id:      uuid.NewString(),
		itemID:  itemID,
		session: diff.NewSession(left, right),
		expires: s.now().Add(s.opts.SessionTTL),
	}
	s.sessions[ds.id] = ds
	return ds.info(), nil
}

// lookupLocked returns a live session and extends its expiry.
func (s *Service) lookupLocked(id string) (*diffSession, error) {
	ds, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	now := s.now()
	if !now.Before(ds.expires) {
		delete(s.sessions, id)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	ds.expires = now.Add(s.opts.SessionTTL)
	return ds, nil
}

func (s *Service) withSession(id string, fn func(ds *diffSession) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	return fn(ds)
}

// DiffSession returns the current state of a session.
func (s *Service) DiffSession(id string) (*DiffSessionInfo, error) {
	var info *DiffSessionInfo
	err := s.withSession(id, func(ds *diffSession) error {
		info = ds.info()
		return nil
	})
	return info, err
}

// DiffRows returns the rows of a session with choices applied, or only the
// rows whose values differ.
func (s *Service) DiffRows(id string, onlyDiffering bool) ([]diff.Row, error) {
	var rows []diff.Row
	err := s.withSession(id, func(ds *diffSession) error {
		rows = ds.session.Rows()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if onlyDiffering {
		rows = diff.Differing(rows)
	}
	return rows, nil
}

// Choose sets the side for one field.
func (s *Service) Choose(id, field, side string) error {
	sd, err := diff.ParseSide(side)
	if err != nil {
		return err
	}
	return s.withSession(id, func(ds *diffSession) error {
		return ds.session.Choose(field, sd)
	})
}

// ChooseAll sets the side for every field.
func (s *Service) ChooseAll(id, side string) error {
	sd, err := diff.ParseSide(side)
	if err != nil {
		return err
	}
	return s.withSession(id, func(ds *diffSession) error {
		return ds.session.ChooseAll(sd)
	})
}

// ApplyChoices reads an edited diff report and applies its choices. Either
// every choice applies or none do.
func (s *Service) ApplyChoices(id string, r io.Reader) (int, error) {
	choices, err := diff.ReadChoices(r)
	if err != nil {
		return 0, err
	}
	err = s.withSession(id, func(ds *diffSession) error {
		fields := make(map[string]bool)
		for _, row := range ds.session.Rows() {
			fields[row.Field] = true
		}
		for field := range choices {
			if !fields[field] {
				return fmt.Errorf("%w: %q", diff.ErrUnknownField, field)
			}
		}
		for field, side := range choices {
			if err := ds.session.Choose(field, side); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(choices), nil
}

// WriteDiffReport writes the differing rows of a session as CSV.
func (s *Service) WriteDiffReport(id string, w io.Writer) error {
	rows, err := s.DiffRows(id, true)
	if err != nil {
		return err
	}
	return diff.WriteReport(w, rows)
}

// FinishDiff merges a session and closes it. The session is removed before
// the merged record is stored, so a concurrent Choose or FinishDiff sees it as
// gone. With apply, the merged fields are read back as a catalog record,
// validated and stored; the session is put back when that fails so the
// choices can be corrected.
func (s *Service) FinishDiff(ctx context.Context, id string, apply bool) (*MergeResult, error) {
	s.mu.Lock()
	ds, err := s.lookupLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	merged := ds.session.Merge()
	delete(s.sessions, id)
	s.mu.Unlock()

	result := &MergeResult{SessionID: id, Fields: merged}
	if !apply {
		return result, nil
	}

	rec := catalog.Unflatten(merged)
	err = catalog.Validate([]catalog.Record{rec})
	if err == nil {
		err = store.New(s.db).UpsertItem(ctx, s.opts.CatalogVersion, rec, uuid.Nil)
	}
	if err != nil {
		s.restoreSession(ds)
		return nil, err
	}

	result.Applied = true
	result.ItemID = rec.ItemID
	logging.WithFields(ctx, "session_id", id, "item_id", rec.ItemID).Info("merged diff applied")
	return result, nil
}

func (s *Service) restoreSession(ds *diffSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds.expires = s.now().Add(s.opts.SessionTTL)
	s.sessions[ds.id] = ds
}

// CancelDiff discards a session.
func (s *Service) CancelDiff(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// ExpireSessions drops sessions past their expiry and returns how many.
func (s *Service) ExpireSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked()
}

// OpenSessions returns the number of open sessions.
func (s *Service) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) expireLocked() int {
	now := s.now()
	n := 0
	for id, ds := range s.sessions {
		if !now.Before(ds.expires) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
