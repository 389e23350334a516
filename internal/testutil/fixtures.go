// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
)

// MemSource is an in-memory captureexport.Source and ProjectLister.
// Tables listed in Missing report a missing relation; Fail injects errors.
type MemSource struct {
	mu      sync.Mutex
	Rows    map[string][]models.RawRecord
	Missing map[string]bool
	Fail    map[string]error
	Calls   int
}

// NewMemSource returns an empty source.
func NewMemSource() *MemSource {
	return &MemSource{
		Rows:    map[string][]models.RawRecord{},
		Missing: map[string]bool{},
		Fail:    map[string]error{},
	}
}

// Add appends raw records to table.
func (s *MemSource) Add(table string, recs ...models.RawRecord) *MemSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rows[table] = append(s.Rows[table], recs...)
	return s
}

// ListCaptures filters rows by project_id and created_at like the real stores.
func (s *MemSource) ListCaptures(ctx context.Context, table string, q captureexport.Query) (captureexport.SourceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if err := s.Fail[table]; err != nil {
		return captureexport.SourceResult{}, err
	}
	if s.Missing[table] {
		return captureexport.SourceResult{Missing: true}, nil
	}

	var out []models.RawRecord
	for _, rec := range s.Rows[table] {
		if pid, _ := rec["project_id"].(string); pid != q.ProjectID {
			continue
		}
		created, ok := createdAt(rec)
		if !ok {
			out = append(out, rec)
			continue
		}
		if q.From != nil && created.Before(*q.From) {
			continue
		}
		if q.ToExclusive != nil && !created.Before(*q.ToExclusive) {
			continue
		}
		out = append(out, rec)
	}
	return captureexport.SourceResult{Rows: out}, nil
}

// ListRecentProjects returns projects with a capture at or after since.
func (s *MemSource) ListRecentProjects(ctx context.Context, since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, recs := range s.Rows {
		for _, rec := range recs {
			created, ok := createdAt(rec)
			pid, _ := rec["project_id"].(string)
			if !ok || pid == "" || created.Before(since) || slices.Contains(out, pid) {
				continue
			}
			out = append(out, pid)
		}
	}
	sort.Strings(out)
	return out, nil
}

func createdAt(rec models.RawRecord) (time.Time, bool) {
	switch v := rec["created_at"].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		return t, err == nil
	}
	return time.Time{}, false
}

// MemSnapshots is an in-memory zonesnapshot.Store and Reader. NoConstraint
// makes Upsert report ErrNoConflictConstraint; Missing makes every call
// report ErrRelationMissing.
type MemSnapshots struct {
	mu           sync.Mutex
	rows         []models.ZoneDailySnapshotRow
	NoConstraint bool
	Missing      bool
	Fail         error
}

// NewMemSnapshots returns an empty snapshot store.
func NewMemSnapshots() *MemSnapshots {
	return &MemSnapshots{}
}

func (m *MemSnapshots) check() error {
	if m.Fail != nil {
		return m.Fail
	}
	if m.Missing {
		return zonesnapshot.ErrRelationMissing
	}
	return nil
}

// Upsert replaces rows with the same key.
func (m *MemSnapshots) Upsert(ctx context.Context, rows []models.ZoneDailySnapshotRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	if m.NoConstraint {
		return zonesnapshot.ErrNoConflictConstraint
	}
	for _, r := range rows {
		i := slices.IndexFunc(m.rows, func(e models.ZoneDailySnapshotRow) bool {
			return e.ProjectID == r.ProjectID && e.SnapshotDate == r.SnapshotDate && e.ZoneKey == r.ZoneKey
		})
		if i >= 0 {
			m.rows[i] = r
			continue
		}
		m.rows = append(m.rows, r)
	}
	return nil
}

// Insert appends rows.
func (m *MemSnapshots) Insert(ctx context.Context, rows []models.ZoneDailySnapshotRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.rows = append(m.rows, rows...)
	return nil
}

// DeleteRange removes a project's rows inside bounds.
func (m *MemSnapshots) DeleteRange(ctx context.Context, projectID string, bounds daterange.Bounds) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.rows = slices.DeleteFunc(m.rows, func(r models.ZoneDailySnapshotRow) bool {
		return r.ProjectID == projectID && inBounds(r.SnapshotDate, bounds)
	})
	return nil
}

// List returns a project's rows inside bounds ordered by date then zone.
func (m *MemSnapshots) List(ctx context.Context, projectID string, bounds daterange.Bounds) ([]models.ZoneDailySnapshotRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	out := []models.ZoneDailySnapshotRow{}
	for _, r := range m.rows {
		if r.ProjectID == projectID && inBounds(r.SnapshotDate, bounds) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SnapshotDate != out[j].SnapshotDate {
			return out[i].SnapshotDate < out[j].SnapshotDate
		}
		return out[i].ZoneKey < out[j].ZoneKey
	})
	return out, nil
}

// Len reports how many rows are stored.
func (m *MemSnapshots) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func inBounds(date string, b daterange.Bounds) bool {
	if b.FromDate != "" && date < b.FromDate {
		return false
	}
	if b.ToDate != "" && date > b.ToDate {
		return false
	}
	return true
}

// ErrInjected is a generic store failure for tests.
var ErrInjected = errors.New("injected store failure")
