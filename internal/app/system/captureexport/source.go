// internal/app/system/captureexport/source.go
package captureexport

import (
	"context"
	"errors"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
)

// ErrRelationMissing is returned (wrapped) by a Source when the backing
// collection or table does not exist. The fetcher treats it like a result
// with Missing set.
var ErrRelationMissing = errors.New("capture relation does not exist")

// SourceTables are the three capture collections, in warning order.
var SourceTables = []string{
	models.CollectionFieldRecords,
	models.CollectionRollInstallation,
	models.CollectionMaterialRecords,
}

// Query scopes a capture read to one project and an optional
// [From, ToExclusive) created_at window.
type Query struct {
	ProjectID   string
	From        *time.Time
	ToExclusive *time.Time
}

// SourceResult separates "empty" from "absent".
type SourceResult struct {
	Rows    []models.RawRecord
	Missing bool
}

// Source reads raw captures ordered by created_at ascending.
type Source interface {
	ListCaptures(ctx context.Context, table string, q Query) (SourceResult, error)
}

// ProjectLister discovers projects with captures created at or after since.
type ProjectLister interface {
	ListRecentProjects(ctx context.Context, since time.Time) ([]string, error)
}
