// internal/app/features/snapshots/types.go
package snapshots

import "github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"

// rebuildRequest is the POST /zone-daily body.
type rebuildRequest struct {
	ProjectID string `json:"projectId" validate:"required" label:"projectId"`
	FromDate  string `json:"fromDate"`
	ToDate    string `json:"toDate"`
}

// listQuery holds the validated GET /zone-daily parameters.
type listQuery struct {
	Project string `validate:"required" label:"project"`
	Format  string `validate:"snapshotformat" label:"format"`
}

// rebuildResponse reports a rebuild. Dates are the resolved bounds.
type rebuildResponse struct {
	ProjectID          string   `json:"projectId"`
	FromDate           *string  `json:"fromDate"`
	ToDate             *string  `json:"toDate"`
	SnapshotRows       int      `json:"snapshotRows"`
	Zones              int      `json:"zones"`
	Persisted          int      `json:"persisted"`
	UsedFallbackInsert bool     `json:"usedFallbackInsert"`
	BuildID            string   `json:"buildId"`
	RelationWarnings   []string `json:"relationWarnings"`
}

// listResponse is the JSON form of GET /zone-daily.
type listResponse struct {
	ProjectID        string                        `json:"projectId"`
	FromDate         *string                       `json:"fromDate"`
	ToDate           *string                       `json:"toDate"`
	Rows             []models.ZoneDailySnapshotRow `json:"rows"`
	Count            int                           `json:"count"`
	RelationWarnings []string                      `json:"relationWarnings"`
}
