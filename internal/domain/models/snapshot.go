// internal/domain/models/snapshot.go
package models

import "time"

// CollectionZoneDailySnapshots is the sink for computed zone snapshots.
const CollectionZoneDailySnapshots = "zone_daily_snapshots"

// ZoneDailySnapshotRow is the cumulative-to-date rollup for one zone on one
// calendar day. (ProjectID, SnapshotDate, ZoneKey) is unique.
type ZoneDailySnapshotRow struct {
	ProjectID    string  `bson:"project_id"    json:"project_id"`
	SnapshotDate string  `bson:"snapshot_date" json:"snapshot_date"`
	ZoneKey      string  `bson:"zone_key"      json:"zone_key"`
	MacroZone    *string `bson:"macro_zone"    json:"macro_zone"`
	MicroZone    *string `bson:"micro_zone"    json:"micro_zone"`
	Zone         *string `bson:"zone"          json:"zone"`

	CumulativeFt    float64 `bson:"cumulative_ft"    json:"cumulative_ft"`
	CumulativeBotes float64 `bson:"cumulative_botes" json:"cumulative_botes"`
	CumulativeRolls float64 `bson:"cumulative_rolls" json:"cumulative_rolls"`
	CumulativeSeams float64 `bson:"cumulative_seams" json:"cumulative_seams"`

	CapturesCount int     `bson:"captures_count"  json:"captures_count"`
	LastCaptureAt *string `bson:"last_capture_at" json:"last_capture_at"`

	BuildID    string    `bson:"build_id"    json:"build_id"`
	ComputedAt time.Time `bson:"computed_at" json:"computed_at"`
}
