// internal/app/system/zonesnapshot/builder.go
// Package zonesnapshot turns normalised captures into a dense per-zone,
// per-day cumulative series and persists it.
package zonesnapshot

import (
	"math"
	"sort"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
)

// NoMicroLabel stands in for the micro zone when a capture only names the
// macro zone.
const NoMicroLabel = "(sin-micro)"

// ZoneMetricEvent is the zone-level slice of one capture.
type ZoneMetricEvent struct {
	ZoneKey   string
	MacroZone *string
	MicroZone *string
	Zone      *string
	Day       string
	At        time.Time

	Ft    float64
	Botes float64
	Rolls float64
	Seams float64
}

// ZoneKey derives the aggregation key for a row: macro::micro, then
// macro::(sin-micro), then the freeform zone. ok is false when none apply.
func ZoneKey(row models.CaptureExportRow) (string, bool) {
	switch {
	case row.MacroZone != nil && row.MicroZone != nil:
		return *row.MacroZone + "::" + *row.MicroZone, true
	case row.MacroZone != nil:
		return *row.MacroZone + "::" + NoMicroLabel, true
	case row.Zone != nil:
		return *row.Zone, true
	}
	return "", false
}

// EventFromRow extracts a ZoneMetricEvent. Rows without a zone key or a
// creation time are dropped.
func EventFromRow(row models.CaptureExportRow) (ZoneMetricEvent, bool) {
	key, ok := ZoneKey(row)
	if !ok {
		return ZoneMetricEvent{}, false
	}
	at := row.CreatedTime
	if at.IsZero() {
		parsed, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
		if err != nil {
			return ZoneMetricEvent{}, false
		}
		at = parsed
	}
	at = at.UTC()

	return ZoneMetricEvent{
		ZoneKey:   key,
		MacroZone: row.MacroZone,
		MicroZone: row.MicroZone,
		Zone:      row.Zone,
		Day:       at.Format(daterange.DateLayout),
		At:        at,
		Ft:        valueOrZero(row.FtTotales),
		Botes:     valueOrZero(row.BotesUsados),
		Rolls:     valueOrZero(row.TotalRollsUsed),
		Seams:     valueOrZero(row.TotalSeams),
	}, true
}

func valueOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// zoneState is the running total for one zone.
type zoneState struct {
	macro, micro, zone *string

	ft, botes, rolls, seams float64
	lastAt                  time.Time
}

// Build walks every UTC day of the window and emits one row per zone seen so
// far. The window is bounds when set, otherwise the span of the events.
// Events dated before the window start are folded into its first day's
// cumulative totals but not into its captures_count. Rows
// carry no BuildID or ComputedAt; callers stamp them.
func Build(projectID string, rows []models.CaptureExportRow, bounds daterange.Bounds) []models.ZoneDailySnapshotRow {
	events := make([]ZoneMetricEvent, 0, len(rows))
	for _, r := range rows {
		if ev, ok := EventFromRow(r); ok {
			events = append(events, ev)
		}
	}
	if len(events) == 0 {
		return []models.ZoneDailySnapshotRow{}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})

	firstDate := bounds.FromDate
	if firstDate == "" {
		firstDate = events[0].Day
	}
	lastDate := bounds.ToDate
	if lastDate == "" {
		lastDate = events[len(events)-1].Day
	}

	first, err := time.ParseInLocation(daterange.DateLayout, firstDate, time.UTC)
	if err != nil {
		return []models.ZoneDailySnapshotRow{}
	}
	last, err := time.ParseInLocation(daterange.DateLayout, lastDate, time.UTC)
	if err != nil || last.Before(first) {
		return []models.ZoneDailySnapshotRow{}
	}

	zones := map[string]*zoneState{}
	var keys []string
	var out []models.ZoneDailySnapshotRow
	next := 0

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		dayKey := day.Format(daterange.DateLayout)
		counts := map[string]int{}

		for next < len(events) && events[next].Day <= dayKey {
			ev := events[next]
			next++

			st, ok := zones[ev.ZoneKey]
			if !ok {
				st = &zoneState{macro: ev.MacroZone, micro: ev.MicroZone, zone: ev.Zone}
				zones[ev.ZoneKey] = st
				keys = append(keys, ev.ZoneKey)
				sort.Strings(keys)
			}
			st.ft += ev.Ft
			st.botes += ev.Botes
			st.rolls += ev.Rolls
			st.seams += ev.Seams
			if ev.At.After(st.lastAt) {
				st.lastAt = ev.At
			}
			if ev.Day == dayKey {
				counts[ev.ZoneKey]++
			}
		}

		for _, key := range keys {
			st := zones[key]
			row := models.ZoneDailySnapshotRow{
				ProjectID:       projectID,
				SnapshotDate:    dayKey,
				ZoneKey:         key,
				MacroZone:       st.macro,
				MicroZone:       st.micro,
				Zone:            st.zone,
				CumulativeFt:    round4(st.ft),
				CumulativeBotes: round4(st.botes),
				CumulativeRolls: math.Round(st.rolls),
				CumulativeSeams: math.Round(st.seams),
				CapturesCount:   counts[key],
			}
			if !st.lastAt.IsZero() {
				at := st.lastAt.Format(daterange.ISOLayout)
				row.LastCaptureAt = &at
			}
			out = append(out, row)
		}
	}

	if out == nil {
		return []models.ZoneDailySnapshotRow{}
	}
	return out
}

// ZoneCount is the number of distinct zone keys in rows.
func ZoneCount(rows []models.ZoneDailySnapshotRow) int {
	seen := map[string]struct{}{}
	for _, r := range rows {
		seen[r.ZoneKey] = struct{}{}
	}
	return len(seen)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
