// Package reconcile is the duplicate-detection and reconciliation core.
// Given freshly scraped rows for a tracked case it classifies each one as
// NEW, UPDATED or DUPLICATE against the stored publication history and
// produces a merge plan; plans from concurrent fetch sources are then
// collapsed into one by the Merger before a single atomic commit.
package reconcile

import (
	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/internal/fetch"
)

// Flag reasons attached to rows that need attention. Flags are advisory
// classifications, never errors: a flagged row still appears in the plan and
// never blocks the rest of the batch.
const (
	FlagDataQuality    = "DATA_QUALITY"
	FlagNonBusinessDay = "published on non-business day"
)

// FlaggedRow is a publication plus the reason it was flagged.
type FlaggedRow struct {
	Publication database.Publication `json:"publication"`
	Reason      string               `json:"reason"`
	Detail      string               `json:"detail,omitempty"`
}

// MergePlan is the structured outcome of reconciling one source's rows for
// one case. ToInsert preserves the relative order of the incoming rows.
type MergePlan struct {
	CaseID         uint
	Source         fetch.Kind
	ToInsert       []database.Publication
	ToUpdate       []database.FieldUpdate
	DuplicateCount int
	Flagged        []FlaggedRow
}

// Empty reports whether the plan carries no information. A timed-out source
// contributes an empty plan, which is the identity element for merging.
func (p MergePlan) Empty() bool {
	return len(p.ToInsert) == 0 && len(p.ToUpdate) == 0 &&
		p.DuplicateCount == 0 && len(p.Flagged) == 0
}
