package database

import (
	"time"

	"gorm.io/gorm"
)

// TrackedCase is an expediente the user monitors. The (CaseNumber, CourtID)
// pair is the natural key: the same pair must not yield two active rows.
type TrackedCase struct {
	gorm.Model
	CaseNumber    string    `json:"case_number" gorm:"index:idx_case_natural"`
	PartyName     string    `json:"party_name"`
	CourtID       int       `json:"court_id" gorm:"index:idx_case_natural"`
	CourtName     string    `json:"court_name"`
	Category      string    `json:"category"`
	Comment       string    `json:"comment"`
	Active        bool      `json:"active" gorm:"index"`
	LastCheckedAt time.Time `json:"last_checked_at"`
}

// Publication is one court-published notice tied to a TrackedCase.
// Identity fields (AgreementID, Document, Date, Parties) are never amended
// after creation; only descriptive fields may change on an UPDATED
// classification.
type Publication struct {
	gorm.Model
	CaseID      uint      `json:"case_id" gorm:"index"`
	AgreementID string    `json:"agreement_id" gorm:"index"`
	Document    string    `json:"document"`
	Proceeding  string    `json:"proceeding"`
	Parties     string    `json:"parties"`
	Date        time.Time `json:"date"`
	FetchedAt   time.Time `json:"fetched_at"`
	Source      string    `json:"source"`
	IsNew       bool      `json:"is_new"`
	Read        bool      `json:"read"`
}

// Tombstone records a deletion so sync can tell "never seen" from "deleted".
type Tombstone struct {
	gorm.Model
	RecordType string    `json:"record_type"`
	RecordKey  string    `json:"record_key" gorm:"index"`
	RemovedAt  time.Time `json:"removed_at" gorm:"index"`
}

// CheckLog records one reconciliation cycle for a case.
type CheckLog struct {
	gorm.Model
	CaseID         uint   `json:"case_id" gorm:"index"`
	CycleID        string `json:"cycle_id"`
	Sequence       uint64 `json:"sequence"`
	NewCount       int    `json:"new_count"`
	UpdatedCount   int    `json:"updated_count"`
	DuplicateCount int    `json:"duplicate_count"`
	FlaggedCount   int    `json:"flagged_count"`
	Success        bool   `json:"success"`
	ErrorMessage   string `json:"error_message"`
}

// CalendarException is a user-configured one-off non-business day.
type CalendarException struct {
	gorm.Model
	Date time.Time `json:"date" gorm:"uniqueIndex"`
	Name string    `json:"name"`
}

func (TrackedCase) TableName() string {
	return "tracked_cases"
}

func (Publication) TableName() string {
	return "publications"
}

func (Tombstone) TableName() string {
	return "tombstones"
}

func (CheckLog) TableName() string {
	return "check_logs"
}

func (CalendarException) TableName() string {
	return "calendar_exceptions"
}
