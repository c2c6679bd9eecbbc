package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/empirica-legal/expediente-tracker/internal/identity"
)

// ErrDuplicateCase is returned when a case with the same (number, court)
// natural key is already active.
var ErrDuplicateCase = errors.New("case already tracked")

// ErrCaseNotFound is returned for lookups of unknown or inactive cases.
var ErrCaseNotFound = errors.New("case not found")

// Store wraps gorm access behind the persistence operations the
// reconciliation core consumes.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// CreateCase inserts a tracked case after checking the natural key against
// every active case. Normalized comparison happens in Go because the raw
// number column keeps the court's original formatting.
func (s *Store) CreateCase(c *TrackedCase) error {
	var existing []TrackedCase
	if err := s.db.Where("court_id = ? AND active = ?", c.CourtID, true).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to check for duplicates: %w", err)
	}
	for _, e := range existing {
		if identity.SameCase(e.CaseNumber, e.CourtID, c.CaseNumber, c.CourtID) {
			return ErrDuplicateCase
		}
	}

	c.Active = true
	if err := s.db.Create(c).Error; err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (s *Store) GetCase(id uint) (*TrackedCase, error) {
	var c TrackedCase
	if err := s.db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListCases returns tracked cases, active ones only unless includeInactive.
func (s *Store) ListCases(includeInactive bool, offset, limit int) ([]TrackedCase, int64, error) {
	query := s.db.Model(&TrackedCase{})
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cases []TrackedCase
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&cases).Error; err != nil {
		return nil, 0, err
	}
	return cases, total, nil
}

// DeactivateCase soft-deletes a case and writes a tombstone so multi-device
// sync can distinguish "deleted" from "never seen". With permanent=true the
// case and its publications are removed; the tombstone is written either way.
func (s *Store) DeactivateCase(id uint, permanent bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var c TrackedCase
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCaseNotFound
			}
			return err
		}

		tomb := Tombstone{
			RecordType: "case",
			RecordKey:  identity.CaseKey(c.CaseNumber, c.CourtID),
			RemovedAt:  time.Now(),
		}
		if err := tx.Create(&tomb).Error; err != nil {
			return fmt.Errorf("failed to write tombstone: %w", err)
		}

		if permanent {
			if err := tx.Where("case_id = ?", id).Delete(&Publication{}).Error; err != nil {
				return err
			}
			return tx.Delete(&c).Error
		}

		return tx.Model(&c).Update("active", false).Error
	})
}

// StoredPublications returns the full publication history of a case, newest
// publication date first. Reconciliation matches against the entire set: a
// previously seen publication may be re-reported months later.
func (s *Store) StoredPublications(caseID uint) ([]Publication, error) {
	var pubs []Publication
	if err := s.db.Where("case_id = ?", caseID).
		Order("date DESC, id DESC").
		Find(&pubs).Error; err != nil {
		return nil, err
	}
	return pubs, nil
}

// FieldUpdate amends non-identity fields of a stored publication.
type FieldUpdate struct {
	PublicationID uint
	Fields        map[string]string
}

// CommitPlan applies inserts and updates in one transaction and bumps the
// case's last-checked timestamp. All-or-nothing per case: the core relies on
// this to avoid partial-merge visibility.
func (s *Store) CommitPlan(caseID uint, toInsert []Publication, toUpdate []FieldUpdate) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range toInsert {
			toInsert[i].CaseID = caseID
			toInsert[i].IsNew = true
			if err := tx.Create(&toInsert[i]).Error; err != nil {
				return fmt.Errorf("failed to insert publication: %w", err)
			}
		}

		for _, upd := range toUpdate {
			if len(upd.Fields) == 0 {
				continue
			}
			values := make(map[string]interface{}, len(upd.Fields))
			for k, v := range upd.Fields {
				values[k] = v
			}
			if err := tx.Model(&Publication{}).
				Where("id = ? AND case_id = ?", upd.PublicationID, caseID).
				Updates(values).Error; err != nil {
				return fmt.Errorf("failed to update publication %d: %w", upd.PublicationID, err)
			}
		}

		return tx.Model(&TrackedCase{}).
			Where("id = ?", caseID).
			Update("last_checked_at", time.Now()).Error
	})
}

// MarkAllRead clears the unread state of every publication of a case.
func (s *Store) MarkAllRead(caseID uint) error {
	return s.db.Model(&Publication{}).
		Where("case_id = ?", caseID).
		Update("read", true).Error
}

// Tombstones returns deletion records newer than since.
func (s *Store) Tombstones(since time.Time) ([]Tombstone, error) {
	var tombs []Tombstone
	if err := s.db.Where("removed_at > ?", since).
		Order("removed_at ASC").
		Find(&tombs).Error; err != nil {
		return nil, err
	}
	return tombs, nil
}

// CalendarExceptions returns all configured one-off non-business days.
func (s *Store) CalendarExceptions() ([]CalendarException, error) {
	var excs []CalendarException
	if err := s.db.Find(&excs).Error; err != nil {
		return nil, err
	}
	return excs, nil
}

// RecordCheck appends a check-history row.
func (s *Store) RecordCheck(log *CheckLog) error {
	return s.db.Create(log).Error
}
