// Package checker orchestrates reconciliation cycles: it fans out the
// configured fetch sources for a case, reconciles each source's rows against
// a single stored snapshot, merges the per-source plans exactly once, and
// commits the result atomically.
package checker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/empirica-legal/expediente-tracker/internal/calendar"
	"github.com/empirica-legal/expediente-tracker/internal/courts"
	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/internal/fetch"
	"github.com/empirica-legal/expediente-tracker/internal/reconcile"
	"github.com/empirica-legal/expediente-tracker/pkg/logger"
)

// CheckResult summarizes one committed reconciliation cycle.
type CheckResult struct {
	CycleID        string                 `json:"cycle_id"`
	Sequence       uint64                 `json:"sequence"`
	NewCount       int                    `json:"new_count"`
	UpdatedCount   int                    `json:"updated_count"`
	DuplicateCount int                    `json:"duplicate_count"`
	Flagged        []reconcile.FlaggedRow `json:"flagged"`
	Stale          bool                   `json:"stale,omitempty"`
}

// Checker is the single entry point schedulers and manual triggers use.
type Checker struct {
	store         *database.Store
	catalog       *courts.Catalog
	classifierFn  func() (*calendar.Classifier, error)
	prefixLen     int
	merger        *reconcile.Merger
	sources       []fetch.Source
	baseURL       string
	sourceTimeout time.Duration
	logger        *logger.Logger

	mu        sync.Mutex
	sequences map[uint]uint64
}

// New builds a checker. classifierFn is called at the start of each cycle so
// every reconciliation sees a fresh read-only calendar snapshot, including
// exception dates edited since startup.
func New(store *database.Store, catalog *courts.Catalog, classifierFn func() (*calendar.Classifier, error),
	partyPrefixLen int, merger *reconcile.Merger, sources []fetch.Source, baseURL string,
	sourceTimeout time.Duration, log *logger.Logger) *Checker {
	return &Checker{
		store:         store,
		catalog:       catalog,
		classifierFn:  classifierFn,
		prefixLen:     partyPrefixLen,
		merger:        merger,
		sources:       sources,
		baseURL:       baseURL,
		sourceTimeout: sourceTimeout,
		logger:        log,
		sequences:     make(map[uint]uint64),
	}
}

// NextSequence issues a fresh cycle sequence number for a case. Both manual
// triggers and scheduled checks go through here, so a manual refresh always
// supersedes an in-flight scheduled cycle.
func (c *Checker) NextSequence(caseID uint) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sequences[caseID]++
	return c.sequences[caseID]
}

// RunCheckCycle fetches rows from every configured source and reconciles
// them. A source that fails or times out contributes an empty plan so that
// partial source failure degrades gracefully.
func (c *Checker) RunCheckCycle(ctx context.Context, caseID uint, sequence uint64) (*CheckResult, error) {
	return c.RunCheckCycleWith(ctx, caseID, sequence, c.sources)
}

// RunCheckCycleWith runs a cycle against an explicit source list. Used by
// the extension relay, which supplies its rows as a static source.
func (c *Checker) RunCheckCycleWith(ctx context.Context, caseID uint, sequence uint64, sources []fetch.Source) (*CheckResult, error) {
	tracked, err := c.store.GetCase(caseID)
	if err != nil {
		return nil, err
	}
	if !tracked.Active {
		return nil, fmt.Errorf("case %d is not active", caseID)
	}

	court, ok := c.catalog.ByID(tracked.CourtID)
	if !ok {
		return nil, fmt.Errorf("unknown court id %d", tracked.CourtID)
	}
	searchURL, err := c.catalog.SearchURL(c.baseURL, court, tracked.CaseNumber, tracked.PartyName)
	if err != nil {
		return nil, err
	}

	// One consistent snapshot for every source's reconciliation.
	stored, err := c.store.StoredPublications(caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored publications: %w", err)
	}

	classifier, err := c.classifierFn()
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar rules: %w", err)
	}
	engine := reconcile.NewEngine(classifier, c.prefixLen)

	cycleID := uuid.NewString()
	plans := c.collectPlans(ctx, engine, caseID, cycleID, searchURL, stored, sources)

	merged, err := c.merger.MergeSources(caseID, sequence, plans...)
	if err != nil {
		if errors.Is(err, reconcile.ErrStaleCycle) {
			c.logger.Info("Discarding superseded check cycle",
				"case_id", caseID, "cycle_id", cycleID, "sequence", sequence)
			return &CheckResult{CycleID: cycleID, Sequence: sequence, Stale: true}, nil
		}
		c.recordCheck(caseID, cycleID, sequence, nil, err)
		return nil, err
	}

	if err := c.store.CommitPlan(caseID, merged.ToInsert, merged.ToUpdate); err != nil {
		c.recordCheck(caseID, cycleID, sequence, &merged, err)
		return nil, fmt.Errorf("failed to commit merge plan: %w", err)
	}
	c.merger.CommitSequence(caseID, sequence)

	result := &CheckResult{
		CycleID:        cycleID,
		Sequence:       sequence,
		NewCount:       len(merged.ToInsert),
		UpdatedCount:   len(merged.ToUpdate),
		DuplicateCount: merged.DuplicateCount,
		Flagged:        merged.Flagged,
	}
	c.recordCheck(caseID, cycleID, sequence, &merged, nil)

	c.logger.Info("Check cycle committed",
		"case_id", caseID,
		"cycle_id", cycleID,
		"sequence", sequence,
		"new", result.NewCount,
		"updated", result.UpdatedCount,
		"duplicates", result.DuplicateCount,
		"flagged", len(result.Flagged),
	)
	return result, nil
}

// collectPlans runs every source concurrently with an independent timeout
// and reconciles its rows. Failed sources come back as empty plans.
func (c *Checker) collectPlans(ctx context.Context, engine *reconcile.Engine, caseID uint, cycleID, searchURL string,
	stored []database.Publication, sources []fetch.Source) []reconcile.MergePlan {

	plans := make([]reconcile.MergePlan, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(index int, source fetch.Source) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, c.sourceTimeout)
			defer cancel()

			rows, err := source.Fetch(fetchCtx, searchURL)
			if err != nil {
				// Empty contribution, not an error: the cycle proceeds on
				// whatever the other sources returned.
				c.logger.Warn("Fetch source failed, contributing empty plan",
					"case_id", caseID, "cycle_id", cycleID,
					"source", source.Name(), "error", err)
				plans[index] = reconcile.MergePlan{CaseID: caseID, Source: source.Kind()}
				return
			}

			plans[index] = engine.Reconcile(caseID, stored, rows, source.Kind())
		}(i, src)
	}
	wg.Wait()

	// Merge in priority order so that first-seen ordering inside the merger
	// favors higher-fidelity sources deterministically.
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Source < plans[j].Source
	})
	return plans
}

func (c *Checker) recordCheck(caseID uint, cycleID string, sequence uint64, plan *reconcile.MergePlan, runErr error) {
	log := &database.CheckLog{
		CaseID:   caseID,
		CycleID:  cycleID,
		Sequence: sequence,
		Success:  runErr == nil,
	}
	if plan != nil {
		log.NewCount = len(plan.ToInsert)
		log.UpdatedCount = len(plan.ToUpdate)
		log.DuplicateCount = plan.DuplicateCount
		log.FlaggedCount = len(plan.Flagged)
	}
	if runErr != nil {
		log.ErrorMessage = runErr.Error()
	}
	if err := c.store.RecordCheck(log); err != nil {
		c.logger.Error("Failed to record check history", "case_id", caseID, "error", err)
	}
}

// LoadCalendar builds a classifier snapshot from static config plus the
// user-configured exception dates persisted in the database. Called at the
// start of each classification-dependent operation so exception edits take
// effect without a restart.
func LoadCalendar(store *database.Store, holidays []calendar.FixedHoliday,
	recesses []calendar.RecessInterval, maxLookahead int) (*calendar.Classifier, error) {

	stored, err := store.CalendarExceptions()
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar exceptions: %w", err)
	}
	exceptions := make([]calendar.Exception, 0, len(stored))
	for _, e := range stored {
		exceptions = append(exceptions, calendar.Exception{Date: e.Date, Name: e.Name})
	}
	return calendar.NewClassifier(holidays, recesses, exceptions, maxLookahead)
}
