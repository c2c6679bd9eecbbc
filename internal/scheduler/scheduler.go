// Package scheduler runs the periodic check of every active tracked case.
// The court only publishes on business days, so the whole run is skipped
// when the calendar classifier marks today as inhábil; manual triggers
// through the API are unaffected.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/empirica-legal/expediente-tracker/internal/calendar"
	"github.com/empirica-legal/expediente-tracker/internal/checker"
	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/pkg/logger"
)

type Scheduler struct {
	cronEngine    *cron.Cron
	checker       *checker.Checker
	store         *database.Store
	classifier    func() (*calendar.Classifier, error)
	cronSpec      string
	maxConcurrent int
	logger        *logger.Logger
}

// New builds the scheduler. classifier is re-invoked per run so that
// calendar exception edits take effect without a restart.
func New(chk *checker.Checker, store *database.Store, classifier func() (*calendar.Classifier, error),
	cronSpec string, maxConcurrent int, log *logger.Logger) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Scheduler{
		cronEngine:    cron.New(cron.WithLocation(time.Local)),
		checker:       chk,
		store:         store,
		classifier:    classifier,
		cronSpec:      cronSpec,
		maxConcurrent: maxConcurrent,
		logger:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.cronSpec, s.runAll); err != nil {
		return err
	}
	s.cronEngine.Start()
	s.logger.Info("Scheduler started", "cron", s.cronSpec)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// runAll checks every active case, bounded by maxConcurrent.
func (s *Scheduler) runAll() {
	classifier, err := s.classifier()
	if err != nil {
		s.logger.Error("Scheduled run aborted: calendar configuration broken", "error", err)
		return
	}

	today := time.Now()
	cls, err := classifier.Classify(today)
	if err != nil {
		s.logger.Error("Scheduled run aborted: date classification failed", "error", err)
		return
	}
	if cls.NonBusinessDay {
		s.logger.Info("Skipping scheduled checks: non-business day",
			"date", today.Format("2006-01-02"), "reason", cls.Reason)
		return
	}

	cases, _, err := s.store.ListCases(false, 0, -1)
	if err != nil {
		s.logger.Error("Scheduled run aborted: failed to list cases", "error", err)
		return
	}

	s.logger.Info("Scheduled check run starting", "cases", len(cases))

	semaphore := make(chan struct{}, s.maxConcurrent)
	done := make(chan struct{})
	for _, c := range cases {
		semaphore <- struct{}{}
		go func(caseID uint) {
			defer func() {
				<-semaphore
				done <- struct{}{}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			seq := s.checker.NextSequence(caseID)
			if _, err := s.checker.RunCheckCycle(ctx, caseID, seq); err != nil {
				s.logger.Error("Scheduled check failed", "case_id", caseID, "error", err)
			}
		}(c.ID)
	}
	for range cases {
		<-done
	}

	s.logger.Info("Scheduled check run finished", "cases", len(cases))
}
