package reconcile

import (
	"time"

	"github.com/empirica-legal/expediente-tracker/internal/calendar"
	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/internal/fetch"
	"github.com/empirica-legal/expediente-tracker/internal/identity"
)

// Engine classifies incoming rows against stored publications.
type Engine struct {
	classifier *calendar.Classifier
	prefixLen  int
	now        func() time.Time
}

func NewEngine(classifier *calendar.Classifier, partyPrefixLen int) *Engine {
	if partyPrefixLen <= 0 {
		partyPrefixLen = identity.DefaultPartyPrefixLen
	}
	return &Engine{
		classifier: classifier,
		prefixLen:  partyPrefixLen,
		now:        time.Now,
	}
}

// Reconcile builds a merge plan for one source's rows. Pure computation: no
// I/O, no mutation of stored. Empty input yields an empty plan.
func (e *Engine) Reconcile(caseID uint, stored []database.Publication, rows []fetch.Row, source fetch.Kind) MergePlan {
	plan := MergePlan{CaseID: caseID, Source: source}

	for _, row := range rows {
		cand, malformed := e.parseRow(caseID, row, source)
		if malformed != "" {
			plan.Flagged = append(plan.Flagged, FlaggedRow{
				Publication: cand,
				Reason:      FlagDataQuality,
				Detail:      malformed,
			})
			if malformed == reasonNoIdentity {
				// Nothing to match on; dropped from inserts but reported.
				continue
			}
			// Date fallback rows stay in the batch.
		}

		attrs := attrsOf(cand)

		if existing, ok := e.matchStored(attrs, stored); ok {
			if upd := e.changedFields(existing, cand); len(upd) > 0 {
				plan.ToUpdate = append(plan.ToUpdate, database.FieldUpdate{
					PublicationID: existing.ID,
					Fields:        upd,
				})
			} else {
				plan.DuplicateCount++
			}
			continue
		}

		// Also dedupe within the batch itself: the court list sometimes
		// repeats a row across result pages.
		if e.matchesBatch(attrs, plan.ToInsert) {
			plan.DuplicateCount++
			continue
		}

		if cls, err := e.classifier.Classify(cand.Date); err == nil && cls.NonBusinessDay {
			plan.Flagged = append(plan.Flagged, FlaggedRow{
				Publication: cand,
				Reason:      FlagNonBusinessDay,
				Detail:      cls.Reason,
			})
		}
		plan.ToInsert = append(plan.ToInsert, cand)
	}

	return plan
}

const (
	reasonNoIdentity   = "row has neither agreement id nor document type"
	reasonDateFallback = "publication date missing or unparseable; ingestion date used"
)

// parseRow validates a raw row into a publication candidate. Returns a
// non-empty reason when the row is malformed: rows with no identity content
// at all are dropped (but reported); rows with a bad date fall back to the
// ingestion date, mirroring the tolerant behavior of the court list itself.
func (e *Engine) parseRow(caseID uint, row fetch.Row, source fetch.Kind) (database.Publication, string) {
	pub := database.Publication{
		CaseID:      caseID,
		AgreementID: identity.Normalize(row.AgreementID),
		Document:    identity.Normalize(row.Document),
		Proceeding:  identity.Normalize(row.Proceeding),
		Parties:     identity.Normalize(row.Parties),
		FetchedAt:   e.now(),
		Source:      source.String(),
	}

	if !identity.HasLetterOrDigit(pub.AgreementID) && !identity.HasLetterOrDigit(pub.Document) {
		return pub, reasonNoIdentity
	}

	date, err := fetch.ParseRowDate(row.Date)
	if err != nil {
		pub.Date = truncateDay(e.now())
		return pub, reasonDateFallback
	}
	pub.Date = date
	return pub, ""
}

func (e *Engine) matchStored(attrs identity.Attrs, stored []database.Publication) (database.Publication, bool) {
	for _, p := range stored {
		if identity.Match(attrs, attrsOf(p), e.prefixLen) {
			return p, true
		}
	}
	return database.Publication{}, false
}

func (e *Engine) matchesBatch(attrs identity.Attrs, accepted []database.Publication) bool {
	for _, p := range accepted {
		if identity.Match(attrs, attrsOf(p), e.prefixLen) {
			return true
		}
	}
	return false
}

// changedFields diffs the amendable fields. Identity fields (agreement id,
// date) are never amended. Only non-empty incoming values count as changes:
// a source that omits a column must not erase stored data.
func (e *Engine) changedFields(existing, incoming database.Publication) map[string]string {
	changed := make(map[string]string)

	if incoming.Document != "" && identity.NormalizeKey(incoming.Document) != identity.NormalizeKey(existing.Document) {
		changed["document"] = incoming.Document
	}
	if incoming.Proceeding != "" && incoming.Proceeding != existing.Proceeding {
		changed["proceeding"] = incoming.Proceeding
	}
	if incoming.Parties != "" && incoming.Parties != existing.Parties {
		changed["parties"] = incoming.Parties
	}

	if len(changed) == 0 {
		return nil
	}
	return changed
}

func attrsOf(p database.Publication) identity.Attrs {
	return identity.Attrs{
		AgreementID: p.AgreementID,
		Document:    p.Document,
		Parties:     p.Parties,
		Date:        p.Date,
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
