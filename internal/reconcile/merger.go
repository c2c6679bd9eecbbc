package reconcile

import (
	"errors"
	"fmt"
	"sync"

	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/internal/fetch"
	"github.com/empirica-legal/expediente-tracker/internal/identity"
)

// ErrConflict is returned when two sources claim different values for the
// same field of the same publication. The core never silently picks a winner
// for conflicting factual claims; the caller resolves or retries.
var ErrConflict = errors.New("conflicting field updates between sources")

// ErrStaleCycle is returned when a plan's sequence number is below the last
// committed cycle for the case. The caller must discard the plan.
var ErrStaleCycle = errors.New("stale check cycle")

// Merger collapses plans produced by concurrent fetch sources for the same
// case in the same check cycle, and gates out superseded cycles. The merge
// itself is pure; the only state is the last committed sequence per case.
type Merger struct {
	prefixLen int

	mu            sync.Mutex
	lastCommitted map[uint]uint64
}

func NewMerger(partyPrefixLen int) *Merger {
	if partyPrefixLen <= 0 {
		partyPrefixLen = identity.DefaultPartyPrefixLen
	}
	return &Merger{
		prefixLen:     partyPrefixLen,
		lastCommitted: make(map[uint]uint64),
	}
}

// candidate tracks an insert together with the fidelity of the source that
// produced it, for tie-breaking.
type candidate struct {
	pub  database.Publication
	kind fetch.Kind
}

// MergeSources combines the per-source plans of one check cycle. All input
// plans must have been computed against the same stored snapshot. Identity
// matching is re-run across the union so that two sources independently
// reporting the same new publication yield a single insert: ties keep the
// candidate with the more complete field set, then the higher-priority
// source (direct > proxy > extension).
func (m *Merger) MergeSources(caseID uint, sequence uint64, plans ...MergePlan) (MergePlan, error) {
	m.mu.Lock()
	last, seen := m.lastCommitted[caseID]
	m.mu.Unlock()
	if seen && sequence <= last {
		return MergePlan{}, fmt.Errorf("%w: sequence %d, last committed %d", ErrStaleCycle, sequence, last)
	}

	merged := MergePlan{CaseID: caseID}

	var inserts []candidate
	for _, plan := range plans {
		merged.DuplicateCount += plan.DuplicateCount

		for _, pub := range plan.ToInsert {
			idx := m.findMatch(inserts, pub)
			if idx < 0 {
				inserts = append(inserts, candidate{pub: pub, kind: plan.Source})
				continue
			}
			// Replace in place so first-seen ordering survives the tie-break.
			if wins(candidate{pub: pub, kind: plan.Source}, inserts[idx]) {
				inserts[idx] = candidate{pub: pub, kind: plan.Source}
			}
		}

		for _, fr := range plan.Flagged {
			if !m.flaggedSeen(merged.Flagged, fr) {
				merged.Flagged = append(merged.Flagged, fr)
			}
		}
	}

	updates, err := mergeUpdates(plans)
	if err != nil {
		return MergePlan{}, err
	}
	merged.ToUpdate = updates

	for _, c := range inserts {
		merged.ToInsert = append(merged.ToInsert, c.pub)
	}
	return merged, nil
}

// CommitSequence records that a cycle's plan was persisted. Later cycles
// with lower or equal sequence numbers become no-ops.
func (m *Merger) CommitSequence(caseID uint, sequence uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sequence > m.lastCommitted[caseID] {
		m.lastCommitted[caseID] = sequence
	}
}

// LastCommitted returns the last committed sequence for a case.
func (m *Merger) LastCommitted(caseID uint) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCommitted[caseID]
}

func (m *Merger) findMatch(inserts []candidate, pub database.Publication) int {
	attrs := attrsOf(pub)
	for i, c := range inserts {
		if identity.Match(attrs, attrsOf(c.pub), m.prefixLen) {
			return i
		}
	}
	return -1
}

func (m *Merger) flaggedSeen(flagged []FlaggedRow, fr FlaggedRow) bool {
	attrs := attrsOf(fr.Publication)
	for _, f := range flagged {
		if f.Reason == fr.Reason && identity.Match(attrs, attrsOf(f.Publication), m.prefixLen) {
			return true
		}
	}
	return false
}

// wins reports whether challenger should replace incumbent: more non-empty
// fields first, then source priority.
func wins(challenger, incumbent candidate) bool {
	cc, ci := completeness(challenger.pub), completeness(incumbent.pub)
	if cc != ci {
		return cc > ci
	}
	return challenger.kind < incumbent.kind
}

func completeness(p database.Publication) int {
	count := 0
	for _, f := range []string{p.AgreementID, p.Document, p.Proceeding, p.Parties} {
		if f != "" {
			count++
		}
	}
	if !p.Date.IsZero() {
		count++
	}
	return count
}

// mergeUpdates merges per-source field updates keyed by (publication, field).
// Identical claims collapse; contradictory claims fail the whole merge.
func mergeUpdates(plans []MergePlan) ([]database.FieldUpdate, error) {
	type key struct {
		id    uint
		field string
	}
	values := make(map[key]string)
	var order []database.FieldUpdate
	index := make(map[uint]int)

	for _, plan := range plans {
		for _, upd := range plan.ToUpdate {
			i, ok := index[upd.PublicationID]
			if !ok {
				order = append(order, database.FieldUpdate{
					PublicationID: upd.PublicationID,
					Fields:        make(map[string]string),
				})
				i = len(order) - 1
				index[upd.PublicationID] = i
			}
			for field, value := range upd.Fields {
				k := key{upd.PublicationID, field}
				if prev, exists := values[k]; exists && prev != value {
					return nil, fmt.Errorf("%w: publication %d field %q: %q vs %q",
						ErrConflict, upd.PublicationID, field, prev, value)
				}
				values[k] = value
				order[i].Fields[field] = value
			}
		}
	}
	return order, nil
}
