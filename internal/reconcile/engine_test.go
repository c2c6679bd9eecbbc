package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empirica-legal/expediente-tracker/internal/calendar"
	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/internal/fetch"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	classifier, err := calendar.NewClassifier(calendar.MexicanStatutoryHolidays(), nil, nil, 0)
	require.NoError(t, err)
	e := NewEngine(classifier, 40)
	// Pin the clock so date-fallback rows are deterministic.
	e.now = func() time.Time {
		return time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	}
	return e
}

func TestReconcileNewRow(t *testing.T) {
	e := newTestEngine(t)

	rows := []fetch.Row{
		{AgreementID: "AC-100", Document: "AUTO DE RADICACION", Proceeding: "ORDINARIO CIVIL", Parties: "PÉREZ VS LÓPEZ", Date: "2024-03-01"},
	}

	plan := e.Reconcile(7, nil, rows, fetch.KindDirect)

	require.Len(t, plan.ToInsert, 1)
	assert.Empty(t, plan.ToUpdate)
	assert.Zero(t, plan.DuplicateCount)
	assert.Empty(t, plan.Flagged, "an ordinary friday raises no flag")

	pub := plan.ToInsert[0]
	assert.Equal(t, uint(7), pub.CaseID)
	assert.Equal(t, "AC-100", pub.AgreementID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), pub.Date)
	assert.Equal(t, "direct", pub.Source)
}

func TestReconcileWhitespaceDuplicate(t *testing.T) {
	e := newTestEngine(t)

	stored := []database.Publication{{
		CaseID:      7,
		AgreementID: "AC-100",
		Document:    "AUTO DE RADICACION",
		Proceeding:  "ORDINARIO CIVIL",
		Parties:     "PÉREZ VS LÓPEZ",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}}
	stored[0].ID = 11

	rows := []fetch.Row{
		{AgreementID: " AC-100 ", Document: "AUTO  DE  RADICACION", Proceeding: "ORDINARIO CIVIL", Parties: " PÉREZ VS LÓPEZ ", Date: "01/03/2024"},
	}

	plan := e.Reconcile(7, stored, rows, fetch.KindDirect)

	assert.Empty(t, plan.ToInsert)
	assert.Empty(t, plan.ToUpdate)
	assert.Equal(t, 1, plan.DuplicateCount, "re-rendered whitespace must not create a second record")
}

func TestReconcileUpdatedFields(t *testing.T) {
	e := newTestEngine(t)

	stored := []database.Publication{{
		CaseID:      7,
		AgreementID: "AC-100",
		Document:    "AUTO DE RADICACION",
		Proceeding:  "ORDINARIO CIVIL",
		Parties:     "PÉREZ VS LÓPEZ",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}}
	stored[0].ID = 11

	rows := []fetch.Row{
		{AgreementID: "AC-100", Document: "AUTO DE RADICACION", Proceeding: "ORDINARIO CIVIL ORAL", Parties: "PÉREZ VS LÓPEZ", Date: "2024-03-01"},
	}

	plan := e.Reconcile(7, stored, rows, fetch.KindDirect)

	assert.Empty(t, plan.ToInsert)
	require.Len(t, plan.ToUpdate, 1)
	assert.Equal(t, uint(11), plan.ToUpdate[0].PublicationID)
	assert.Equal(t, map[string]string{"proceeding": "ORDINARIO CIVIL ORAL"}, plan.ToUpdate[0].Fields)
}

func TestReconcileEmptyIncomingFieldIsNotAChange(t *testing.T) {
	e := newTestEngine(t)

	stored := []database.Publication{{
		CaseID:      7,
		AgreementID: "AC-100",
		Document:    "AUTO DE RADICACION",
		Proceeding:  "ORDINARIO CIVIL",
		Parties:     "PÉREZ VS LÓPEZ",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}}
	stored[0].ID = 11

	// The proxy rendering omits the proceeding column entirely.
	rows := []fetch.Row{
		{AgreementID: "AC-100", Document: "AUTO DE RADICACION", Parties: "PÉREZ VS LÓPEZ", Date: "2024-03-01"},
	}

	plan := e.Reconcile(7, stored, rows, fetch.KindProxy)

	assert.Empty(t, plan.ToUpdate, "an omitted column must not erase stored data")
	assert.Equal(t, 1, plan.DuplicateCount)
}

func TestReconcileRowWithoutIdentity(t *testing.T) {
	e := newTestEngine(t)

	rows := []fetch.Row{
		{Proceeding: "ORDINARIO CIVIL", Parties: "PÉREZ VS LÓPEZ", Date: "2024-03-01"},
		{AgreementID: "---", Document: " / ", Parties: "OTROS", Date: "2024-03-01"},
	}

	plan := e.Reconcile(7, nil, rows, fetch.KindDirect)

	assert.Empty(t, plan.ToInsert, "rows with no matchable identity are dropped")
	require.Len(t, plan.Flagged, 2)
	for _, fr := range plan.Flagged {
		assert.Equal(t, FlagDataQuality, fr.Reason)
	}
}

func TestReconcileDateFallback(t *testing.T) {
	e := newTestEngine(t)

	rows := []fetch.Row{
		{AgreementID: "AC-200", Document: "SENTENCIA", Parties: "PÉREZ VS LÓPEZ", Date: "fecha pendiente"},
	}

	plan := e.Reconcile(7, nil, rows, fetch.KindDirect)

	require.Len(t, plan.ToInsert, 1)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), plan.ToInsert[0].Date,
		"unparseable date falls back to the ingestion day")
	require.Len(t, plan.Flagged, 1)
	assert.Equal(t, FlagDataQuality, plan.Flagged[0].Reason)
}

func TestReconcileNonBusinessDayFlag(t *testing.T) {
	e := newTestEngine(t)

	// 2024-03-02 is a Saturday.
	rows := []fetch.Row{
		{AgreementID: "AC-300", Document: "AUTO", Parties: "PÉREZ VS LÓPEZ", Date: "2024-03-02"},
	}

	plan := e.Reconcile(7, nil, rows, fetch.KindDirect)

	require.Len(t, plan.ToInsert, 1, "the flag is advisory, the row still inserts")
	require.Len(t, plan.Flagged, 1)
	assert.Equal(t, FlagNonBusinessDay, plan.Flagged[0].Reason)
	assert.Equal(t, "Saturday", plan.Flagged[0].Detail)
}

func TestReconcileBatchDedup(t *testing.T) {
	e := newTestEngine(t)

	// The court list repeats rows across result pages.
	rows := []fetch.Row{
		{AgreementID: "AC-100", Document: "AUTO", Parties: "PÉREZ VS LÓPEZ", Date: "2024-03-01"},
		{AgreementID: "AC-100", Document: "AUTO", Parties: "PÉREZ VS LÓPEZ", Date: "2024-03-01"},
	}

	plan := e.Reconcile(7, nil, rows, fetch.KindDirect)

	assert.Len(t, plan.ToInsert, 1)
	assert.Equal(t, 1, plan.DuplicateCount)
}

func TestReconcileIdempotent(t *testing.T) {
	e := newTestEngine(t)

	rows := []fetch.Row{
		{AgreementID: "AC-100", Document: "AUTO", Parties: "A VS B", Date: "2024-03-01"},
		{AgreementID: "AC-101", Document: "SENTENCIA", Parties: "A VS B", Date: "2024-03-04"},
		{Document: "ACUERDO", Parties: "C VS D", Date: "2024-03-04"},
	}

	first := e.Reconcile(7, nil, rows, fetch.KindDirect)
	require.Len(t, first.ToInsert, 3)

	// Pretend the first plan was committed and the same page is fetched again.
	second := e.Reconcile(7, first.ToInsert, rows, fetch.KindDirect)
	assert.Empty(t, second.ToInsert)
	assert.Empty(t, second.ToUpdate)
	assert.Equal(t, len(rows), second.DuplicateCount)
}

func TestReconcilePreservesOrder(t *testing.T) {
	e := newTestEngine(t)

	rows := []fetch.Row{
		{AgreementID: "AC-103", Document: "AUTO", Parties: "A", Date: "2024-03-04"},
		{AgreementID: "AC-101", Document: "AUTO", Parties: "B", Date: "2024-03-01"},
		{AgreementID: "AC-102", Document: "AUTO", Parties: "C", Date: "2024-03-04"},
	}

	plan := e.Reconcile(7, nil, rows, fetch.KindDirect)

	require.Len(t, plan.ToInsert, 3)
	assert.Equal(t, "AC-103", plan.ToInsert[0].AgreementID)
	assert.Equal(t, "AC-101", plan.ToInsert[1].AgreementID)
	assert.Equal(t, "AC-102", plan.ToInsert[2].AgreementID)
}

func TestReconcileEmptyInput(t *testing.T) {
	e := newTestEngine(t)
	plan := e.Reconcile(7, nil, nil, fetch.KindDirect)
	assert.True(t, plan.Empty())
}
