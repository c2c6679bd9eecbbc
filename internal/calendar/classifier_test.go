package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T, exceptions []Exception) *Classifier {
	t.Helper()
	recesses := []RecessInterval{
		{StartMonth: time.July, StartDay: 16, EndMonth: time.July, EndDay: 31, Name: "Receso de verano"},
		{StartMonth: time.December, StartDay: 16, EndMonth: time.December, EndDay: 31, Name: "Receso de diciembre"},
	}
	c, err := NewClassifier(MexicanStatutoryHolidays(), recesses, exceptions, 0)
	require.NoError(t, err)
	return c
}

func TestClassify(t *testing.T) {
	exc := []Exception{
		{Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Name: "Acuerdo de pleno"},
	}
	c := newTestClassifier(t, exc)

	tests := []struct {
		name        string
		date        time.Time
		nonBusiness bool
		reason      string
	}{
		{"ordinary friday", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), false, ""},
		{"saturday", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), true, "Saturday"},
		{"sunday", time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), true, "Sunday"},
		{"statutory holiday", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true, "Día del Trabajo"},
		{"summer recess start", time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC), true, "Receso de verano"},
		{"summer recess end", time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC), true, "Receso de verano"},
		{"day after recess", time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), false, ""},
		{"configured exception", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true, "Acuerdo de pleno"},
		{"recess next year too", time.Date(2025, 12, 18, 0, 0, 0, 0, time.UTC), true, "Receso de diciembre"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls, err := c.Classify(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.nonBusiness, cls.NonBusinessDay)
			assert.Equal(t, tt.reason, cls.Reason)
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// Dec 25 2027 is a Saturday: the weekend rule wins over the holiday and
	// the recess so the reason stays deterministic.
	c := newTestClassifier(t, nil)
	cls, err := c.Classify(time.Date(2027, 12, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, cls.NonBusinessDay)
	assert.Equal(t, "Saturday", cls.Reason)
}

func TestClassifyZeroDate(t *testing.T) {
	c := newTestClassifier(t, nil)
	_, err := c.Classify(time.Time{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNextBusinessDay(t *testing.T) {
	c := newTestClassifier(t, nil)

	// From a Friday the next business day skips the weekend.
	next, err := c.NextBusinessDay(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), next)

	// From inside the December recess it lands past the interval.
	next, err = c.NextBusinessDay(time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), next)

	cls, err := c.Classify(next)
	require.NoError(t, err)
	assert.False(t, cls.NonBusinessDay)
}

func TestNextBusinessDayBounded(t *testing.T) {
	// A recess spanning the whole year exhausts the lookahead.
	recesses := []RecessInterval{
		{StartMonth: time.January, StartDay: 1, EndMonth: time.December, EndDay: 31, Name: "cerrado"},
	}
	c, err := NewClassifier(nil, recesses, nil, 10)
	require.NoError(t, err)

	_, err = c.NextBusinessDay(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewClassifierValidation(t *testing.T) {
	_, err := NewClassifier(nil, []RecessInterval{
		{StartMonth: time.July, StartDay: 31, EndMonth: time.July, EndDay: 16, Name: "al revés"},
	}, nil, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewClassifier([]FixedHoliday{{Month: 13, Day: 1, Name: "bad"}}, nil, nil, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewClassifier(nil, nil, []Exception{{Name: "sin fecha"}}, 0)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestParseRecessSpec(t *testing.T) {
	intervals, err := ParseRecessSpec("Receso de verano=07-16..07-31, Receso de diciembre=12-16..12-31")
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.Equal(t, "Receso de verano", intervals[0].Name)
	assert.Equal(t, time.July, intervals[0].StartMonth)
	assert.Equal(t, 16, intervals[0].StartDay)
	assert.Equal(t, 31, intervals[0].EndDay)

	_, err = ParseRecessSpec("sin rango=07-16")
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestParseHolidaySpec(t *testing.T) {
	holidays, err := ParseHolidaySpec("Navidad=12-25,Año Nuevo=01-01")
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, time.December, holidays[0].Month)
	assert.Equal(t, 25, holidays[0].Day)

	_, err = ParseHolidaySpec("Navidad")
	assert.ErrorIs(t, err, ErrConfiguration)
}
