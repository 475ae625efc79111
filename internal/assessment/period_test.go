package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func january() domain.AssessmentPeriod {
	return domain.AssessmentPeriod{ID: "p-jan", Name: "January", StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31)}
}

func TestIsActive_EndDateIncludesWholeDay(t *testing.T) {
	periods := []domain.AssessmentPeriod{january()}

	assert.True(t, IsActive(periods, time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, IsActive(periods, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestIsActive_Boundaries(t *testing.T) {
	p := january()

	testCases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", date(2023, 12, 31), false},
		{"exactly start", date(2024, 1, 1), true},
		{"mid period", date(2024, 1, 15), true},
		{"last millisecond", time.Date(2024, 1, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), true},
		{"just after", time.Date(2024, 1, 31, 23, 59, 59, int(999*time.Millisecond)+1, time.UTC), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PeriodContains(p, tc.now))
		})
	}
}

func TestIsActive_NoPeriods(t *testing.T) {
	assert.False(t, IsActive(nil, date(2024, 1, 1)))
	_, ok := ActivePeriod(nil, date(2024, 1, 1))
	assert.False(t, ok)
}

func TestActivePeriod_FirstMatchWins(t *testing.T) {
	a := domain.AssessmentPeriod{ID: "a", Name: "A", StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31)}
	b := domain.AssessmentPeriod{ID: "b", Name: "B", StartDate: date(2024, 1, 15), EndDate: date(2024, 2, 15)}

	p, ok := ActivePeriod([]domain.AssessmentPeriod{b, a}, date(2024, 1, 20))
	require.True(t, ok)
	assert.Equal(t, "b", p.ID)
}

func TestValidatePeriod(t *testing.T) {
	existing := []domain.AssessmentPeriod{january()}

	testCases := []struct {
		name      string
		candidate domain.AssessmentPeriod
		want      error
	}{
		{"missing name", domain.AssessmentPeriod{StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 31)}, ErrPeriodName},
		{"inverted range", domain.AssessmentPeriod{Name: "x", StartDate: date(2024, 3, 31), EndDate: date(2024, 3, 1)}, ErrPeriodRange},
		{"overlap", domain.AssessmentPeriod{Name: "x", StartDate: date(2024, 1, 20), EndDate: date(2024, 2, 10)}, ErrPeriodOverlap},
		{"touches last day", domain.AssessmentPeriod{Name: "x", StartDate: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), EndDate: date(2024, 2, 10)}, ErrPeriodOverlap},
		{"single day", domain.AssessmentPeriod{Name: "x", StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 1)}, nil},
		{"adjacent", domain.AssessmentPeriod{Name: "x", StartDate: date(2024, 2, 1), EndDate: date(2024, 2, 29)}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePeriod(tc.candidate, existing)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSortPeriods_MostRecentFirst(t *testing.T) {
	periods := []domain.AssessmentPeriod{
		{ID: "old", StartDate: date(2023, 1, 1)},
		{ID: "new", StartDate: date(2024, 6, 1)},
		{ID: "mid", StartDate: date(2024, 1, 1)},
	}
	SortPeriods(periods)

	assert.Equal(t, "new", periods[0].ID)
	assert.Equal(t, "mid", periods[1].ID)
	assert.Equal(t, "old", periods[2].ID)
}
