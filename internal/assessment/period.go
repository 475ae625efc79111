package assessment

import (
	"errors"
	"slices"
	"time"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

var (
	ErrPeriodRange   = errors.New("period end date must not be before its start date")
	ErrPeriodOverlap = errors.New("period overlaps an existing assessment period")
	ErrPeriodName    = errors.New("period name is required")
)

// EndOfDay returns the last millisecond of t's calendar day, in t's own location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// PeriodContains reports whether now falls between the start of p and the end of p's last day.
func PeriodContains(p domain.AssessmentPeriod, now time.Time) bool {
	return !now.Before(p.StartDate) && !now.After(EndOfDay(p.EndDate))
}

// ActivePeriod returns the first period, in input order, that contains now.
func ActivePeriod(periods []domain.AssessmentPeriod, now time.Time) (domain.AssessmentPeriod, bool) {
	for _, p := range periods {
		if PeriodContains(p, now) {
			return p, true
		}
	}
	return domain.AssessmentPeriod{}, false
}

func IsActive(periods []domain.AssessmentPeriod, now time.Time) bool {
	_, ok := ActivePeriod(periods, now)
	return ok
}

func periodsOverlap(a, b domain.AssessmentPeriod) bool {
	return !a.StartDate.After(EndOfDay(b.EndDate)) && !b.StartDate.After(EndOfDay(a.EndDate))
}

// ValidatePeriod rejects a candidate whose range is inverted or that overlaps any existing
// period, so that at most one period can ever be active.
func ValidatePeriod(candidate domain.AssessmentPeriod, existing []domain.AssessmentPeriod) error {
	if candidate.Name == "" {
		return ErrPeriodName
	}
	if EndOfDay(candidate.EndDate).Before(candidate.StartDate) {
		return ErrPeriodRange
	}
	for _, p := range existing {
		if periodsOverlap(candidate, p) {
			return ErrPeriodOverlap
		}
	}
	return nil
}

// SortPeriods orders periods by start date, most recent first.
func SortPeriods(periods []domain.AssessmentPeriod) {
	slices.SortStableFunc(periods, func(a, b domain.AssessmentPeriod) int {
		return b.StartDate.Compare(a.StartDate)
	})
}
