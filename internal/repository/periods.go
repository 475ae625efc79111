package repository

import (
	"time"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

func (r *Repository) CreateAssessmentPeriod(period *domain.AssessmentPeriod) error {
	query := r.db.Rebind(`
		INSERT INTO assessment_periods (id, name, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)

	ctx, cancel := r.queryContext()
	defer cancel()

	if period.CreatedAt.IsZero() {
		period.CreatedAt = time.Now().UTC()
	}

	args := []any{period.ID, period.Name, period.StartDate, period.EndDate, period.CreatedAt}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err)
	}

	return nil
}

// GetAllAssessmentPeriods returns periods with the most recent start first.
func (r *Repository) GetAllAssessmentPeriods() ([]domain.AssessmentPeriod, error) {
	query := `
		SELECT id, name, start_date, end_date, created_at
		FROM assessment_periods
		ORDER BY start_date DESC, id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	periods := make([]domain.AssessmentPeriod, 0)
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, err
	}

	return periods, nil
}
