package repository

import (
	"time"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

func (r *Repository) CreateWard(ward *domain.Ward) error {
	query := r.db.Rebind(`INSERT INTO wards (id, name, created_at) VALUES (?, ?, ?)`)

	ctx, cancel := r.queryContext()
	defer cancel()

	if ward.CreatedAt.IsZero() {
		ward.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, query, ward.ID, ward.Name, ward.CreatedAt); err != nil {
		return mapError(err)
	}

	return nil
}

func (r *Repository) GetWardByID(id string) (*domain.Ward, error) {
	query := r.db.Rebind(`SELECT id, name, created_at FROM wards WHERE id = ?`)

	ctx, cancel := r.queryContext()
	defer cancel()

	ward := &domain.Ward{}
	if err := r.db.GetContext(ctx, ward, query, id); err != nil {
		return nil, err
	}

	return ward, nil
}

func (r *Repository) GetAllWards() ([]domain.Ward, error) {
	query := `SELECT id, name, created_at FROM wards ORDER BY created_at, id`

	ctx, cancel := r.queryContext()
	defer cancel()

	wards := make([]domain.Ward, 0)
	if err := r.db.SelectContext(ctx, &wards, query); err != nil {
		return nil, err
	}

	return wards, nil
}
