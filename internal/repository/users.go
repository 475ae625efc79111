package repository

import (
	"database/sql"
	"time"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

const userColumns = `id, name, email, password_hash, role, COALESCE(ward_id, '') AS ward_id, created_at`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *Repository) CreateUser(user *domain.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (id, name, email, password_hash, role, ward_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	ctx, cancel := r.queryContext()
	defer cancel()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	args := []any{user.ID, user.Name, user.Email, user.PasswordHash, user.Role, nullString(user.WardID), user.CreatedAt}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err)
	}

	return nil
}

func (r *Repository) GetUserByID(id string) (*domain.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	ctx, cancel := r.queryContext()
	defer cancel()

	user := &domain.User{}
	if err := r.db.GetContext(ctx, user, query, id); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByEmail(email string) (*domain.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER(?)`)

	ctx, cancel := r.queryContext()
	defer cancel()

	user := &domain.User{}
	if err := r.db.GetContext(ctx, user, query, email); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetAllUsers() ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	ctx, cancel := r.queryContext()
	defer cancel()

	users := make([]domain.User, 0)
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}

	return users, nil
}

// UpdateUserPassword returns sql.ErrNoRows when the user does not exist.
func (r *Repository) UpdateUserPassword(id, passwordHash string) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ? WHERE id = ?`)

	ctx, cancel := r.queryContext()
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
