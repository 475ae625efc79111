// Package seed fills a fresh database with the initial administrator and demo data.
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/rskariadi-dev/manrura/internal/config"
	"github.com/rskariadi-dev/manrura/internal/domain"
	"github.com/rskariadi-dev/manrura/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Repository is the write side the seeders need.
type Repository interface {
	CreateUser(user *domain.User) error
	CreateWard(ward *domain.Ward) error
	CreateAssessmentPeriod(period *domain.AssessmentPeriod) error
	ApplyScoreUpdate(wardID, pointID string, slot domain.ScoreSlot, u domain.ScoreUpdate) (domain.AssessmentScore, error)
}

var DemoWards = []domain.Ward{
	{ID: "mawar", Name: "Ruang Mawar"},
	{ID: "melati", Name: "Ruang Melati"},
	{ID: "bougenville", Name: "Ruang Bougenville"},
	{ID: "icu", Name: "Ruang ICU"},
}

var DemoUsers = []domain.User{
	{ID: "assessor-1", Name: "Dr. Budi Santoso", Email: "budi.s@rskariadi.co.id", Role: domain.RoleAssessor},
	{ID: "assessor-2", Name: "Siti Aminah, S.Kep., Ns.", Email: "siti.a@rskariadi.co.id", Role: domain.RoleAssessor},
	{ID: "staff-1", Name: "Perawat Ani", Email: "ani.perawat@rskariadi.co.id", Role: domain.RoleWardStaff, WardID: "mawar"},
	{ID: "staff-2", Name: "Perawat Bayu", Email: "bayu.perawat@rskariadi.co.id", Role: domain.RoleWardStaff, WardID: "melati"},
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// EnsureInitialAdmin creates the configured administrator unless the email is already taken.
func EnsureInitialAdmin(r Repository, cfg *config.Config) error {
	hash, err := hashPassword(cfg.InitialAdmin.Password)
	if err != nil {
		return err
	}

	admin := &domain.User{
		ID:           "admin-1",
		Name:         cfg.InitialAdmin.Name,
		Email:        cfg.InitialAdmin.Email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := r.CreateUser(admin); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	return nil
}

// Demo inserts the demo wards, users and a period covering the current month. Rows that
// already exist are skipped, so it can run repeatedly.
func Demo(r Repository, password string, now time.Time) error {
	for _, w := range DemoWards {
		ward := w
		if err := r.CreateWard(&ward); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("ward %s: %w", w.ID, err)
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	for _, u := range DemoUsers {
		user := u
		user.PasswordHash = hash
		if err := r.CreateUser(&user); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
	}

	period := CurrentMonth(now)
	if err := r.CreateAssessmentPeriod(&period); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("period: %w", err)
	}

	slog.Info("demo data inserted", "wards", len(DemoWards), "users", len(DemoUsers), "period", period.Name)
	return nil
}

// CurrentMonth is a period from the first to the last day of now's month.
func CurrentMonth(now time.Time) domain.AssessmentPeriod {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return domain.AssessmentPeriod{
		ID:        fmt.Sprintf("period-%s", start.Format("2006-01")),
		Name:      fmt.Sprintf("Penilaian %s", start.Format("January 2006")),
		StartDate: start,
		EndDate:   end,
	}
}

// RandomScores gives every ward a staff self-assessment on roughly fraction of the points,
// and an assessor validation on half of those. It returns how many scores were written.
func RandomScores(r Repository, rng *rand.Rand, wards []domain.Ward, pointIDs []string, assessorID string, fraction float64) (int, error) {
	n := 0
	for _, w := range wards {
		for _, pointID := range pointIDs {
			if rng.Float64() >= fraction {
				continue
			}

			staff := domain.ScoreValues[rng.Intn(len(domain.ScoreValues))]
			if _, err := r.ApplyScoreUpdate(w.ID, pointID, domain.SlotWardStaff, domain.ScoreUpdate{Score: &staff}); err != nil {
				return n, err
			}
			n++

			if rng.Intn(2) == 0 {
				continue
			}
			validated := domain.ScoreValues[rng.Intn(len(domain.ScoreValues))]
			u := domain.ScoreUpdate{Score: &validated, AssessorID: assessorID}
			if _, err := r.ApplyScoreUpdate(w.ID, pointID, domain.SlotAssessor, u); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
