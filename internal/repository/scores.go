package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rskariadi-dev/manrura/internal/domain"
)

type scoreRow struct {
	WardID         string         `db:"ward_id"`
	PointID        string         `db:"point_id"`
	Slot           string         `db:"slot"`
	Score          sql.NullInt64  `db:"score"`
	Notes          string         `db:"notes"`
	EvidenceName   sql.NullString `db:"evidence_name"`
	EvidenceURL    sql.NullString `db:"evidence_url"`
	EvidenceType   sql.NullString `db:"evidence_type"`
	EvidenceFileID sql.NullString `db:"evidence_file_id"`
	AssessorID     sql.NullString `db:"assessor_id"`
}

const scoreColumns = `ward_id, point_id, slot, score, notes, evidence_name, evidence_url, evidence_type, evidence_file_id, assessor_id`

func (row scoreRow) toScore() domain.AssessmentScore {
	s := domain.AssessmentScore{
		Notes:      row.Notes,
		AssessorID: row.AssessorID.String,
	}
	if row.Score.Valid {
		v := int(row.Score.Int64)
		s.Score = &v
	}
	if row.EvidenceFileID.Valid || row.EvidenceURL.Valid {
		s.Evidence = &domain.Evidence{
			Name:   row.EvidenceName.String,
			URL:    row.EvidenceURL.String,
			Type:   row.EvidenceType.String,
			FileID: row.EvidenceFileID.String,
		}
	}
	return s
}

func scoreArgs(wardID, pointID string, slot domain.ScoreSlot, s domain.AssessmentScore, now time.Time) []any {
	var score sql.NullInt64
	if s.Score != nil {
		score = sql.NullInt64{Int64: int64(*s.Score), Valid: true}
	}
	var ev domain.Evidence
	hasEvidence := s.Evidence != nil
	if hasEvidence {
		ev = *s.Evidence
	}
	nullable := func(v string) sql.NullString {
		return sql.NullString{String: v, Valid: hasEvidence}
	}
	return []any{
		wardID, pointID, string(slot), score, s.Notes,
		nullable(ev.Name), nullable(ev.URL), nullable(ev.Type), nullable(ev.FileID),
		nullString(s.AssessorID), now,
	}
}

// GetAllAssessments loads every stored score, keyed by ward then point.
func (r *Repository) GetAllAssessments() (domain.AllAssessments, error) {
	query := `SELECT ` + scoreColumns + ` FROM assessment_scores ORDER BY ward_id, point_id, slot`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows := make([]scoreRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	all := make(domain.AllAssessments)
	for _, row := range rows {
		data, ok := all[row.WardID]
		if !ok {
			data = make(domain.AssessmentData)
			all[row.WardID] = data
		}
		ps := data[row.PointID]
		score := row.toScore()
		ps.SetSlot(domain.ScoreSlot(row.Slot), &score)
		data[row.PointID] = ps
	}

	return all, nil
}

// GetPointScores returns both scores of one point; missing slots are nil.
func (r *Repository) GetPointScores(wardID, pointID string) (domain.PointScores, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return selectPointScores(ctx, r.db, wardID, pointID)
}

func selectPointScores(ctx context.Context, q sqlx.ExtContext, wardID, pointID string) (domain.PointScores, error) {
	query := q.Rebind(`SELECT ` + scoreColumns + ` FROM assessment_scores WHERE ward_id = ? AND point_id = ?`)

	rows := make([]scoreRow, 0)
	if err := sqlx.SelectContext(ctx, q, &rows, query, wardID, pointID); err != nil {
		return domain.PointScores{}, err
	}

	var ps domain.PointScores
	for _, row := range rows {
		score := row.toScore()
		ps.SetSlot(domain.ScoreSlot(row.Slot), &score)
	}
	return ps, nil
}

// ApplyScoreUpdate merges u into the stored score inside one transaction, creating the score
// when the triple has never been written, and returns the result.
func (r *Repository) ApplyScoreUpdate(wardID, pointID string, slot domain.ScoreSlot, u domain.ScoreUpdate) (domain.AssessmentScore, error) {
	merged, _, err := r.ApplyScoreUpdateChecked(wardID, pointID, slot, u, nil)
	return merged, err
}

// ScoreCheck sees the point's stored scores inside the update transaction. A non-nil error
// aborts the update and is returned as is.
type ScoreCheck func(before domain.PointScores) error

// ApplyScoreUpdateChecked is ApplyScoreUpdate with check run against the scores it is about to
// merge into. Concurrent updates of the same ward are serialized, so nothing written between
// the check and the upsert can go unseen. It also returns the scores as they were before.
func (r *Repository) ApplyScoreUpdateChecked(wardID, pointID string, slot domain.ScoreSlot, u domain.ScoreUpdate, check ScoreCheck) (domain.AssessmentScore, domain.PointScores, error) {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.AssessmentScore{}, domain.PointScores{}, err
	}
	defer tx.Rollback()

	// sqlite runs on a single connection, so its transactions are already serial
	if tx.DriverName() != "sqlite3" {
		var id string
		lock := tx.Rebind(`SELECT id FROM wards WHERE id = ? FOR UPDATE`)
		if err := tx.GetContext(ctx, &id, lock, wardID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.AssessmentScore{}, domain.PointScores{}, ErrReference
			}
			return domain.AssessmentScore{}, domain.PointScores{}, err
		}
	}

	before, err := selectPointScores(ctx, tx, wardID, pointID)
	if err != nil {
		return domain.AssessmentScore{}, domain.PointScores{}, err
	}

	if check != nil {
		if err := check(before); err != nil {
			return domain.AssessmentScore{}, before, err
		}
	}

	current := domain.AssessmentScore{}
	if stored := before.Slot(slot); stored != nil {
		current = *stored
	}
	merged := current.Merge(u)

	upsert := tx.Rebind(`
		INSERT INTO assessment_scores (` + scoreColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ward_id, point_id, slot) DO UPDATE SET
			score = excluded.score,
			notes = excluded.notes,
			evidence_name = excluded.evidence_name,
			evidence_url = excluded.evidence_url,
			evidence_type = excluded.evidence_type,
			evidence_file_id = excluded.evidence_file_id,
			assessor_id = excluded.assessor_id,
			updated_at = excluded.updated_at
	`)
	if _, err := tx.ExecContext(ctx, upsert, scoreArgs(wardID, pointID, slot, merged, time.Now().UTC())...); err != nil {
		return domain.AssessmentScore{}, before, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return domain.AssessmentScore{}, before, err
	}

	return merged, before, nil
}
