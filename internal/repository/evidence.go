package repository

import (
	"time"

	"github.com/rskariadi-dev/manrura/internal/domain"
)

func (r *Repository) CreateEvidenceFile(f *domain.EvidenceFile) error {
	query := r.db.Rebind(`
		INSERT INTO evidence_files (id, name, mime_type, size, content, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	ctx, cancel := r.transactionContext()
	defer cancel()

	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	f.Size = int64(len(f.Content))

	args := []any{f.ID, f.Name, f.MimeType, f.Size, f.Content, f.UploadedBy, f.CreatedAt}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err)
	}

	return nil
}

func (r *Repository) GetEvidenceFile(id string) (*domain.EvidenceFile, error) {
	query := r.db.Rebind(`
		SELECT id, name, mime_type, size, content, uploaded_by, created_at
		FROM evidence_files WHERE id = ?
	`)

	ctx, cancel := r.transactionContext()
	defer cancel()

	f := &domain.EvidenceFile{}
	if err := r.db.GetContext(ctx, f, query, id); err != nil {
		return nil, err
	}

	return f, nil
}

// GetEvidenceWards lists the wards whose scores reference the file.
func (r *Repository) GetEvidenceWards(fileID string) ([]string, error) {
	query := r.db.Rebind(`SELECT DISTINCT ward_id FROM assessment_scores WHERE evidence_file_id = ? ORDER BY ward_id`)

	ctx, cancel := r.queryContext()
	defer cancel()

	wardIDs := make([]string, 0)
	if err := r.db.SelectContext(ctx, &wardIDs, query, fileID); err != nil {
		return nil, err
	}
	return wardIDs, nil
}
