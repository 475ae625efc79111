package domain

import "time"

// EvidenceFile is an uploaded file as stored by the server. Evidence is the reference to it
// that scores carry.
type EvidenceFile struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	MimeType   string    `db:"mime_type"`
	Size       int64     `db:"size"`
	Content    []byte    `db:"content"`
	UploadedBy string    `db:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at"`
}
