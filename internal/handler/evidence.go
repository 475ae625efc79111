package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/domain"
	"github.com/rskariadi-dev/manrura/internal/metrics"
)

func (h *Handler) evidenceURL(fileID string) string {
	return strings.TrimRight(h.config.Server.PublicURL, "/") + "/evidence/" + fileID
}

// UploadFile stores an inline encoded file and returns the reference scores attach.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	me := myInfo(r)
	if !assessment.CapabilitiesFor(me).CanUpload() {
		h.errorResponse(w, r, "only ward staff and assessors can upload evidence")
		return
	}

	periods, err := h.repository.GetAllAssessmentPeriods()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !assessment.IsActive(periods, h.clock()) {
		metrics.PolicyRejections.WithLabelValues("period_inactive").Inc()
		h.errorResponse(w, r, assessment.ErrPeriodInactive.Error())
		return
	}

	var req struct {
		FileData string `json:"fileData" validate:"required"`
		FileName string `json:"fileName" validate:"required,max=255"`
		MimeType string `json:"mimeType"`
	}

	if err := h.decodePayload(payload, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	declared, content, err := domain.DecodeDataURL(req.FileData)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if len(content) == 0 {
		h.errorResponse(w, r, "file is empty")
		return
	}
	if int64(len(content)) > h.config.Upload.MaxBytes {
		h.errorResponse(w, r, fmt.Sprintf("file exceeds the %d byte limit", h.config.Upload.MaxBytes))
		return
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = declared
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(content).String()
	}

	file := &domain.EvidenceFile{
		ID:         uuid.NewString(),
		Name:       filepath.Base(req.FileName),
		MimeType:   mimeType,
		Content:    content,
		UploadedBy: me.ID,
	}
	if err := h.repository.CreateEvidenceFile(file); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	metrics.EvidenceBytes.Observe(float64(file.Size))

	h.successResponse(w, r, "file uploaded", domain.Evidence{
		Name:   file.Name,
		URL:    h.evidenceURL(file.ID),
		Type:   file.MimeType,
		FileID: file.ID,
	})
}

// GetEvidence serves a file to users who can see a ward it is attached to. Files outside the
// caller's reach are reported as missing.
func (h *Handler) GetEvidence(w http.ResponseWriter, r *http.Request) {
	file, err := h.repository.GetEvidenceFile(chi.URLParam(r, "fileId"))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.writeJSON(w, r, http.StatusNotFound, Response{Success: false, Message: "file not found"})
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	wardIDs, err := h.repository.GetEvidenceWards(file.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !assessment.CanFetchEvidence(myInfo(r), file.UploadedBy, wardIDs) {
		h.writeJSON(w, r, http.StatusNotFound, Response{Success: false, Message: "file not found"})
		return
	}

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(int64(len(file.Content)), 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}
