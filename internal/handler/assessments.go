package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/domain"
	"github.com/rskariadi-dev/manrura/internal/metrics"
)

// UpdateAssessment merges a partial score update. The policy the client already applied is
// checked again here against stored state.
func (h *Handler) UpdateAssessment(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	me := myInfo(r)

	var req struct {
		WardID  string             `json:"wardId" validate:"required"`
		PoinID  string             `json:"poinId" validate:"required"`
		Role    string             `json:"role" validate:"required,oneof=wardStaff assessor"`
		Updates domain.ScoreUpdate `json:"updates"`
	}

	if err := h.decodePayload(payload, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := req.Updates.Validate(); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !h.checklist.HasPoint(req.PoinID) {
		h.errorResponse(w, r, "unknown checklist point: "+req.PoinID)
		return
	}

	ward, err := h.repository.GetWardByID(req.WardID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "ward not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	periods, err := h.repository.GetAllAssessmentPeriods()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	slot := domain.ScoreSlot(req.Role)
	active := assessment.IsActive(periods, h.clock())

	update := req.Updates
	update.AssessorID = ""
	if slot == domain.SlotAssessor {
		update.AssessorID = me.ID
	}

	// the lock is checked against the assessor score read in the same transaction as the write
	merged, before, err := h.repository.ApplyScoreUpdateChecked(ward.ID, req.PoinID, slot, update, func(before domain.PointScores) error {
		return assessment.Authorize(me, ward.ID, slot, active, before.Assessor)
	})
	if err != nil {
		var authErr *assessment.AuthorizationError
		if errors.As(err, &authErr) {
			metrics.PolicyRejections.WithLabelValues(policyReason(authErr)).Inc()
			h.errorResponse(w, r, err.Error())
			return
		}
		h.internalServerError(w, r, err)
		return
	}
	h.invalidateSnapshot()

	if update.Score != nil {
		metrics.ScoresRecorded.WithLabelValues(string(slot), strconv.Itoa(*update.Score)).Inc()
	}
	if slot == domain.SlotAssessor && update.Score != nil && !before.Assessor.Scored() {
		h.notifyValidated(r, ward, req.PoinID, *update.Score, me)
	}

	h.successResponse(w, r, "assessment saved", merged)
}

func policyReason(err *assessment.AuthorizationError) string {
	switch {
	case errors.Is(err, assessment.ErrPeriodInactive):
		return "period_inactive"
	case errors.Is(err, assessment.ErrPointLocked):
		return "point_locked"
	case errors.Is(err, assessment.ErrWrongWard):
		return "wrong_ward"
	case errors.Is(err, assessment.ErrReadOnly):
		return "read_only"
	case errors.Is(err, assessment.ErrNotAuthenticated):
		return "not_authenticated"
	default:
		return "slot_not_allowed"
	}
}

// notifyValidated tells the ward's staff that one of their points has been validated and is
// now locked.
func (h *Handler) notifyValidated(r *http.Request, ward *domain.Ward, pointID string, score int, assessor *domain.User) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.logInternalServerError(r, err)
		return
	}

	pointText := ""
	if p, ok := h.checklist.Point(pointID); ok {
		pointText = p.Text
	}

	for _, u := range users {
		if u.Role != domain.RoleWardStaff || u.WardID != ward.ID {
			continue
		}
		h.notify(r.Context(), domain.MailMessage{
			Type: domain.MailTypePointValidated,
			To:   u.Email,
			Data: domain.PointValidatedMailData{
				Name:         u.Name,
				WardName:     ward.Name,
				PointID:      pointID,
				PointText:    pointText,
				Score:        score,
				AssessorName: assessor.Name,
			},
		})
	}
}
