package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/domain"
)

func (h *Handler) AddAssessmentPeriod(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	if err := assessment.AuthorizeManage(myInfo(r)); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var req struct {
		Name      string `json:"name" validate:"required,max=200"`
		StartDate string `json:"startDate" validate:"required"`
		EndDate   string `json:"endDate" validate:"required"`
	}

	if err := h.decodePayload(payload, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	period := &domain.AssessmentPeriod{
		ID:        "period-" + uuid.NewString(),
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
	}

	existing, err := h.repository.GetAllAssessmentPeriods()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := assessment.ValidatePeriod(*period, existing); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateAssessmentPeriod(period); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.invalidateSnapshot()

	h.successResponse(w, r, "assessment period created", period)
}
