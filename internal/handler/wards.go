package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/domain"
	"github.com/rskariadi-dev/manrura/internal/repository"
)

func (h *Handler) AddWard(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	if err := assessment.AuthorizeManage(myInfo(r)); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var req struct {
		ID   string `json:"id" validate:"omitempty,max=64"`
		Name string `json:"name" validate:"required,max=200"`
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

	ward := &domain.Ward{ID: req.ID, Name: req.Name}
	if ward.ID == "" {
		ward.ID = "ward-" + uuid.NewString()
	}

	if err := h.repository.CreateWard(ward); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			h.errorResponse(w, r, "ward already exists")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	h.invalidateSnapshot()

	h.successResponse(w, r, "ward created", ward)
}
