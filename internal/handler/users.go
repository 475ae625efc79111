package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/domain"
	"github.com/rskariadi-dev/manrura/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	if err := assessment.AuthorizeManage(myInfo(r)); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	var req struct {
		ID       string `json:"id" validate:"omitempty,max=64"`
		Name     string `json:"name" validate:"required,max=200"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"required"`
		WardID   string `json:"wardId"`
	}

	if err := h.decodePayload(payload, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Password = strings.TrimSpace(req.Password)
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := &domain.User{
		ID:     req.ID,
		Name:   req.Name,
		Email:  req.Email,
		Role:   domain.Role(req.Role),
		WardID: req.WardID,
	}
	if user.ID == "" {
		user.ID = "user-" + uuid.NewString()
	}
	if err := user.Validate(); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	user.PasswordHash = string(hashedPassword)

	if err := h.repository.CreateUser(user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			h.errorResponse(w, r, "a user with this email already exists")
		case errors.Is(err, repository.ErrReference):
			h.errorResponse(w, r, "ward not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	h.invalidateSnapshot()

	wardName := ""
	if user.WardID != "" {
		if ward, err := h.repository.GetWardByID(user.WardID); err == nil {
			wardName = ward.Name
		}
	}
	h.notify(r.Context(), domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			Name:     user.Name,
			Email:    user.Email,
			Password: req.Password,
			Role:     user.Role,
			WardName: wardName,
		},
	})

	h.successResponse(w, r, "user created", user.Sanitized())
}

// notify queues a mail. The action it belongs to has already succeeded, so failures are only
// logged.
func (h *Handler) notify(ctx context.Context, msg domain.MailMessage) {
	if err := h.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		slog.Error("failed to queue mail", "type", msg.Type, "to", msg.To, "error", err)
	}
}
