package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rskariadi-dev/manrura/internal/assessment"
	"github.com/rskariadi-dev/manrura/internal/domain"
)

func (h *Handler) cacheContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
}

// loadSnapshot returns the complete, unfiltered state, from the cache when possible.
func (h *Handler) loadSnapshot() (*domain.Snapshot, error) {
	ctx, cancel := h.cacheContext()
	defer cancel()

	snap, generation, ok := h.cache.Get(ctx)
	if ok {
		return snap, nil
	}

	users, err := h.repository.GetAllUsers()
	if err != nil {
		return nil, err
	}
	wards, err := h.repository.GetAllWards()
	if err != nil {
		return nil, err
	}
	all, err := h.repository.GetAllAssessments()
	if err != nil {
		return nil, err
	}
	periods, err := h.repository.GetAllAssessmentPeriods()
	if err != nil {
		return nil, err
	}

	for i := range users {
		users[i] = users[i].Sanitized()
	}
	snap = &domain.Snapshot{
		Users:             users,
		Wards:             wards,
		AllAssessments:    all,
		AssessmentPeriods: periods,
	}

	if err := h.cache.Set(ctx, generation, snap); err != nil {
		slog.Warn("failed to cache snapshot", "error", err)
	}
	return snap, nil
}

func (h *Handler) invalidateSnapshot() {
	ctx, cancel := h.cacheContext()
	defer cancel()

	if err := h.cache.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate snapshot cache", "error", err)
	}
}

// visibleUsers limits non-administrators to their own record and the assessors.
func visibleUsers(me *domain.User, users []domain.User) []domain.User {
	if me.Role == domain.RoleAdmin {
		return users
	}
	out := make([]domain.User, 0)
	for _, u := range users {
		if u.ID == me.ID || u.Role == domain.RoleAssessor {
			out = append(out, u)
		}
	}
	return out
}

func (h *Handler) GetAllData(w http.ResponseWriter, r *http.Request, _ json.RawMessage) {
	me := myInfo(r)

	snap, err := h.loadSnapshot()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "", domain.Snapshot{
		Users:             visibleUsers(me, snap.Users),
		Wards:             snap.Wards,
		AllAssessments:    assessment.FilterVisible(me, snap.AllAssessments),
		AssessmentPeriods: snap.AssessmentPeriods,
	})
}
