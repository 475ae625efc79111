package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rskariadi-dev/manrura/internal/metrics"
)

type actionFunc func(w http.ResponseWriter, r *http.Request, payload json.RawMessage)

type action struct {
	handle actionFunc
	public bool
}

func (h *Handler) registerActions() map[string]action {
	return map[string]action{
		"login":               {handle: h.Login, public: true},
		"logout":              {handle: h.Logout, public: true},
		"getAllData":          {handle: h.GetAllData},
		"addUser":             {handle: h.AddUser},
		"addWard":             {handle: h.AddWard},
		"addAssessmentPeriod": {handle: h.AddAssessmentPeriod},
		"updateAssessment":    {handle: h.UpdateAssessment},
		"uploadFile":          {handle: h.UploadFile},
		"getMyInfo":           {handle: h.GetMyInfo},
		"changePassword":      {handle: h.ChangePassword},
	}
}

// maxBodyBytes leaves room for base64 inflation of the largest allowed upload.
func (h *Handler) maxBodyBytes() int64 {
	return h.config.Upload.MaxBytes/3*4 + 64<<10
}

// Exec is the single action endpoint: {action, payload} in, the response envelope out.
func (h *Handler) Exec(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes())

	var req struct {
		Action  string          `json:"action" validate:"required"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := h.readJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorResponse(w, r, "request is too large")
			return
		}
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	act, ok := h.actions[req.Action]
	if !ok {
		h.errorResponse(w, r, "unknown action: "+req.Action)
		return
	}

	ctx := r.Context()
	if !act.public {
		authCtx, err := h.authenticate(r)
		if err != nil {
			h.authFailure(w, r, err)
			return
		}
		ctx = authCtx
	}

	start := time.Now()
	defer func() {
		metrics.ActionDuration.WithLabelValues(req.Action).Observe(time.Since(start).Seconds())
	}()

	r = r.WithContext(contextWithAction(ctx, req.Action))
	act.handle(w, r, req.Payload)
}

func (h *Handler) decodePayload(payload json.RawMessage, v any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("{}")
	}
	return json.Unmarshal(payload, v)
}
