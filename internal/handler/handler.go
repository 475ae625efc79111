package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rskariadi-dev/manrura/internal/cache"
	"github.com/rskariadi-dev/manrura/internal/checklist"
	"github.com/rskariadi-dev/manrura/internal/config"
	"github.com/rskariadi-dev/manrura/internal/notify"
	"github.com/rskariadi-dev/manrura/internal/repository"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	checklist  *checklist.Checklist
	cache      cache.SnapshotCache
	publisher  notify.Publisher
	clock      func() time.Time

	actions map[string]action

	Mux *chi.Mux
}

type Option func(*Handler)

// WithClock replaces the time source used to decide whether a period is active.
func WithClock(clock func() time.Time) Option {
	return func(h *Handler) {
		h.clock = clock
	}
}

func NewHandler(cfg *config.Config, repo *repository.Repository, cl *checklist.Checklist, snapshots cache.SnapshotCache, pub notify.Publisher, opts ...Option) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	if snapshots == nil {
		snapshots = cache.Nop{}
	}
	if pub == nil {
		pub = notify.Nop{}
	}

	h := &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		checklist:  cl,
		cache:      snapshots,
		publisher:  pub,
		clock:      time.Now,

		Mux: chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.actions = h.registerActions()

	return h, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)
	h.Mux.Get("/checklist", h.GetChecklist)
	h.Mux.Handle("/metrics", promhttp.Handler())

	// every action goes through the single endpoint; auth is decided per action
	h.Mux.Post("/exec", h.Exec)

	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/evidence/{fileId}", h.GetEvidence)
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.repository.Ping(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", nil)
}

func (h *Handler) GetChecklist(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "", h.checklist.Standards())
}
