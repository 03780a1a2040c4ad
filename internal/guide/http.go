package guide

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"projecthub/internal/httputil"
	"projecthub/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/guides", h.GetAllGuides)
	router.Get("/guides/active", h.GetActiveGuides)
	router.Post("/guides", h.CreateGuide)
	router.Put("/guides/{id}", h.UpdateGuide)
	router.Patch("/guides/{id}/status", h.ToggleStatus)
}

func (h *Handler) CreateGuide(w http.ResponseWriter, r *http.Request) {
	var g models.Guide
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil || h.validate.Struct(&g) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "creating guide", "email", g.Email)
	created, err := h.service.Create(r.Context(), &g)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetAllGuides(w http.ResponseWriter, r *http.Request) {
	guides, err := h.service.GetAll(r.Context())
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, guides)
}

func (h *Handler) GetActiveGuides(w http.ResponseWriter, r *http.Request) {
	guides, err := h.service.ListActive(r.Context())
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, guides)
}

func (h *Handler) UpdateGuide(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid guide ID")
		return
	}

	var g models.Guide
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil || h.validate.Struct(&g) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	g.ID = id

	h.logger.InfoContext(r.Context(), "updating guide", "guide_id", id)
	if err := h.service.Update(r.Context(), &g); err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, g)
}

func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid guide ID")
		return
	}

	h.logger.InfoContext(r.Context(), "toggling guide status", "guide_id", id)
	g, err := h.service.ToggleStatus(r.Context(), id)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, g)
}
