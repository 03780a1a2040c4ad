package feedback

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"projecthub/internal/httputil"

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
	router.Post("/feedback", h.Submit)
	router.Put("/feedback/{id}/response", h.Respond)
	router.Get("/guides/{id}/feedback", h.ListByGuide)
	router.Get("/groups/{id}/feedback", h.ListByGroup)
}

type submitFeedbackRequest struct {
	GroupID         int    `json:"groupId" validate:"required"`
	Message         string `json:"message" validate:"required"`
	Rating          int    `json:"rating" validate:"required,min=1,max=5"`
	Recommendations string `json:"recommendations"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	fb, err := h.service.Submit(r.Context(), NewFeedback{
		GroupID:         req.GroupID,
		Message:         req.Message,
		Rating:          req.Rating,
		Recommendations: req.Recommendations,
	})
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, fb)
}

type respondRequest struct {
	Response string `json:"response" validate:"required"`
}

func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid feedback ID")
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	fb, err := h.service.Respond(r.Context(), id, req.Response)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, fb)
}

func (h *Handler) ListByGuide(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid guide ID")
		return
	}

	feedbacks, err := h.service.ListByGuide(r.Context(), id)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, feedbacks)
}

func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	feedbacks, err := h.service.ListByGroup(r.Context(), id)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, feedbacks)
}
