package enrollment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"projecthub/internal/httputil"
	"projecthub/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
		metrics:  m,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/divisions/{id}/enrollments", h.ListForDivision)
	router.Get("/divisions/{id}/enrollments/summary", h.Summary)
	router.Post("/divisions/{id}/enrollments", h.AddOne)
	router.Post("/divisions/{id}/enrollments/generate", h.GenerateRange)
	router.Delete("/divisions/{id}/enrollments", h.RemoveAllForDivision)
	router.Delete("/enrollments/{number}", h.Remove)
}

type generateRangeRequest struct {
	Start int `json:"start" validate:"required"`
	End   int `json:"end" validate:"required"`
}

func (h *Handler) GenerateRange(w http.ResponseWriter, r *http.Request) {
	divisionID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid division ID")
		return
	}

	var req generateRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "generating enrollment range",
		"division_id", divisionID, "start", req.Start, "end", req.End)
	result, err := h.service.GenerateRange(r.Context(), divisionID, req.Start, req.End)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	h.metrics.RecordEnrollmentsCreated(r.Context(), int64(result.Created))

	httputil.RespondWithJSON(w, http.StatusCreated, result)
}

type addEnrollmentRequest struct {
	EnrollmentNumber string `json:"enrollmentNumber" validate:"required"`
}

func (h *Handler) AddOne(w http.ResponseWriter, r *http.Request) {
	divisionID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid division ID")
		return
	}

	var req addEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "adding enrollment",
		"division_id", divisionID, "enrollment_number", req.EnrollmentNumber)
	created, err := h.service.AddOne(r.Context(), divisionID, req.EnrollmentNumber)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	h.metrics.RecordEnrollmentsCreated(r.Context(), 1)

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListForDivision(w http.ResponseWriter, r *http.Request) {
	divisionID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid division ID")
		return
	}

	enrollments, err := h.service.ListForDivision(r.Context(), divisionID)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, enrollments)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	divisionID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid division ID")
		return
	}

	counts, err := h.service.RegisteredCount(r.Context(), divisionID)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, counts)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	h.logger.InfoContext(r.Context(), "removing enrollment", "enrollment_number", number)
	if err := h.service.Remove(r.Context(), number); err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveAllForDivision(w http.ResponseWriter, r *http.Request) {
	divisionID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid division ID")
		return
	}

	h.logger.InfoContext(r.Context(), "removing all enrollments for division", "division_id", divisionID)
	removed, err := h.service.RemoveAllForDivision(r.Context(), divisionID)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
