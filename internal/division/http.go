package division

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
	router.Get("/divisions", h.GetAllDivisions)
	router.Post("/divisions", h.CreateDivision)
	router.Get("/divisions/active", h.GetActiveDivisions)
	router.Patch("/divisions/{id}/status", h.ToggleStatus)
	router.Delete("/divisions/{id}", h.DeleteDivision)
}

type createDivisionRequest struct {
	Course   string `json:"course" validate:"required"`
	Semester int    `json:"semester" validate:"required"`
	Year     int    `json:"year" validate:"required"`
}

func (h *Handler) CreateDivision(w http.ResponseWriter, r *http.Request) {
	var req createDivisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "creating division", "course", req.Course, "semester", req.Semester, "year", req.Year)
	created, err := h.service.Create(r.Context(), req.Course, req.Semester, req.Year)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetAllDivisions(w http.ResponseWriter, r *http.Request) {
	divisions, err := h.service.GetAll(r.Context())
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, divisions)
}

func (h *Handler) GetActiveDivisions(w http.ResponseWriter, r *http.Request) {
	course := r.URL.Query().Get("course")
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if course == "" || err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "course and year query parameters are required")
		return
	}

	divisions, err := h.service.ListActive(r.Context(), course, year)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, divisions)
}

func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid division ID")
		return
	}

	h.logger.InfoContext(r.Context(), "toggling division status", "division_id", id)
	d, err := h.service.ToggleStatus(r.Context(), id)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, d)
}

func (h *Handler) DeleteDivision(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid division ID")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting division", "division_id", id)
	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
