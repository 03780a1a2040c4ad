package evaluation

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
	router.Put("/groups/{id}/evaluation", h.Record)
	router.Get("/groups/{id}/evaluation", h.GetForGroup)
	router.Get("/guides/{id}/evaluations", h.ListByGuide)
}

type recordEvaluationRequest struct {
	GuideID            int     `json:"guideId" validate:"required"`
	TechnicalScore     float64 `json:"technicalScore" validate:"min=0,max=10"`
	PresentationScore  float64 `json:"presentationScore" validate:"min=0,max=10"`
	DocumentationScore float64 `json:"documentationScore" validate:"min=0,max=10"`
	InnovationScore    float64 `json:"innovationScore" validate:"min=0,max=10"`
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var req recordEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	ev, err := h.service.Record(r.Context(), groupID, req.GuideID, Scores{
		Technical:     req.TechnicalScore,
		Presentation:  req.PresentationScore,
		Documentation: req.DocumentationScore,
		Innovation:    req.InnovationScore,
	})
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, ev)
}

func (h *Handler) GetForGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	guideID, err := strconv.Atoi(r.URL.Query().Get("guideId"))
	if err != nil {
		// Without a guide filter the group's full evaluation history is returned.
		evaluations, listErr := h.service.ListByGroup(r.Context(), groupID)
		if listErr != nil {
			httputil.RespondWithDomainError(w, listErr)
			return
		}
		httputil.RespondWithJSON(w, http.StatusOK, evaluations)
		return
	}

	ev, err := h.service.GetForGroupGuide(r.Context(), groupID, guideID)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, ev)
}

func (h *Handler) ListByGuide(w http.ResponseWriter, r *http.Request) {
	guideID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid guide ID")
		return
	}

	evaluations, err := h.service.ListByGuide(r.Context(), guideID)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, evaluations)
}
