package group

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"projecthub/internal/httputil"
	"projecthub/internal/roster"

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
	router.Get("/groups", h.ListGroups)
	router.Post("/groups", h.CreateGroup)
	router.Get("/groups/{id}", h.GetGroup)
	router.Put("/groups/{id}", h.UpdateGroup)
	router.Delete("/groups/{id}", h.DeleteGroup)
	router.Get("/groups/{id}/students/available", h.AvailableForGroup)
	router.Get("/students/available", h.AvailableForScope)
}

type createGroupRequest struct {
	Name               string   `json:"name" validate:"required"`
	ProjectTitle       string   `json:"projectTitle" validate:"required"`
	ProjectDescription string   `json:"projectDescription"`
	ProjectTechnology  string   `json:"projectTechnology"`
	Course             string   `json:"course" validate:"required"`
	Semester           int      `json:"semester" validate:"required,min=1,max=8"`
	Year               int      `json:"year" validate:"required"`
	GuideID            int      `json:"guide" validate:"required"`
	SelectedDivision   int      `json:"selectedDivision"`
	SelectedStudents   []string `json:"selectedStudents" validate:"required"`
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "creating group",
		"name", req.Name, "course", req.Course, "year", req.Year, "students", len(req.SelectedStudents))
	created, err := h.service.Create(r.Context(), roster.NewGroup{
		Name:               req.Name,
		DivisionID:         req.SelectedDivision,
		Course:             req.Course,
		Semester:           req.Semester,
		Year:               req.Year,
		GuideID:            req.GuideID,
		ProjectTitle:       req.ProjectTitle,
		ProjectDescription: req.ProjectDescription,
		ProjectTechnology:  req.ProjectTechnology,
		Enrollments:        req.SelectedStudents,
	})
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListFiltered(r.Context(), r.URL.Query().Get("year"), r.URL.Query().Get("course"))
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, groups)
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	g, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, g)
}

// updateGroupRequest is the partial-update body: exactly one of guideId,
// addEnrollment or removeEnrollment drives the mutation.
type updateGroupRequest struct {
	GuideID          int    `json:"guideId"`
	AddEnrollment    string `json:"addEnrollment"`
	RemoveEnrollment string `json:"removeEnrollment"`
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var req updateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	switch {
	case req.AddEnrollment != "":
		h.logger.InfoContext(r.Context(), "adding group member", "group_id", id, "enrollment", req.AddEnrollment)
		if _, err := h.service.AddMember(r.Context(), id, req.AddEnrollment); err != nil {
			httputil.RespondWithDomainError(w, err)
			return
		}
	case req.RemoveEnrollment != "":
		h.logger.InfoContext(r.Context(), "removing group member", "group_id", id, "enrollment", req.RemoveEnrollment)
		if err := h.service.RemoveMember(r.Context(), id, req.RemoveEnrollment); err != nil {
			httputil.RespondWithDomainError(w, err)
			return
		}
	case req.GuideID != 0:
		h.logger.InfoContext(r.Context(), "changing group guide", "group_id", id, "guide_id", req.GuideID)
		if _, err := h.service.ChangeGuide(r.Context(), id, req.GuideID); err != nil {
			httputil.RespondWithDomainError(w, err)
			return
		}
	default:
		httputil.RespondWithError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	// The caller sees the list row and the open detail view change together.
	g, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, g)
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting group", "group_id", id)
	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AvailableForGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	students, err := h.service.AvailableStudents(r.Context(), id)
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, students)
}

func (h *Handler) AvailableForScope(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	semester, _ := strconv.Atoi(q.Get("semester"))
	year, yearErr := strconv.Atoi(q.Get("year"))
	course := q.Get("course")
	if course == "" || semester == 0 || yearErr != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "course, semester and year query parameters are required")
		return
	}
	divisionID, _ := strconv.Atoi(q.Get("divisionId"))

	students, err := h.service.AvailableStudentsForScope(r.Context(), roster.Scope{
		Course:     course,
		Semester:   semester,
		Year:       year,
		DivisionID: divisionID,
	})
	if err != nil {
		httputil.RespondWithDomainError(w, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, students)
}
