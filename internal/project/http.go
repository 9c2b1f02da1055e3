package project

import (
	"errors"
	"log/slog"
	"net/http"

	"portfolio-api/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type listResponse struct {
	Success  bool      `json:"success"`
	Projects []Project `json:"projects"`
}

type projectResponse struct {
	Success bool     `json:"success"`
	Project *Project `json:"project"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router, requireAuth func(http.Handler) http.Handler) {
	router.Route("/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.With(requireAuth).Get("/all", h.ListAllProjects)
		r.Get("/{id}", h.GetProject)
		r.With(requireAuth).Post("/", h.CreateProject)
		r.With(requireAuth).Put("/{id}", h.UpdateProject)
		r.With(requireAuth).Delete("/{id}", h.DeleteProject)
	})
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Category: q.Get("category"),
		Featured: q.Get("featured") == "true",
	}

	projects, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, listResponse{Success: true, Projects: projects})
}

func (h *Handler) ListAllProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListAll(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, listResponse{Success: true, Projects: projects})
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetPublished(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, projectResponse{Success: true, Project: project})
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.RespondWithDecodeError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "creating project", "category", in.Category)
	project, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, projectResponse{Success: true, Project: project})
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in Input
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.RespondWithDecodeError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "updating project", "id", id)
	project, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, projectResponse{Success: true, Project: project})
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.logger.InfoContext(r.Context(), "deleting project", "id", id)
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithMessage(w, http.StatusOK, "Project deleted successfully")
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *httputil.ValidationError
	if errors.As(err, &verr) {
		h.logger.WarnContext(r.Context(), "project validation failed", "error", err)
		httputil.RespondWithValidationError(w, verr)
		return
	}
	if errors.Is(err, ErrProjectNotFound) {
		httputil.RespondWithError(w, http.StatusNotFound, "Project not found")
		return
	}
	h.logger.ErrorContext(r.Context(), "project request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "Server error")
}
