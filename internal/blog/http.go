package blog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"portfolio-api/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type listResponse struct {
	Success    bool       `json:"success"`
	Blogs      []Blog     `json:"blogs"`
	Pagination Pagination `json:"pagination"`
}

type allResponse struct {
	Success bool   `json:"success"`
	Blogs   []Blog `json:"blogs"`
}

type blogResponse struct {
	Success bool  `json:"success"`
	Blog    *Blog `json:"blog"`
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

// RegisterRoutes mounts /blogs on router. requireAuth guards the admin routes.
func (h *Handler) RegisterRoutes(router chi.Router, requireAuth func(http.Handler) http.Handler) {
	router.Route("/blogs", func(r chi.Router) {
		r.Get("/", h.ListBlogs)
		r.With(requireAuth).Get("/all", h.ListAllBlogs)
		r.Get("/{slug}", h.GetBlog)
		r.With(requireAuth).Post("/", h.CreateBlog)
		r.With(requireAuth).Put("/{id}", h.UpdateBlog)
		r.With(requireAuth).Delete("/{id}", h.DeleteBlog)
	})
}

func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Category: Category(q.Get("category")),
		Featured: q.Get("featured") == "true",
	}
	// Unparsable values stay zero and fall back to the defaults.
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, listResponse{
		Success:    true,
		Blogs:      result.Blogs,
		Pagination: result.Pagination,
	})
}

func (h *Handler) ListAllBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.ListAll(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, allResponse{Success: true, Blogs: blogs})
}

func (h *Handler) GetBlog(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	blog, err := h.service.View(r.Context(), slug)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, blogResponse{Success: true, Blog: blog})
}

func (h *Handler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.RespondWithDecodeError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "creating blog", "slug", in.Slug)
	blog, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, blogResponse{Success: true, Blog: blog})
}

func (h *Handler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in Input
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.RespondWithDecodeError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "updating blog", "id", id)
	blog, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, blogResponse{Success: true, Blog: blog})
}

func (h *Handler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.logger.InfoContext(r.Context(), "deleting blog", "id", id)
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithMessage(w, http.StatusOK, "Blog deleted successfully")
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *httputil.ValidationError
	switch {
	case errors.As(err, &verr):
		h.logger.WarnContext(r.Context(), "blog validation failed", "error", err)
		httputil.RespondWithValidationError(w, verr)
	case errors.Is(err, ErrDuplicateSlug):
		h.logger.WarnContext(r.Context(), "duplicate blog slug")
		httputil.RespondWithError(w, http.StatusBadRequest, "A blog with this slug already exists")
	case errors.Is(err, ErrBlogNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Blog not found")
	default:
		h.logger.ErrorContext(r.Context(), "blog request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Server error")
	}
}
