package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"portfolio-api/internal/admin"
	"portfolio-api/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type loginResponse struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	Admin   admin.Profile `json:"admin"`
}

type verifyResponse struct {
	Success bool           `json:"success"`
	Admin   *admin.Profile `json:"admin"`
}

type Handler struct {
	service   *Service
	tokens    *TokenManager
	limiter   *RateLimiter
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service, tokens *TokenManager, limiter *RateLimiter, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		tokens:    tokens,
		limiter:   limiter,
		validator: httputil.NewValidator(),
		logger:    logger,
	}
}

// RequireAuth is the bearer token middleware for private routes.
func (h *Handler) RequireAuth() func(http.Handler) http.Handler {
	return Middleware(h.tokens, h.logger)
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/auth", func(r chi.Router) {
		r.With(h.limiter.Middleware).Post("/login", h.Login)
		r.With(h.RequireAuth()).Get("/verify", h.Verify)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondWithDecodeError(w, err)
		return
	}

	if err := httputil.ValidateStruct(h.validator, req); err != nil {
		var verr *httputil.ValidationError
		if errors.As(err, &verr) {
			httputil.RespondWithValidationError(w, verr)
			return
		}
		h.logger.ErrorContext(r.Context(), "login validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.WarnContext(r.Context(), "failed login", "email", req.Email)
			httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.logger.InfoContext(r.Context(), "admin logged in", "admin_id", result.Admin.ID)
	httputil.RespondWithJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   result.Token,
		Admin:   result.Admin,
	})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "Token is not valid")
		return
	}

	profile, err := h.service.Verify(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			httputil.RespondWithError(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		h.logger.ErrorContext(r.Context(), "token verification failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, verifyResponse{Success: true, Admin: profile})
}
