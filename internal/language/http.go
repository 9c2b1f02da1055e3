package language

import (
	"log/slog"
	"net"
	"net/http"

	"portfolio-api/internal/httputil"
	"portfolio-api/internal/locale"
	"portfolio-api/internal/metrics"

	"github.com/go-chi/chi/v5"
)

const georgia = "GE"

type detectResponse struct {
	Success  bool    `json:"success"`
	Language string  `json:"language"`
	Country  *string `json:"country"`
	IP       string  `json:"ip"`
}

type Handler struct {
	resolver CountryResolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewHandler accepts a nil resolver; every request then gets the default language.
func NewHandler(resolver CountryResolver, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		resolver: resolver,
		logger:   logger,
		metrics:  m,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/language/detect", h.Detect)
}

// Detect never fails: any lookup problem yields English with no country.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	ip := httputil.ClientIP(r)

	country, ok := h.lookup(r, ip)
	if !ok {
		h.metrics.RecordLanguageDetected(r.Context(), locale.English, true)
		httputil.RespondWithJSON(w, http.StatusOK, detectResponse{
			Success:  true,
			Language: locale.English,
			IP:       ip,
		})
		return
	}

	lang := locale.English
	if country == georgia {
		lang = locale.Georgian
	}

	h.metrics.RecordLanguageDetected(r.Context(), lang, false)
	httputil.RespondWithJSON(w, http.StatusOK, detectResponse{
		Success:  true,
		Language: lang,
		Country:  &country,
		IP:       ip,
	})
}

func (h *Handler) lookup(r *http.Request, ip string) (country string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.ErrorContext(r.Context(), "language detection panicked", "panic", rec)
			country, ok = "", false
		}
	}()

	if h.resolver == nil {
		return "", false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		h.logger.DebugContext(r.Context(), "unparsable client ip", "ip", ip)
		return "", false
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return "", false
	}

	code, err := h.resolver.Country(parsed)
	if err != nil {
		h.logger.WarnContext(r.Context(), "geoip lookup failed", "ip", ip, "error", err)
		return "", false
	}
	if code == "" {
		return "", false
	}
	return code, true
}
