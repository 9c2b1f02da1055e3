package media

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"portfolio-api/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	MaxUploadBytes = 10 << 20
	formField      = "file"
	sniffLen       = 512
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type uploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

type Handler struct {
	store  ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(store ObjectStore, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router, requireAuth func(http.Handler) http.Handler) {
	router.With(requireAuth).Post("/uploads", h.Upload)
}

// Upload accepts a single image in the multipart field "file". The content
// type is sniffed from the bytes; the client supplied header is ignored.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// Multipart framing needs some room on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)

	file, header, err := r.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondWithError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		httputil.RespondWithError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > MaxUploadBytes {
		httputil.RespondWithError(w, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		h.logger.ErrorContext(r.Context(), "failed to read upload", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := extensions[contentType]
	if !ok {
		httputil.RespondWithError(w, http.StatusBadRequest, "Only JPEG, PNG, WebP and GIF images are allowed")
		return
	}

	key := h.objectKey(ext)
	body := io.MultiReader(bytes.NewReader(head), file)
	if err := h.store.Put(r.Context(), key, body, header.Size, contentType); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to store upload", "key", key, "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.logger.InfoContext(r.Context(), "image uploaded", "key", key, "size", header.Size, "content_type", contentType)
	httputil.RespondWithJSON(w, http.StatusCreated, uploadResponse{
		Success: true,
		URL:     h.store.URL(key),
	})
}

func (h *Handler) objectKey(ext string) string {
	now := h.now().UTC()
	return now.Format("uploads/2006/01/") + uuid.NewString() + ext
}
