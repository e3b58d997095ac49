package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lantern-eats/api/internal/platform/httpx"
	"github.com/lantern-eats/api/internal/platform/storage"
)

const maxUploadBytes = 10 << 20

// UploadHandlers serves image uploads for menu assets. Staff only.
type UploadHandlers struct {
	uploader     *storage.Uploader
	newID        func() string
	requireStaff []func(http.Handler) http.Handler
}

// NewUploadHandlers constructs the upload handlers.
func NewUploadHandlers(uploader *storage.Uploader, idGenerator func() string, requireStaff ...func(http.Handler) http.Handler) *UploadHandlers {
	return &UploadHandlers{uploader: uploader, newID: idGenerator, requireStaff: requireStaff}
}

// Routes registers the /uploads endpoints.
func (h *UploadHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	for _, mw := range h.requireStaff {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Post("/images", h.uploadImage)
}

type uploadResponsePayload struct {
	ObjectName string `json:"objectName"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
}

func (h *UploadHandlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.uploader == nil || h.newID == nil {
		httpx.WriteError(ctx, w, httpx.NewError("upload_service_unavailable", "upload service unavailable", http.StatusServiceUnavailable))
		return
	}

	if _, ok := actorFromContext(r); !ok {
		writeUnauthenticated(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "multipart form with an image file is required", http.StatusBadRequest))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "image file field is required", http.StatusBadRequest))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := fmt.Sprintf("%s%s", h.newID(), ext)

	result, err := h.uploader.Upload(ctx, name, contentType, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrContentTypeDenied):
			httpx.WriteError(ctx, w, httpx.NewError("unsupported_media_type", "content type not allowed", http.StatusUnsupportedMediaType))
		case errors.Is(err, storage.ErrObjectTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "image exceeds size limit", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("upload_error", "failed to store image", http.StatusInternalServerError))
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, uploadResponsePayload{
		ObjectName: result.ObjectName,
		URL:        result.PublicURL,
		Size:       result.Size,
	})
}
