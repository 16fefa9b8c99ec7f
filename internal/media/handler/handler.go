// Package handler exposes product image upload and removal to the admin
// console.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/media/models"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/platform/validation"
	"storefront/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/media-mocks.go -package=mocks Service

// multipartMemory is how much of a multipart form is buffered in memory
// before parts spill to temporary files.
const multipartMemory = 8 << 20

// Service defines the image operations used by the HTTP layer.
type Service interface {
	UploadMany(ctx context.Context, token, folder string, files []models.Upload) ([]string, error)
	DeleteMany(ctx context.Context, token string, urls []string) error
}

type Handler struct {
	media  Service
	logger *slog.Logger
}

func New(media Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{media: media, logger: logger}
}

// RegisterUpload mounts the multipart route; it must sit outside the JSON
// content-type and small body limits.
func (h *Handler) RegisterUpload(r chi.Router) {
	r.Post("/admin/images", h.HandleUpload)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/admin/images", h.HandleDelete)
}

// HandleUpload implements POST /admin/images.
//
// Input: multipart form with one or more "files" parts and an optional
// "folder" field.
// Output: { "urls": ["https://.../product-images/<folder>/<name>"] }
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error":             "payload_too_large",
				"error_description": "upload exceeds the maximum request size",
			})
			return
		}
		h.logger.WarnContext(ctx, "invalid multipart form", "error", err, "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected a multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if err := validation.CheckSliceCount("images", len(headers), validation.MaxImagesPerUpload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	files, closeAll, err := openAll(headers)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to open upload", "error", err, "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read uploaded file"))
		return
	}
	defer closeAll()

	urls, err := h.media.UploadMany(ctx, sess.AccessToken, r.FormValue("folder"), files)
	if err != nil {
		h.logger.ErrorContext(ctx, "image upload failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &models.UploadResponse{URLs: urls})
}

// HandleDelete implements DELETE /admin/images.
//
// Input: { "urls": ["https://.../product-images/a.png"] }
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.DeleteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.media.DeleteMany(ctx, sess.AccessToken, req.URLs); err != nil {
		h.logger.ErrorContext(ctx, "image delete failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func openAll(headers []*multipart.FileHeader) ([]models.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	files := make([]models.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		files = append(files, models.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return files, closeAll, nil
}
