// Package service stores product images in the hosted backend's public
// bucket and removes them again by their public URL.
package service

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"storefront/internal/backend"
	"storefront/internal/media/models"
	"storefront/internal/platform/metrics"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/validation"
	"storefront/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/media-mocks.go -package=mocks Storage

const (
	// DefaultMaxBytes caps a single image when no limit is configured.
	DefaultMaxBytes = 5 * 1024 * 1024

	cacheControlSeconds = 3600
	maxConcurrency      = 4
)

// extensions maps accepted image types to the extension used when the
// uploaded file name has none.
var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/avif": "avif",
}

var folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*(/[a-z0-9][a-z0-9_-]*)*$`)

// Storage is the hosted object store.
type Storage interface {
	Upload(ctx context.Context, token, bucket, path string, body io.Reader, opts backend.UploadOptions) error
	Remove(ctx context.Context, token, bucket string, paths ...string) error
	PublicURL(bucket, path string) string
}

type Service struct {
	storage  Storage
	bucket   string
	maxBytes int64
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	randName func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMaxBytes caps each image. Non-positive values keep the default.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandomName replaces the random part of generated object names.
func WithRandomName(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.randName = fn
		}
	}
}

func New(storage Storage, bucket string, opts ...Option) *Service {
	svc := &Service{
		storage:  storage,
		bucket:   bucket,
		maxBytes: DefaultMaxBytes,
		now:      time.Now,
		randName: randomBase36,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// Upload stores one image under folder (optional) and returns its public
// URL. Object names are "<random>-<unix millis>.<ext>" and never overwrite.
func (s *Service) Upload(ctx context.Context, token, folder string, file models.Upload) (string, error) {
	urls, err := s.UploadMany(ctx, token, folder, []models.Upload{file})
	if err != nil {
		return "", err
	}
	return urls[0], nil
}

// UploadMany stores files concurrently. URLs are returned in input order.
// Every file is checked before anything is uploaded; on an upload failure
// the files already stored are left in place and the first error returned.
func (s *Service) UploadMany(ctx context.Context, token, folder string, files []models.Upload) ([]string, error) {
	if len(files) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one image is required")
	}
	if err := validation.CheckSliceCount("images", len(files), validation.MaxImagesPerUpload); err != nil {
		return nil, err
	}
	folder, err := normalizeFolder(folder)
	if err != nil {
		return nil, err
	}

	batch := make([]prepared, len(files))
	for i, f := range files {
		p, err := s.prepare(folder, f)
		if err != nil {
			return nil, err
		}
		batch[i] = p
	}

	urls := make([]string, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, p := range batch {
		g.Go(func() error {
			err := s.storage.Upload(gctx, token, s.bucket, p.path, p.body, backend.UploadOptions{
				ContentType:  p.contentType,
				CacheControl: cacheControlSeconds,
				Upsert:       false,
			})
			if err != nil {
				return backend.ToDomain(err, "failed to upload image "+p.filename)
			}
			urls[i] = s.storage.PublicURL(s.bucket, p.path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "image upload failed",
			"error", err,
			"files", len(files),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AddImagesUploaded(len(urls))
	}
	s.logger.InfoContext(ctx, "images uploaded",
		"count", len(urls),
		"folder", folder,
		"request_id", requestcontext.RequestID(ctx),
	)
	return urls, nil
}

// Delete removes the image behind a public URL.
func (s *Service) Delete(ctx context.Context, token, publicURL string) error {
	return s.DeleteMany(ctx, token, []string{publicURL})
}

// DeleteMany removes images concurrently. Every URL is resolved to an
// object path before anything is removed.
func (s *Service) DeleteMany(ctx context.Context, token string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	if err := validation.CheckSliceCount("urls", len(urls), validation.MaxImageDeletes); err != nil {
		return err
	}
	paths := make([]string, len(urls))
	for i, u := range urls {
		p, err := s.ObjectPath(u)
		if err != nil {
			return err
		}
		paths[i] = p
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for _, p := range paths {
		g.Go(func() error {
			if err := s.storage.Remove(gctx, token, s.bucket, p); err != nil {
				return backend.ToDomain(err, "failed to delete image")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "image delete failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return err
	}

	if s.metrics != nil {
		s.metrics.AddImagesDeleted(len(paths))
	}
	s.logger.InfoContext(ctx, "images deleted",
		"count", len(paths),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// ObjectPath extracts the object path that follows "/<bucket>/" in a
// public URL.
func (s *Service) ObjectPath(publicURL string) (string, error) {
	_, rest, found := strings.Cut(publicURL, "/"+s.bucket+"/")
	rest, _, _ = strings.Cut(rest, "?")
	if !found || rest == "" {
		return "", dErrors.New(dErrors.CodeValidation, "invalid image URL")
	}
	objectPath, err := url.PathUnescape(rest)
	if err != nil || strings.Contains(objectPath, "..") {
		return "", dErrors.New(dErrors.CodeValidation, "invalid image URL")
	}
	return objectPath, nil
}

type prepared struct {
	filename    string
	path        string
	contentType string
	body        io.Reader
}

// prepare checks size and type and picks the object path. The declared
// content type must agree with the sniffed one.
func (s *Service) prepare(folder string, f models.Upload) (prepared, error) {
	if f.Body == nil {
		return prepared{}, dErrors.New(dErrors.CodeValidation, "image "+f.Filename+" is empty")
	}
	if f.Size > s.maxBytes {
		return prepared{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("image %s exceeds max size of %d bytes", f.Filename, s.maxBytes))
	}

	br := bufio.NewReaderSize(f.Body, 512)
	head, _ := br.Peek(512)
	if len(head) == 0 {
		return prepared{}, dErrors.New(dErrors.CodeValidation, "image "+f.Filename+" is empty")
	}
	sniffed := http.DetectContentType(head)
	if _, ok := extensions[sniffed]; !ok {
		// DetectContentType does not know avif.
		if !(sniffed == "application/octet-stream" && mediaType(f.ContentType) == "image/avif") {
			return prepared{}, dErrors.New(dErrors.CodeValidation, "image "+f.Filename+" is not a supported image type")
		}
		sniffed = "image/avif"
	}
	if declared := mediaType(f.ContentType); declared != "" && declared != "application/octet-stream" && declared != sniffed {
		return prepared{}, dErrors.New(dErrors.CodeValidation, "image "+f.Filename+" content does not match its type")
	}

	name := s.objectName(f.Filename, sniffed)
	objectPath := name
	if folder != "" {
		objectPath = folder + "/" + name
	}
	return prepared{
		filename:    f.Filename,
		path:        objectPath,
		contentType: sniffed,
		body:        &limitedReader{r: br, remaining: s.maxBytes, name: f.Filename},
	}, nil
}

func (s *Service) objectName(filename, contentType string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if !validExtension(ext) {
		ext = extensions[contentType]
	}
	return s.randName() + "-" + strconv.FormatInt(s.now().UnixMilli(), 10) + "." + ext
}

func validExtension(ext string) bool {
	switch ext {
	case "jpg", "jpeg", "png", "webp", "gif", "avif":
		return true
	}
	return false
}

func normalizeFolder(folder string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return "", nil
	}
	folder = strings.ToLower(folder)
	if !folderPattern.MatchString(folder) {
		return "", dErrors.New(dErrors.CodeValidation, "folder must contain only lowercase letters, digits, dashes, underscores and slashes")
	}
	return folder, nil
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func randomBase36() string {
	u := uuid.New()
	return strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36)
}

// limitedReader fails once more than remaining bytes were read, so a body
// whose declared size was wrong cannot exceed the cap.
type limitedReader struct {
	r         io.Reader
	remaining int64
	name      string
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, dErrors.New(dErrors.CodeValidation, "image "+l.name+" exceeds max size")
	}
	return n, err
}
