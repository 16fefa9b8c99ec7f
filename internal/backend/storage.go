package backend

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/platform/tracer"
)

const storagePrefix = "/storage/v1/object/"

// UploadOptions control a storage upload.
type UploadOptions struct {
	ContentType  string
	CacheControl int // seconds
	Upsert       bool
}

// Upload stores body at bucket/path.
func (c *Client) Upload(ctx context.Context, token, bucket, path string, body io.Reader, opts UploadOptions) error {
	headers := map[string]string{
		"x-upsert": strconv.FormatBool(opts.Upsert),
	}
	if opts.CacheControl > 0 {
		headers["cache-control"] = "max-age=" + strconv.Itoa(opts.CacheControl)
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.do(ctx, request{
		op:          "storage.upload",
		method:      http.MethodPost,
		path:        storagePrefix + bucket + "/" + strings.TrimLeft(path, "/"),
		token:       token,
		rawBody:     body,
		contentType: contentType,
		headers:     headers,
		attrs: []tracer.Attribute{
			tracer.String("backend.bucket", bucket),
			tracer.String("backend.object", path),
		},
	})
	return err
}

// Remove deletes objects from bucket.
func (c *Client) Remove(ctx context.Context, token, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := c.do(ctx, request{
		op:     "storage.remove",
		method: http.MethodDelete,
		path:   storagePrefix + bucket,
		token:  token,
		body:   map[string][]string{"prefixes": paths},
		attrs: []tracer.Attribute{
			tracer.String("backend.bucket", bucket),
			tracer.Int("backend.objects", len(paths)),
		},
	})
	return err
}

// PublicURL returns the unauthenticated URL of an object in a public bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return c.baseURL + storagePrefix + "public/" + bucket + "/" + strings.TrimLeft(path, "/")
}
