// Package models describes product image uploads.
package models

import (
	"io"

	strs "storefront/pkg/platform/strings"
	"storefront/pkg/platform/validation"
	v "storefront/pkg/validation"
)

// Upload is one image to store. Body is read once.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResponse lists public URLs in the order the files were sent.
type UploadResponse struct {
	URLs []string `json:"urls"`
}

// DeleteRequest removes images by their public URL.
type DeleteRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,dive,notblank"`
}

// Normalize drops blank and repeated URLs so each object is removed once.
func (r *DeleteRequest) Normalize() {
	r.URLs = strs.DedupeAndTrim(r.URLs)
}

func (r *DeleteRequest) Validate() error {
	if err := validation.CheckSliceCount("urls", len(r.URLs), validation.MaxImageDeletes); err != nil {
		return err
	}
	if err := validation.CheckEachStringLength("url", r.URLs, validation.MaxImageURLLength); err != nil {
		return err
	}
	return v.Validate(r)
}
