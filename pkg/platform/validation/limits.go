package validation

import (
	"fmt"

	dErrors "storefront/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize bounds JSON request bodies (64 KB).
	MaxBodySize = 64 * 1024

	// MaxUploadSize bounds a multipart image upload request (25 MB across
	// all files); the per-image cap comes from configuration.
	MaxUploadSize = 25 * 1024 * 1024
)

// Slice element count limits
const (
	// MaxImagesPerUpload is the number of files accepted by one upload call.
	MaxImagesPerUpload = 10

	// MaxImagesPerProduct caps the image URLs stored on a product.
	MaxImagesPerProduct = 20

	// MaxImageDeletes caps the URLs removed by one bulk delete.
	MaxImageDeletes = 50
)

// String element length limits
const (
	MaxSearchQueryLength = 100
	MaxEmailLength       = 255
	MaxImageURLLength    = 2048
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if len(v) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
		}
	}
	return nil
}
