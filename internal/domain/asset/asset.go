// Package asset defines the image upload boundary used by the catalog
// synchronizer. Uploading is a prerequisite gate for every product write.
package asset

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// ErrMisconfigured is returned when the asset store credentials are unset or
// still hold placeholder values. Upload must fail fast in that case rather
// than fall back to a decorative placeholder image.
var ErrMisconfigured = errors.New("asset store is not configured")

// Image is a binary image payload to upload.
type Image struct {
	Filename string
	Content  []byte
}

// UploadError reports a rejected upload, carrying the vendor's
// human-readable message when one was returned.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("asset upload failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("asset upload failed: %s", e.Message)
}

// Uploader stores an image and returns its stable public URL.
type Uploader interface {
	Upload(ctx context.Context, img Image) (string, error)
}
