package validation

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"wanderlog/internal/models"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ImageInfo describes an accepted upload.
type ImageInfo struct {
	ContentType string
	Extension   string
	Width       int
	Height      int
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ValidateImage checks that data is a decodable jpeg, png, gif or webp image
// no larger than maxKB kilobytes. Failures are field errors on "image".
func ValidateImage(data []byte, maxKB int) (*ImageInfo, error) {
	if len(data) == 0 {
		return nil, models.NewFieldValidationError("image", "The image must be an image.")
	}
	if maxKB > 0 && len(data) > maxKB*1024 {
		return nil, models.NewFieldValidationError("image", fmt.Sprintf("The image may not be greater than %d kilobytes.", maxKB))
	}

	var contentType, ext string
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if e, ok := allowedImageTypes[m.String()]; ok {
			contentType, ext = m.String(), e
			break
		}
	}
	if contentType == "" {
		return nil, models.NewFieldValidationError("image", "The image must be a file of type: jpeg, png, jpg, gif, webp.")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return nil, models.NewFieldValidationError("image", "The image must be an image.")
	}

	return &ImageInfo{
		ContentType: contentType,
		Extension:   ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
