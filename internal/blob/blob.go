// Package blob stores product images and hands back the public URL the
// catalog keeps in Product.Images.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
)

const MaxImageSize = 5 << 20

var ErrTooLarge = errors.New("image file too large (max 5MB)")

// allowedTypes maps sniffed MIME types to the stored format name.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type Object struct {
	URL    string `json:"url"`
	Handle string `json:"handle"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format"`
}

type Store interface {
	Put(ctx context.Context, data []byte, mime string) (Object, error)
	Delete(ctx context.Context, handle string) error
}

// UnsupportedTypeError reports content that is not an accepted image type.
type UnsupportedTypeError struct {
	MIME string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported image type: %s", e.MIME)
}

// Sniff detects the image type from content, ignoring any client-declared type.
func Sniff(data []byte) (mime, format string, err error) {
	if len(data) > MaxImageSize {
		return "", "", ErrTooLarge
	}
	detected := mimetype.Detect(data)
	format, ok := allowedTypes[detected.String()]
	if !ok {
		return "", "", &UnsupportedTypeError{MIME: detected.String()}
	}
	return detected.String(), format, nil
}

// dimensions returns 0, 0 for formats without a registered decoder.
func dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
