package media

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the WebP decoder with image.Decode
)

const (
	// MaxEdge is the longest side, in pixels, of a stored photo.
	MaxEdge = 1600

	// JPEGQuality is the encoder quality for stored photos.
	JPEGQuality = 85

	preparedExt         = ".jpg"
	preparedContentType = "image/jpeg"
)

// Prepare decodes blob, rotates it according to its EXIF orientation,
// shrinks it to fit within MaxEdge and re-encodes it as JPEG.
// Images already within bounds are re-encoded at their original size.
func Prepare(blob Blob) (Blob, error) {
	if len(blob.Data) == 0 {
		return Blob{}, ErrEmptyBlob
	}

	img, err := imaging.Decode(bytes.NewReader(blob.Data), imaging.AutoOrientation(true))
	if err != nil {
		return Blob{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Blob{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrNotImage, b.Dx(), b.Dy())
	}
	if b.Dx() > MaxEdge || b.Dy() > MaxEdge {
		img = imaging.Fit(img, MaxEdge, MaxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return Blob{}, fmt.Errorf("failed to encode photo: %w", err)
	}

	return Blob{
		Filename:    jpegName(blob.Filename),
		ContentType: preparedContentType,
		Data:        buf.Bytes(),
	}, nil
}

func jpegName(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		name = "photo"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + preparedExt
}
