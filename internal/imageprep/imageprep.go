// Package imageprep shrinks oversized price table photos before they are uploaded for
// extraction. Phone photos are often far larger than the vision model needs.
package imageprep

import (
	"bytes"
	"log"

	"github.com/disintegration/imaging"

	"agroprice/internal/domain"
)

// Preprocessor downsizes images whose width or height exceeds MaxDimension.
type Preprocessor struct {
	MaxDimension int
}

// New creates a Preprocessor. A maxDimension of zero or less disables resizing.
func New(maxDimension int) *Preprocessor {
	return &Preprocessor{MaxDimension: maxDimension}
}

// Prepare returns f unchanged when it is small enough or cannot be decoded, otherwise a
// resized copy. GIF and WebP inputs are re-encoded as PNG.
func (p *Preprocessor) Prepare(f domain.ImageFile) (domain.ImageFile, error) {
	if p == nil || p.MaxDimension <= 0 {
		return f, nil
	}

	src, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		log.Printf("imageprep.Prepare: passing %s through undecoded: %v", f.Name, err)
		return f, nil
	}

	bounds := src.Bounds()
	if bounds.Dx() <= p.MaxDimension && bounds.Dy() <= p.MaxDimension {
		return f, nil
	}

	resized := imaging.Fit(src, p.MaxDimension, p.MaxDimension, imaging.Lanczos)

	format, contentType := imaging.PNG, "image/png"
	if domain.AllowedImageContentTypes[f.ContentType] == domain.ImageFormatJPEG {
		format, contentType = imaging.JPEG, "image/jpeg"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(90)); err != nil {
		return f, err
	}

	log.Printf("imageprep.Prepare: resized %s from %dx%d to %dx%d (%d -> %d bytes)",
		f.Name, bounds.Dx(), bounds.Dy(), resized.Bounds().Dx(), resized.Bounds().Dy(), len(f.Data), buf.Len())

	return domain.ImageFile{Name: f.Name, ContentType: contentType, Data: buf.Bytes()}, nil
}
