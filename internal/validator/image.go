package validator

import (
	"bytes"

	"agroprice/internal/domain"
)

// imageCheck is a single validation step applied to an uploaded image.
type imageCheck func(f domain.ImageFile) *domain.ValidationError

// imageChecks run in order; the first failure is reported.
var imageChecks = []imageCheck{
	checkNotEmpty,
	checkSize,
	checkContentType,
	checkSignature,
}

// ValidateImage checks that f is a non-empty, size-bounded image whose leading bytes
// match its declared format. It has no side effects.
func ValidateImage(f domain.ImageFile) error {
	for _, check := range imageChecks {
		if verr := check(f); verr != nil {
			return verr
		}
	}
	return nil
}

// DetectImageFormat returns the format whose signature data starts with.
func DetectImageFormat(data []byte) (domain.ImageFormat, bool) {
	for _, format := range []domain.ImageFormat{
		domain.ImageFormatPNG, domain.ImageFormatJPEG, domain.ImageFormatGIF, domain.ImageFormatWebP,
	} {
		if matchesSignature(format, data) {
			return format, true
		}
	}
	return "", false
}

func checkNotEmpty(f domain.ImageFile) *domain.ValidationError {
	if len(f.Data) == 0 {
		return domain.NewValidationError(f.Name, "file is empty")
	}
	return nil
}

func checkSize(f domain.ImageFile) *domain.ValidationError {
	if f.Size() > domain.MaxImageSize {
		return domain.NewValidationError(f.Name, "file size %d bytes exceeds the %d byte limit", f.Size(), domain.MaxImageSize)
	}
	return nil
}

func checkContentType(f domain.ImageFile) *domain.ValidationError {
	if _, ok := domain.AllowedImageContentTypes[f.ContentType]; !ok {
		return domain.NewValidationError(f.Name, "unsupported content type %q; allowed: png, jpeg, gif, webp", f.ContentType)
	}
	return nil
}

func checkSignature(f domain.ImageFile) *domain.ValidationError {
	format := domain.AllowedImageContentTypes[f.ContentType]
	if !matchesSignature(format, f.Data) {
		if detected, ok := DetectImageFormat(f.Data); ok {
			return domain.NewValidationError(f.Name, "file content does not match declared %s format (looks like %s)", format, detected)
		}
		return domain.NewValidationError(f.Name, "file content does not match declared %s format", format)
	}
	return nil
}

var (
	pngSignature  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
	gif87a        = []byte("GIF87a")
	gif89a        = []byte("GIF89a")
	riffTag       = []byte("RIFF")
	webpTag       = []byte("WEBP")
)

func matchesSignature(format domain.ImageFormat, data []byte) bool {
	switch format {
	case domain.ImageFormatPNG:
		return bytes.HasPrefix(data, pngSignature)
	case domain.ImageFormatJPEG:
		return bytes.HasPrefix(data, jpegSignature)
	case domain.ImageFormatGIF:
		return bytes.HasPrefix(data, gif87a) || bytes.HasPrefix(data, gif89a)
	case domain.ImageFormatWebP:
		// RIFF <4-byte size> WEBP
		return len(data) >= 12 && bytes.Equal(data[0:4], riffTag) && bytes.Equal(data[8:12], webpTag)
	default:
		return false
	}
}
