package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"agroprice/internal/config"
	"agroprice/internal/port"
)

type imageUploader struct {
	storage port.ObjectStorage
	cfg     *config.S3Config
}

// NewImageUploader creates an ImageUploader that stores images in object storage and
// returns a presigned GET URL the vision API can fetch.
func NewImageUploader(storage port.ObjectStorage, cfg *config.S3Config) port.ImageUploader {
	return &imageUploader{storage: storage, cfg: cfg}
}

func (u *imageUploader) Upload(ctx context.Context, input port.ImageUploadInput) (string, error) {
	key := fmt.Sprintf("%s/%s/%s-%s", input.Category, input.OwnerID, uuid.New(), sanitizeFilename(input.Filename))

	log.Printf("imageUploader.Upload: uploading %s (%s, %d bytes) to %s",
		input.Filename, input.ContentType, input.Size, key)

	_, err := u.storage.Upload(ctx, port.UploadInput{
		Bucket:      u.cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(input.Data),
		ContentType: input.ContentType,
		Size:        input.Size,
		Metadata: map[string]string{
			"original-filename": url.QueryEscape(input.Filename),
			"owner-id":          input.OwnerID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("imageUploader.Upload: %w", err)
	}

	presigned, err := u.storage.GetPresignedURL(ctx, u.cfg.Bucket, key, u.cfg.PresignExpiry)
	if err != nil {
		// Nothing can reach the object without a URL.
		if derr := u.storage.Delete(ctx, u.cfg.Bucket, key); derr != nil {
			log.Printf("imageUploader.Upload: removing orphaned %s: %v", key, derr)
		}
		return "", fmt.Errorf("imageUploader.Upload presign: %w", err)
	}
	return presigned, nil
}

// sanitizeFilename keeps the base name and replaces characters that need escaping in keys.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '#', '?', '%', '+', '&':
			return '_'
		}
		return r
	}, name)
}
