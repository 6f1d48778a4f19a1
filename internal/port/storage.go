package port

import (
	"context"
	"io"
)

// UploadInput encapsulates the parameters needed to upload an object.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// UploadOutput contains the result of a successful upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts cloud object storage operations.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Delete(ctx context.Context, bucket, key string) error
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}

// ImageUploadInput describes an image handed to the uploader.
type ImageUploadInput struct {
	Data        []byte
	Filename    string
	ContentType string
	Size        int64
	OwnerID     string
	Category    string
}

// ImageUploader turns raw image bytes into a URL the vision API can fetch.
type ImageUploader interface {
	Upload(ctx context.Context, input ImageUploadInput) (url string, err error)
}
