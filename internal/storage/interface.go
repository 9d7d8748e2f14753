package storage

import (
	"context"
)

// ImageUploader stores gallery images and returns their public URL.
// This interface allows for easy mocking in tests.
type ImageUploader interface {
	UploadGalleryImage(ctx context.Context, data []byte, creatorID, filename string) (*UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Uploader implements ImageUploader
var _ ImageUploader = (*S3Uploader)(nil)
