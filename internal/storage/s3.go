package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/telemetry"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3API is the slice of the S3 client the uploader uses
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader handles gallery image uploads to AWS S3
type S3Uploader struct {
	client  s3API
	bucket  string
	region  string
	baseURL string
	now     func() time.Time
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Bucket      string `json:"bucket"`
	Region      string `json:"region"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// NewS3Uploader creates a new S3 uploader. baseURL is the CDN origin in front
// of the bucket; when empty the virtual-hosted S3 URL is used.
func NewS3Uploader(ctx context.Context, region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newS3Uploader(s3.NewFromConfig(cfg), region, bucket, baseURL), nil
}

func newS3Uploader(client s3API, region, bucket, baseURL string) *S3Uploader {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

// UploadGalleryImage uploads an image under
// gallery/{year}/{month}/{creatorID}/{uuid}{ext}
func (u *S3Uploader) UploadGalleryImage(ctx context.Context, data []byte, creatorID, filename string) (*UploadResult, error) {
	extension := strings.ToLower(filepath.Ext(filename))
	if extension == "" {
		extension = ".jpg"
	}
	contentType := util.ImageContentType(extension)

	now := u.now().UTC()
	key := fmt.Sprintf("gallery/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), creatorID, uuid.New().String(), extension)

	ctx, span := telemetry.TraceS3Call(ctx, "put_object", telemetry.S3CallAttrs{
		Bucket:      u.bucket,
		Key:         key,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	})
	defer span.End()

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		// Keys are unique per upload so the object never changes
		CacheControl: aws.String("public, max-age=31536000, immutable"),
		Metadata: map[string]string{
			"creator-id":        creatorID,
			"original-filename": filename,
			"upload-timestamp":  now.Format(time.RFC3339),
			"file-type":         "gallery-image",
		},
	})
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:         key,
		URL:         u.PublicURL(key),
		Bucket:      u.bucket,
		Region:      u.region,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// PublicURL returns the URL clients load key from
func (u *S3Uploader) PublicURL(key string) string {
	return u.baseURL + "/" + strings.TrimPrefix(key, "/")
}

// DeleteFile deletes a file from S3
func (u *S3Uploader) DeleteFile(ctx context.Context, key string) error {
	ctx, span := telemetry.TraceS3Call(ctx, "delete_object", telemetry.S3CallAttrs{Bucket: u.bucket, Key: key})
	defer span.End()

	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}
