package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(params.Body)
	f.puts = append(f.puts, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.err
}

func TestUploadGalleryImage(t *testing.T) {
	fake := &fakeS3{}
	u := newS3Uploader(fake, "us-east-1", "fanhub-media", "https://cdn.example.com/")
	u.now = func() time.Time { return time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC) }

	result, err := u.UploadGalleryImage(context.Background(), []byte("png-bytes"), "creator-1", "Poster.PNG")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^gallery/2026/07/creator-1/[0-9a-f-]{36}\.png$`), result.Key)
	assert.Equal(t, "https://cdn.example.com/"+result.Key, result.URL)
	assert.Equal(t, "image/png", result.ContentType)
	assert.Equal(t, int64(9), result.Size)

	require.Len(t, fake.puts, 1)
	put := fake.puts[0]
	assert.Equal(t, "fanhub-media", aws.ToString(put.Bucket))
	assert.Equal(t, "image/png", aws.ToString(put.ContentType))
	assert.Equal(t, "creator-1", put.Metadata["creator-id"])
	assert.Equal(t, []byte("png-bytes"), fake.bodies[0])
}

func TestUploadGalleryImageDefaults(t *testing.T) {
	u := newS3Uploader(&fakeS3{}, "eu-west-1", "bucket", "")

	result, err := u.UploadGalleryImage(context.Background(), []byte("x"), "c", "noext")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", result.ContentType)
	assert.Contains(t, result.URL, "https://bucket.s3.eu-west-1.amazonaws.com/gallery/")
}

func TestUploadErrors(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	u := newS3Uploader(fake, "us-east-1", "bucket", "")

	_, err := u.UploadGalleryImage(context.Background(), []byte("x"), "c", "a.jpg")
	assert.ErrorContains(t, err, "access denied")
	assert.ErrorContains(t, u.DeleteFile(context.Background(), "k"), "failed to delete")
	assert.ErrorContains(t, u.CheckBucketAccess(context.Background()), "cannot access S3 bucket bucket")
}

func TestDeleteFile(t *testing.T) {
	fake := &fakeS3{}
	u := newS3Uploader(fake, "us-east-1", "bucket", "")
	require.NoError(t, u.DeleteFile(context.Background(), "gallery/a.jpg"))
	assert.Equal(t, []string{"gallery/a.jpg"}, fake.deletes)
}
