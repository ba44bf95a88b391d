package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Uploader is the media-storage collaborator. Failures surface as errors to
// the caller and are never retried here; a post is not created when its media
// upload fails.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename, resourceType string) (string, error)
}

// S3Uploader stores post media in an S3 bucket.
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Uploader creates an uploader using the default AWS credential chain.
func NewS3Uploader(region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Uploader{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// Upload writes the file under media/{year}/{month}/{uuid}{ext} and returns
// its public URL.
func (u *S3Uploader) Upload(ctx context.Context, data []byte, filename, resourceType string) (string, error) {
	extension := filepath.Ext(filename)
	now := time.Now()
	key := fmt.Sprintf("media/%d/%02d/%s%s", now.Year(), now.Month(), uuid.New().String(), extension)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(extension, resourceType)),
		Metadata: map[string]string{
			"original-filename": filename,
			"resource-type":     resourceType,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.baseURL, "/"), key), nil
}

func contentTypeFor(extension, resourceType string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	}
	if resourceType == "video" {
		return "video/mp4"
	}
	return "application/octet-stream"
}
