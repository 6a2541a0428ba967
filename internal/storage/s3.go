// Package storage persists announcement attachments in S3-compatible object
// storage and hands back publicly resolvable URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// StoredObject describes an uploaded attachment.
type StoredObject struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Config holds configuration for the S3 store.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // Optional custom endpoint (MinIO, LocalStack).
	PublicURL string // Base URL attachments resolve under; defaults to the bucket endpoint.
}

// S3Store uploads attachments to a single bucket under an uploads/ prefix.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Store creates a new S3-backed attachment store.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	clientOpts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Path style is required for MinIO and LocalStack.
			o.UsePathStyle = true
		}
	}
	client := s3.NewFromConfig(awsCfg, clientOpts)

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Store{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// Upload stores the object and returns its public description. A random key
// prefix keeps distinct uploads with the same filename from colliding.
func (s *S3Store) Upload(ctx context.Context, name, contentType string, size int64, body io.Reader) (StoredObject, error) {
	name = path.Base(name)
	if name == "" || name == "." || name == "/" {
		return StoredObject{}, fmt.Errorf("storage: attachment name required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := "uploads/" + uuid.NewString() + "/" + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return StoredObject{}, fmt.Errorf("storage: s3 put failed: %w", err)
	}

	return StoredObject{
		Name: name,
		URL:  s.publicURL + "/" + key,
		Size: size,
		Type: contentType,
	}, nil
}

// Delete removes an uploaded object by its key suffix beneath the public URL.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 delete failed: %w", err)
	}
	return nil
}
