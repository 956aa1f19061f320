package storage

import (
	"bytes"
	"context"
	"fmt"

	appconfig "pixchat-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// StoredImage is the external reference persisted for an uploaded image:
// the public URL plus the deletable object key.
type StoredImage struct {
	URL string
	Key string
}

// ImageStore uploads chat images and avatars to an S3-compatible bucket.
type ImageStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewImageStore creates an image store from storage configuration. A custom
// endpoint switches the client to path-style addressing for S3-compatible
// providers.
func NewImageStore(cfg appconfig.StorageConfig) (*ImageStore, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &ImageStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}, nil
}

// Upload stores an image under key and returns its external reference.
func (s *ImageStore) Upload(ctx context.Context, key string, data []byte, contentType string) (*StoredImage, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &StoredImage{
		URL: fmt.Sprintf("%s/%s", s.publicURL, key),
		Key: key,
	}, nil
}

// Delete removes an image by its object key.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
