package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"eventcalendar/internal/domain"
)

// S3Config holds configuration for the S3-backed image store.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// NewImageStore creates an ImageStore from config. An empty bucket selects the
// no-op store, which accepts writes and serves nothing.
func NewImageStore(config S3Config) (domain.ImageStore, error) {
	if config.Bucket == "" {
		log.Printf("[STORAGE] No bucket configured, using noop image store")
		return &noopStore{}, nil
	}
	awsCfg := aws.Config{
		Region: config.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			),
		),
	}
	return &s3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: config.Bucket,
	}, nil
}

type s3Store struct {
	client *s3.Client
	bucket string
}

func (s *s3Store) Put(ctx context.Context, key, contentType string, data []byte, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", key, err)
	}
	return nil
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to get object %q: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object %q: %w", key, err)
	}
	return data, aws.ToString(out.ContentType), nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

type noopStore struct{}

func (n *noopStore) Put(ctx context.Context, key, contentType string, data []byte, metadata map[string]string) error {
	log.Printf("[STORAGE] Object would be stored (noop): %s (%d bytes)", key, len(data))
	return nil
}

func (n *noopStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	return nil, "", domain.ErrNotFound
}

func (n *noopStore) Delete(ctx context.Context, key string) error {
	return nil
}
