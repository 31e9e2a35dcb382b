// Package objectstore is the thin wrapper over an S3-compatible bucket
// that uploads/fetches opaque blobs by key and issues presigned read
// URLs, implemented with minio-go.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/haqnow/archive/internal/apierr"
)

type Store struct {
	client        *minio.Client
	bucket        string
	publicURLBase string
}

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicURLBase string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: client init: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("objectstore: bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("objectstore: create bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket, publicURLBase: cfg.PublicURLBase}, nil
}

// NewDocumentKey generates a key under the documents/<uuid>.pdf layout.
func NewDocumentKey() string {
	return fmt.Sprintf("documents/%s.pdf", uuid.NewString())
}

// Put uploads the sanitised PDF bytes under key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return apierr.Wrap(apierr.UpstreamUnavailable, "object store upload failed", err)
	}
	return nil
}

// Get streams the blob back.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apierr.Wrap(apierr.UpstreamUnavailable, "object store fetch failed", err)
	}
	if _, err := obj.Stat(); err != nil {
		return nil, apierr.New(apierr.NotFound, "object not found")
	}
	return obj, nil
}

// Remove deletes the blob; best-effort, delete-if-exists semantics.
func (s *Store) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return apierr.Wrap(apierr.UpstreamUnavailable, "object store delete failed", err)
	}
	return nil
}

// PresignedURL issues a presigned read URL, falling back to the
// configured public base if the deployment serves the bucket behind a
// CDN/reverse proxy rather than direct presigned minio URLs.
func (s *Store) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if s.publicURLBase != "" {
		return s.publicURLBase + "/" + key, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", apierr.Wrap(apierr.UpstreamUnavailable, "presign failed", err)
	}
	return u.String(), nil
}
