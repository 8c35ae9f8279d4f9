package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dharsanguruparan/weavd/internal/config"
	"github.com/dharsanguruparan/weavd/internal/model"
)

// Minio wraps MinIO/S3 interactions. Temporary and permanent images share one
// bucket and are told apart by prefix.
type Minio struct {
	client     *minio.Client
	bucket     string
	region     string
	publicURL  string
	presignTTL time.Duration
}

// NewMinio creates a MinIO client from the storage config.
func NewMinio(cfg config.Storage) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Minio{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		presignTTL: cfg.PresignTTL,
	}, nil
}

// EnsureBucket makes sure the image bucket exists before use.
func (s *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Put uploads an image and returns its URL.
func (s *Minio) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.storedURL(ctx, path)
}

// Get fetches the object bytes and content type.
func (s *Minio) Get(ctx context.Context, path string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()
	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("stat object: %w", err)
	}
	buf, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("read object: %w", err)
	}
	return buf, info.ContentType, nil
}

// Delete removes an object. S3 treats a missing key as success.
func (s *Minio) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// URL returns a URL the object can be fetched from now. Without a public base
// it is presigned and expires after the configured TTL.
func (s *Minio) URL(ctx context.Context, path string) (string, error) {
	if s.publicURL != "" {
		return s.publicURL + "/" + s.bucket + "/" + escape(path), nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, s.presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}

// storedURL is the URL Put hands back. Temporary objects only need to live as
// long as their session, so they may be presigned. Permanent objects end up on
// posts and get a URL without expiry; readers re-sign them through URL.
func (s *Minio) storedURL(ctx context.Context, path string) (string, error) {
	if s.publicURL != "" || strings.HasPrefix(path, model.TempPrefix) {
		return s.URL(ctx, path)
	}
	return strings.TrimRight(s.client.EndpointURL().String(), "/") + "/" + s.bucket + "/" + escape(path), nil
}

func escape(path string) string {
	return (&url.URL{Path: path}).EscapedPath()
}
