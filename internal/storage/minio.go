package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectAPI is the part of *minio.Client the store uses.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

type MinIO struct {
	api    objectAPI
	bucket string
	region string
	logger *slog.Logger
}

func NewMinIO(cfg MinIOConfig, logger *slog.Logger) (*MinIO, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newMinIO(client, cfg.Bucket, cfg.Region, logger), nil
}

func newMinIO(api objectAPI, bucket, region string, logger *slog.Logger) *MinIO {
	if logger == nil {
		logger = slog.Default()
	}
	return &MinIO{api: api, bucket: bucket, region: region, logger: logger}
}

// EnsureBucket creates the bucket if it does not exist yet.
func (m *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := m.api.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.api.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	m.logger.Info("storage.bucket.created", "bucket", m.bucket)
	return nil
}

func (m *MinIO) Put(ctx context.Context, name, contentType string, data []byte) (Object, error) {
	if !validName(name) {
		return Object{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	info, err := m.api.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		m.logger.Error("storage.put.failed", "backend", "minio", "name", name, "error", err)
		return Object{}, fmt.Errorf("upload object: %w", err)
	}
	m.logger.Info("storage.put.ok", "backend", "minio", "name", name, "bytes", info.Size, "etag", info.ETag)
	return Object{Name: name, Size: info.Size, ContentType: contentType, StoredAt: time.Now().UTC()}, nil
}

func (m *MinIO) URL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	u, err := m.api.PresignedGetObject(ctx, m.bucket, name, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}
