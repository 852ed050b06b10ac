// Package minio stores exported IC packets in S3-compatible object
// storage and hands out presigned download links.
package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
)

var ErrObjectNotFound = appErrors.New(appErrors.ErrCodeExportNotFound, "stored object not found")

// API abstracts the minio-go client surface we use, for testing.
type API interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// Store implements the packet export object store over a single
// bucket.
type Store struct {
	client        API
	bucket        string
	presignExpiry time.Duration
	logger        logging.Logger
}

// NewStore connects to the configured endpoint and ensures the export
// bucket exists.
func NewStore(cfg config.MinIOConfig, logger logging.Logger) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "minio endpoint required")
	}
	if cfg.Bucket == "" {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "minio bucket required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeInternal, "failed to create minio client")
	}

	s := newStore(client, cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("Connected to object storage",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
	)
	return s, nil
}

// NewStoreWithAPI builds a Store over an existing client. Used by tests.
func NewStoreWithAPI(api API, cfg config.MinIOConfig, logger logging.Logger) *Store {
	return newStore(api, cfg, logger)
}

func newStore(api API, cfg config.MinIOConfig, logger logging.Logger) *Store {
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Store{
		client:        api,
		bucket:        cfg.Bucket,
		presignExpiry: expiry,
		logger:        logger,
	}
}

// EnsureBucket creates the export bucket when missing.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeServiceUnavailable, "failed to check bucket "+s.bucket)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeInternal, "failed to create bucket "+s.bucket)
	}
	s.logger.Info("Created object storage bucket", logging.String("bucket", s.bucket))
	return nil
}

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return appErrors.New(appErrors.ErrCodeValidation, "object key required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeExportFailed, "failed to upload object "+key)
	}

	s.logger.Debug("Object uploaded",
		logging.String("key", key),
		logging.Int("size_bytes", len(data)),
	)
	return nil
}

// Get downloads the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeInternal, "failed to open object "+key)
	}
	defer obj.Close() //nolint:errcheck

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrCodeInternal, "failed to read object "+key)
	}
	return data, nil
}

// Exists reports whether key is present in the bucket.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrCodeInternal, "failed to stat object "+key)
	}
	return true, nil
}

// Delete removes the object stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeInternal, "failed to remove object "+key)
	}
	return nil
}

// PresignedURL returns a time-limited download link for key. A
// non-positive expiry falls back to the configured default.
func (s *Store) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.presignExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrCodeExportFailed, "failed to presign object "+key)
	}
	return u.String(), nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
