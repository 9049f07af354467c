package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinIOStorage implements Storage using a MinIO bucket. Keys are path-escaped
// into object names.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// Config holds MinIO connection configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinIO creates a new MinIO storage client and ensures the bucket exists
func NewMinIO(ctx context.Context, cfg Config, logger *zap.Logger) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("Created MinIO bucket", zap.String("bucket", cfg.Bucket))
	}

	return &MinIOStorage{client: client, bucket: cfg.Bucket}, nil
}

func objectName(key string) string {
	return url.PathEscape(key)
}

func (s *MinIOStorage) Put(ctx context.Context, key string, obj Object) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName(key), bytes.NewReader(obj.Data), int64(len(obj.Data)), minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *MinIOStorage) Get(ctx context.Context, key string) (*Object, error) {
	o, err := s.client.GetObject(ctx, s.bucket, objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer o.Close()

	info, err := o.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	data, err := io.ReadAll(o)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return &Object{Data: data, ContentType: info.ContentType}, nil
}

func (s *MinIOStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectName(key), minio.RemoveObjectOptions{})
}

func (s *MinIOStorage) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", info.Err)
		}
		key, err := url.PathUnescape(info.Key)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}
