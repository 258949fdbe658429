package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tutorhub/tutor-server/internal/config"
)

// objectAPI is the part of *minio.Client the storage uses; tests substitute a fake.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinIOStorage stores tutorial cover images in one bucket.
type MinIOStorage struct {
	api    objectAPI
	bucket string
}

// NewMinIOStorage creates a new MinIO storage client and ensures the bucket exists.
func NewMinIOStorage(ctx context.Context, cfg config.MinIOConfig) (*MinIOStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	return newWithAPI(ctx, mc, cfg.Bucket)
}

func newWithAPI(ctx context.Context, api objectAPI, bucket string) (*MinIOStorage, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio bucket create: %w", err)
		}
	}
	return &MinIOStorage{api: api, bucket: bucket}, nil
}

// CoverKey builds the object key for a new cover of the tutorial: tutorials/<id>/<uuid><ext>.
func CoverKey(tutorialID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "tutorials/" + tutorialID + "/" + uuid.NewString() + ext
}

// IsCoverKey reports whether key is an object key CoverKey could have produced
// for the tutorial.
func IsCoverKey(tutorialID, key string) bool {
	name, ok := strings.CutPrefix(key, "tutorials/"+tutorialID+"/")
	return ok && tutorialID != "" && name != "" && !strings.ContainsAny(name, "/\\")
}

// UploadFile uploads data from reader to the configured bucket using the provided key.
func (s *MinIOStorage) UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if _, err := s.api.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// GetPresignedURL returns a presigned GET URL valid for the given duration.
func (s *MinIOStorage) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presigned, err := s.api.PresignedGetObject(ctx, s.bucket, key, expires, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return presigned.String(), nil
}
