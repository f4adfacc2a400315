package pin

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type ObjectStorage interface {
	Upload(ctx context.Context, objectKey string, contentType string, data []byte, tags map[string]string) error
	// PublicLink is the canonical display URL for an uploaded object.
	PublicLink(objectKey string) string
	// CDNLink is the distribution URL; falls back to PublicLink when no CDN is configured.
	CDNLink(objectKey string) string
	Bucket() string
}

type minioStorage struct {
	client     *minio.Client
	bucketName string
	publicBase string
	cdnBase    string
}

func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket, publicBase, cdnBase string) (ObjectStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, errBucket := client.BucketExists(ctx, bucket)
	if errBucket != nil {
		return nil, errBucket
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	if publicBase == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s", scheme, endpoint)
	}

	return &minioStorage{
		client:     client,
		bucketName: bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		cdnBase:    strings.TrimRight(cdnBase, "/"),
	}, nil
}

func (s *minioStorage) Upload(ctx context.Context, objectKey string, contentType string, data []byte, tags map[string]string) error {
	reader := bytes.NewReader(data)
	size := int64(len(data))

	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserTags:    tags,
	})
	return err
}

func (s *minioStorage) PublicLink(objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucketName, objectKey)
}

func (s *minioStorage) CDNLink(objectKey string) string {
	if s.cdnBase == "" {
		return s.PublicLink(objectKey)
	}
	return fmt.Sprintf("%s/%s", s.cdnBase, objectKey)
}

func (s *minioStorage) Bucket() string {
	return s.bucketName
}
