package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"mathemania-service/internal/domain"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures an S3-compatible bucket.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Region skips the bucket-location lookup when set.
	Region string
	// PublicBaseURL is prefixed to object keys in returned URLs; defaults
	// to the endpoint URL plus the bucket.
	PublicBaseURL string
}

// Minio stores objects in MinIO or any S3-compatible service.
type Minio struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMinio(opts MinioOptions) (*Minio, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	base := opts.PublicBaseURL
	if base == "" {
		base = client.EndpointURL().String() + "/" + opts.Bucket
	}
	return &Minio{client: client, bucket: opts.Bucket, baseURL: strings.TrimSuffix(base, "/")}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func (m *Minio) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if size <= 0 {
		size = -1
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return m.baseURL + "/" + key, nil
}

func (m *Minio) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("stat object: %w", err)
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return u.String(), nil
}
