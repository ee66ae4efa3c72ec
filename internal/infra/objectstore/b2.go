package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"mathemania-service/internal/domain"

	"github.com/kurin/blazer/b2"
)

// B2 stores objects in a Backblaze B2 bucket.
type B2 struct {
	client *b2.Client
	bucket *b2.Bucket
}

func NewB2(ctx context.Context, accountID, appKey, bucketName string) (*B2, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}
	return &B2{client: client, bucket: bucket}, nil
}

func (s *B2) Put(ctx context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	obj := s.bucket.Object(key)
	w := obj.NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}
	return obj.URL(), nil
}

// PresignedURL returns the object URL with a download authorization token
// scoped to the object key.
func (s *B2) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	obj := s.bucket.Object(key)
	if _, err := obj.Attrs(ctx); err != nil {
		if b2.IsNotExist(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("object attrs: %w", err)
	}
	token, err := s.bucket.AuthToken(ctx, key, expiry)
	if err != nil {
		return "", fmt.Errorf("auth token: %w", err)
	}
	return obj.URL() + "?Authorization=" + url.QueryEscape(token), nil
}
