package objectstore

import (
	"context"
	"fmt"

	"mathemania-service/internal/app"
	"mathemania-service/internal/config"
	"mathemania-service/internal/infra/memory"
)

// New builds the object store selected by storage.provider.
func New(ctx context.Context, cfg config.Config) (app.ObjectStore, error) {
	st := cfg.Storage
	switch st.Provider {
	case "", "memory":
		return memory.NewObjectStore(st.PublicBaseURL), nil
	case "minio":
		m, err := NewMinio(MinioOptions{
			Endpoint:      st.Minio.Endpoint,
			AccessKey:     st.Minio.AccessKey,
			SecretKey:     st.Minio.SecretKey,
			UseSSL:        st.Minio.UseSSL,
			Bucket:        st.Bucket,
			PublicBaseURL: st.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return m, nil
	case "b2":
		return NewB2(ctx, st.B2.Account, st.B2.Key, st.Bucket)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", st.Provider)
	}
}
