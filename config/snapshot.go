package config

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/typedann/blobstore"
	minioblob "github.com/hupe1980/typedann/blobstore/minio"
	s3blob "github.com/hupe1980/typedann/blobstore/s3"
	"github.com/hupe1980/typedann/snapshot"
)

// Options converts the snapshot settings into snapshot options.
func (c SnapshotConfig) Options() ([]snapshot.Option, error) {
	codec, err := snapshot.ParseCodec(c.Codec)
	if err != nil {
		return nil, err
	}

	opts := []snapshot.Option{snapshot.WithCodec(codec)}
	if c.IOLimitBytesPerSec > 0 {
		opts = append(opts, snapshot.WithIOLimit(c.IOLimitBytesPerSec))
	}
	return opts, nil
}

// OpenStore creates the configured blob store.
func (c SnapshotConfig) OpenStore(ctx context.Context) (blobstore.Store, error) {
	switch c.Backend {
	case "local":
		return blobstore.NewLocalStore(c.Dir), nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "s3":
		opts := []s3blob.Option{s3blob.WithPrefix(c.Prefix)}
		if c.Region != "" {
			opts = append(opts, s3blob.WithRegion(c.Region))
		}
		return s3blob.New(ctx, c.Bucket, opts...)
	case "minio":
		client, err := minio.New(c.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
			Secure: c.Secure,
			Region: c.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		return minioblob.NewStore(client, c.Bucket, c.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", c.Backend)
	}
}
