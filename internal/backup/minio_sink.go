package backup

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const latestObject = "index/latest.json"

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// MinioSink writes every snapshot to an S3-compatible bucket, once under
// a timestamped name and once as index/latest.json.
type MinioSink struct {
	client *minio.Client
	bucket string
}

func NewMinioSink(cfg MinioConfig) (*MinioSink, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioSink{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioSink) Name() string { return "minio" }

func (s *MinioSink) Store(ctx context.Context, snap Snapshot) error {
	stamped := fmt.Sprintf("index/alphanumeric-index-%s.json", snap.TakenAt.Format("20060102T150405Z"))
	for _, name := range []string{stamped, latestObject} {
		_, err := s.client.PutObject(ctx, s.bucket, name,
			bytes.NewReader(snap.Data), int64(len(snap.Data)),
			minio.PutObjectOptions{ContentType: "application/json"},
		)
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", name, err)
		}
	}
	return nil
}
