package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/engdata/equipsync/pkg/logger"
)

// Config for the MinIO-backed provider.
type Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Region     string
	BucketName string
}

// Provider reads model export objects from a MinIO bucket.
type Provider struct {
	client     *minio.Client
	bucketName string
	logger     logger.Logger
}

func NewProvider(cfg *Config, log logger.Logger) (*Provider, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.BucketName)
	}

	return &Provider{
		client:     client,
		bucketName: cfg.BucketName,
		logger:     log,
	}, nil
}

// Fetch implements Provider.Fetch
func (p *Provider) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := p.client.GetObject(ctx, p.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		p.logger.Error("Failed to get object from MinIO",
			logger.String("bucket", p.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}

// List implements Provider.List
func (p *Provider) List(ctx context.Context, prefix string) ([]string, error) {
	objectCh := p.client.ListObjects(ctx, p.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var keys []string
	for obj := range objectCh {
		if obj.Err != nil {
			p.logger.Error("Error listing objects",
				logger.String("bucket", p.bucketName),
				logger.String("prefix", prefix),
				logger.Error(obj.Err),
			)
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
