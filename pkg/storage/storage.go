package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/storage/local"
	"github.com/engdata/equipsync/pkg/storage/minio"
)

// ProviderType selects where model documents are read from.
type ProviderType string

const (
	ProviderTypeLocal ProviderType = "local"
	ProviderTypeMinio ProviderType = "minio"
)

// Provider reads model export files. The pipeline never writes through it.
type Provider interface {
	// Fetch opens one object/file for reading.
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns the keys of all objects/files under a prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config carries the settings for the selected provider.
type Config struct {
	Type ProviderType

	// MinIO settings, ignored for local.
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Region     string
	BucketName string
}

// NewProvider creates a provider for the configured backend.
func NewProvider(cfg *Config, log logger.Logger) (Provider, error) {
	switch cfg.Type {
	case ProviderTypeLocal, "":
		return local.NewProvider(log), nil
	case ProviderTypeMinio:
		return minio.NewProvider(&minio.Config{
			Endpoint:   cfg.Endpoint,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			UseSSL:     cfg.UseSSL,
			Region:     cfg.Region,
			BucketName: cfg.BucketName,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Type)
	}
}
