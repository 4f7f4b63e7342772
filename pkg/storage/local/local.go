package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/engdata/equipsync/pkg/logger"
)

// Provider reads model files straight off the filesystem (shared engineering
// drives mounted locally).
type Provider struct {
	logger logger.Logger
}

func NewProvider(log logger.Logger) *Provider {
	return &Provider{logger: log}
}

// Fetch opens one file read-only.
func (p *Provider) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, nil
}

// List walks a directory tree and returns every regular file beneath it.
// A missing directory yields an empty list, not an error: catalog rows can
// point at paths that do not exist yet.
func (p *Provider) List(ctx context.Context, prefix string) ([]string, error) {
	info, err := os.Stat(prefix)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Warn("Directory not found",
				logger.String("path", prefix),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", prefix, err)
	}
	if !info.IsDir() {
		return []string{prefix}, nil
	}

	var keys []string
	err = filepath.WalkDir(prefix, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			p.logger.Warn("Skipping unreadable path",
				logger.String("path", path),
				logger.Error(err),
			)
			return fs.SkipDir
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if !d.IsDir() {
			keys = append(keys, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", prefix, err)
	}
	return keys, nil
}
