package bundle

import (
	"context"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/engdata/equipsync/pkg/storage"
)

// DiscoveryConfig describes where model bundles live under a unit's base
// path. The defaults follow the shared-drive convention the catalog rows
// point at: <base>/06 Revit/<*MEP*>/.../<file>.json
type DiscoveryConfig struct {
	ModelDir      string // subdirectory holding model exports
	FolderPattern string // glob a discipline folder must match
	Extension     string // bundle file extension
}

// DefaultDiscovery returns the shared-drive layout conventions.
func DefaultDiscovery() DiscoveryConfig {
	return DiscoveryConfig{
		ModelDir:      "06 Revit",
		FolderPattern: "*MEP*",
		Extension:     ".json",
	}
}

// Discover expands one unit's base path into the concrete bundle files to
// process. An empty result is normal: the run skips the unit and moves on.
func Discover(ctx context.Context, provider storage.Provider, basePath string, cfg DiscoveryConfig) ([]string, error) {
	if basePath == "" {
		return nil, nil
	}

	root := filepath.Join(basePath, cfg.ModelDir)
	keys, err := provider.List(ctx, root)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, key := range keys {
		if !strings.EqualFold(path.Ext(filepath.ToSlash(key)), cfg.Extension) {
			continue
		}
		if matchesDiscipline(key, root, cfg.FolderPattern) {
			files = append(files, key)
		}
	}
	sort.Strings(files)
	return files, nil
}

// matchesDiscipline reports whether any directory segment between the model
// root and the file matches the discipline folder pattern.
func matchesDiscipline(key, root, pattern string) bool {
	rel, err := filepath.Rel(root, key)
	if err != nil {
		rel = key
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	if len(segments) == 0 {
		return false
	}
	for _, seg := range segments[:len(segments)-1] {
		if ok, err := path.Match(pattern, seg); err == nil && ok {
			return true
		}
	}
	return false
}
