package importer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stocktake-io/stocktake/internal/infra/blob"
)

// Source yields dataset files in the order they should be replayed.
type Source interface {
	Files(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// DirSource reads .json dataset files from a local directory, sorted by
// name so timestamp-prefixed files replay in order.
type DirSource struct{ Dir string }

func (s DirSource) Files(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s DirSource) Read(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Dir, name))
}

// S3Source reads dataset files from a bucket prefix.
type S3Source struct {
	Blob   *blob.S3Deps
	Prefix string
}

func (s S3Source) Files(ctx context.Context) ([]string, error) {
	keys, err := s.Blob.ListKeys(ctx, s.Prefix)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		if strings.HasSuffix(k, ".json") {
			names = append(names, k)
		}
	}
	return names, nil
}

func (s S3Source) Read(ctx context.Context, name string) ([]byte, error) {
	return s.Blob.Fetch(ctx, name)
}
