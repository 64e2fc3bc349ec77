package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

// MetadataFile holds the metadata of a collection on a mounted store.
const MetadataFile = ".metadata.json"

// LocalStore reads a store that is mounted on the local filesystem. Child
// directories of the root are collections.
type LocalStore struct {
	fs afero.Fs
}

func NewLocalStore(fsys afero.Fs) *LocalStore {
	return &LocalStore{fs: fsys}
}

func (s *LocalStore) Open(_ context.Context) (Session, error) {
	return &localSession{fs: s.fs}, nil
}

type localSession struct {
	fs afero.Fs
}

func (s *localSession) ListCollections(ctx context.Context, root string) ([]*Collection, error) {
	entries, err := afero.ReadDir(s.fs, filepath.FromSlash(root))
	if err != nil {
		return nil, fmt.Errorf("list collections %s: %w", root, err)
	}

	collections := make([]*Collection, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}

		collPath := path.Join(root, entry.Name())
		meta, err := s.readMetadata(collPath)
		if err != nil {
			return nil, err
		}

		collections = append(collections, &Collection{
			Name:     entry.Name(),
			Path:     collPath,
			Metadata: meta,
		})
	}

	return collections, nil
}

func (s *localSession) readMetadata(collPath string) (map[string]string, error) {
	metaPath := filepath.Join(filepath.FromSlash(collPath), MetadataFile)
	data, err := afero.ReadFile(s.fs, metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", metaPath, err)
	}

	meta := map[string]string{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", metaPath, err)
	}
	return meta, nil
}

func (s *localSession) Walk(ctx context.Context, collectionPath string, fn WalkFunc) error {
	root := filepath.FromSlash(collectionPath)
	sidecar := filepath.Join(root, MetadataFile)

	err := afero.Walk(s.fs, root, func(p string, info fs.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() || p == sidecar {
			return nil
		}
		return fn(&DataObject{
			Path:       filepath.ToSlash(p),
			Name:       info.Name(),
			Size:       info.Size(),
			ModifyTime: info.ModTime(),
		})
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", collectionPath, err)
	}
	return nil
}

func (s *localSession) Close() error {
	return nil
}
