package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
)

const (
	BackendS3 = "s3"
	BackendFS = "fs"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// Collection is a child collection directly under a root.
type Collection struct {
	Name     string
	Path     string
	Metadata map[string]string
}

// DataObject is a file stored somewhere below a collection.
type DataObject struct {
	Path       string
	Name       string
	Size       int64
	ModifyTime time.Time
}

// WalkFunc is called once per data object; a non-nil error stops the walk.
type WalkFunc func(obj *DataObject) error

// Session is a scoped connection to the content store. Callers open one per
// scan or timestamp query and close it straight after.
type Session interface {
	ListCollections(ctx context.Context, root string) ([]*Collection, error)
	Walk(ctx context.Context, collectionPath string, fn WalkFunc) error
	Close() error
}

type Store interface {
	Open(ctx context.Context) (Session, error)
}

// New builds a store for the given backend. configPath is the s3 config file
// and is unused by the fs backend, which reads a mounted proxy root.
func New(backend string, configPath string) (Store, error) {
	switch backend {
	case BackendS3:
		cfg, err := LoadS3Config(configPath)
		if err != nil {
			return nil, err
		}
		return NewS3Store(cfg), nil
	case BackendFS:
		return NewLocalStore(afero.NewOsFs()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
