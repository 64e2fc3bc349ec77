package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gofrs/flock"
	"github.com/openmined/netcdfpub/internal/inventory"
	"github.com/openmined/netcdfpub/internal/utils"
	"github.com/spf13/afero"
)

const (
	// DefaultMode is rwx for the owner and r-x for group and others.
	DefaultMode fs.FileMode = 0o755

	lockFile = ".netcdfpub.lock"
)

var (
	ErrCatalogLocked = errors.New("catalog locked by another process")

	// DefaultResourcePattern matches 32 character alphanumeric resource ids.
	DefaultResourcePattern = strings.Repeat("[0-9A-Za-z]", 32)
)

// Catalog is the published destination tree. Every top-level entry whose name
// matches the resource pattern is a published resource; its mtime is the
// source timestamp it was last published at.
type Catalog struct {
	Root string

	fs      afero.Fs
	pattern string
	logger  *slog.Logger
	flock   *flock.Flock
}

type Option func(*Catalog)

// WithFs sets the filesystem the catalog operates on. Defaults to the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(c *Catalog) {
		c.fs = fsys
	}
}

// WithPattern overrides the resource id pattern.
func WithPattern(pattern string) Option {
	return func(c *Catalog) {
		c.pattern = pattern
	}
}

// WithLockFile overrides the run lock path.
func WithLockFile(path string) Option {
	return func(c *Catalog) {
		c.flock = flock.New(path)
	}
}

func New(root string, logger *slog.Logger, opts ...Option) (*Catalog, error) {
	absRoot, err := utils.ResolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", root, err)
	}

	c := &Catalog{
		Root:    absRoot,
		fs:      afero.NewOsFs(),
		pattern: DefaultResourcePattern,
		logger:  logger.With("component", "catalog"),
		flock:   flock.New(filepath.Join(absRoot, lockFile)),
	}
	for _, opt := range opts {
		opt(c)
	}

	if !doublestar.ValidatePattern(c.pattern) {
		return nil, fmt.Errorf("invalid resource pattern %q", c.pattern)
	}

	return c, nil
}

// Fs returns the filesystem backing the catalog.
func (c *Catalog) Fs() afero.Fs {
	return c.fs
}

// Path returns the absolute destination path of a resource.
func (c *Catalog) Path(id string) string {
	return filepath.Join(c.Root, id)
}

// IsResourceID reports whether name has the shape of a resource id.
func (c *Catalog) IsResourceID(name string) bool {
	ok, err := doublestar.Match(c.pattern, name)
	return err == nil && ok
}

// Scan lists the published resources directly under the catalog root.
func (c *Catalog) Scan() (inventory.Inventory, error) {
	entries, err := afero.ReadDir(c.fs, c.Root)
	if err != nil {
		return nil, fmt.Errorf("scan catalog %s: %w", c.Root, err)
	}

	inv := make(inventory.Inventory, 0, len(entries))
	for _, entry := range entries {
		if !c.IsResourceID(entry.Name()) {
			continue
		}
		inv = append(inv, inventory.Item{
			ID:           entry.Name(),
			LastModified: entry.ModTime(),
		})
	}

	c.logger.Info("scan destination", "root", c.Root, "resources", len(inv))
	return inv, nil
}

// Remove deletes a published resource and everything under it.
func (c *Catalog) Remove(id string) error {
	path := c.Path(id)
	if err := c.fs.RemoveAll(path); err != nil {
		return &RemovalError{ID: id, Path: path, Err: err}
	}
	c.logger.Info("removed resource", "id", id, "path", path)
	return nil
}

// Stamp sets the access and modification time of a published resource.
func (c *Catalog) Stamp(id string, ts time.Time) error {
	path := c.Path(id)
	if err := c.fs.Chtimes(path, ts, ts); err != nil {
		return fmt.Errorf("stamp %s: %w", path, err)
	}
	return nil
}

// Lock takes an advisory lock so that two runs never share a catalog.
func (c *Catalog) Lock() error {
	if err := utils.EnsureParent(c.flock.Path()); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", c.flock.Path(), err)
	}

	locked, err := c.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock catalog: %w", err)
	}
	if !locked {
		return ErrCatalogLocked
	}

	return nil
}

func (c *Catalog) Unlock() error {
	// if this process hasn't locked the catalog, then don't delete the lock file
	if !c.flock.Locked() {
		return nil
	}

	if err := c.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock catalog: %w", err)
	}

	return os.Remove(c.flock.Path())
}
