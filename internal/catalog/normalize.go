package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// each space becomes a double underscore
const spaceReplacement = "__"

// NormalizePermissions sets mode on path and on every file and directory below it.
func (c *Catalog) NormalizePermissions(path string, mode fs.FileMode) error {
	return afero.Walk(c.fs, path, func(p string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := c.fs.Chmod(p, mode); err != nil {
			return fmt.Errorf("chmod %s: %w", p, err)
		}
		return nil
	})
}

// NormalizeNames replaces spaces in the names of everything below path and
// returns the number of renamed entries. path itself is never renamed.
func (c *Catalog) NormalizeNames(path string) (int, error) {
	var paths []string
	err := afero.Walk(c.fs, path, func(p string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p != path {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", path, err)
	}

	// walk order is parent first, so reversed every child precedes its parent
	// and renaming never invalidates a path still to be visited
	slices.Reverse(paths)

	renamed := 0
	for _, p := range paths {
		name := filepath.Base(p)
		if !strings.Contains(name, " ") {
			continue
		}
		target := filepath.Join(filepath.Dir(p), strings.ReplaceAll(name, " ", spaceReplacement))
		if err := c.fs.Rename(p, target); err != nil {
			return renamed, fmt.Errorf("rename %s: %w", p, err)
		}
		renamed++
	}

	if renamed > 0 {
		c.logger.Warn("replaced spaces in names", "path", path, "renamed", renamed)
	}
	return renamed, nil
}
