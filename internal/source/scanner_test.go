package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/netcdfpub/internal/store"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const proxyRoot = "/proxy"

var baseTime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	t   *testing.T
	fs  afero.Fs
	dir string
}

func newFixture(t *testing.T) *fixture {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(proxyRoot, 0o755))
	return &fixture{t: t, fs: fsys, dir: proxyRoot}
}

func (f *fixture) collection(name, metadata string) {
	dir := filepath.Join(f.dir, name)
	require.NoError(f.t, f.fs.MkdirAll(dir, 0o755))
	if metadata != "" {
		require.NoError(f.t, afero.WriteFile(f.fs, filepath.Join(dir, store.MetadataFile), []byte(metadata), 0o644))
	}
}

func (f *fixture) file(name, rel string, modified time.Time) {
	path := filepath.Join(f.dir, name, rel)
	require.NoError(f.t, f.fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, afero.WriteFile(f.fs, path, []byte(rel), 0o644))
	require.NoError(f.t, f.fs.Chtimes(path, modified, modified))
}

func (f *fixture) store() store.Store {
	return store.NewLocalStore(f.fs)
}

const public = `{"isPublic": "true"}`

func TestScanFilters(t *testing.T) {
	f := newFixture(t)

	f.collection("published", public)
	f.file("published", "data/contents/a.nc", baseTime)
	f.file("published", "data/contents/readme.txt", baseTime.Add(time.Hour))

	f.collection("uppercase", public)
	f.file("uppercase", "data/contents/B.NC", baseTime)

	f.collection("private", `{"isPublic": "false"}`)
	f.file("private", "data/contents/a.nc", baseTime)

	f.collection("truthy", `{"isPublic": "True"}`)
	f.file("truthy", "data/contents/a.nc", baseTime)

	f.collection("unannotated", "")
	f.file("unannotated", "data/contents/a.nc", baseTime)

	f.collection("nonetcdf", public)
	f.file("nonetcdf", "data/contents/a.csv", baseTime)
	f.file("nonetcdf", "data/contents/nc", baseTime)

	f.collection("empty", public)

	for _, name := range DefaultExcluded {
		f.collection(name, public)
		f.file(name, "x.nc", baseTime)
	}

	scanner := NewScanner(f.store(), proxyRoot, DefaultRules(), discardLogger())
	inv, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"published", "uppercase"}, inv.IDs().ToSlice())

	// latest across all data objects, not only matching ones
	item, ok := inv.Get("published")
	require.True(t, ok)
	assert.True(t, item.LastModified.Equal(baseTime.Add(time.Hour)))
}

func TestScanCustomRules(t *testing.T) {
	f := newFixture(t)
	f.collection("bags", `{"visibility": "open"}`)
	f.file("bags", "x.h5", baseTime)
	f.collection("other", `{"visibility": "open"}`)
	f.file("other", "x.h5", baseTime)

	rules := Rules{
		Excluded:    mapset.NewSet("other"),
		PublicKey:   "visibility",
		PublicValue: "open",
		Extension:   ".h5",
	}
	inv, err := NewScanner(f.store(), proxyRoot, rules, discardLogger()).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bags"}, inv.IDs().ToSlice())
}

func TestScanMissingRoot(t *testing.T) {
	scanner := NewScanner(store.NewLocalStore(afero.NewMemMapFs()), "/missing", DefaultRules(), discardLogger())

	inv, err := scanner.Scan(context.Background())
	assert.Nil(t, inv)

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, "/missing", scanErr.Root)
}

type failingStore struct{ err error }

func (s failingStore) Open(context.Context) (store.Session, error) {
	return nil, s.err
}

func TestScanOpenError(t *testing.T) {
	connErr := errors.New("connection refused")
	scanner := NewScanner(failingStore{err: connErr}, proxyRoot, DefaultRules(), discardLogger())

	_, err := scanner.Scan(context.Background())
	assert.ErrorIs(t, err, connErr)

	var scanErr *ScanError
	assert.ErrorAs(t, err, &scanErr)
}

func TestRulesIsPublic(t *testing.T) {
	rules := DefaultRules()
	assert.True(t, rules.IsPublic(map[string]string{"isPublic": "true"}))
	assert.True(t, rules.IsPublic(map[string]string{"ispublic": "true"}))
	assert.False(t, rules.IsPublic(map[string]string{"isPublic": "TRUE"}))
	assert.False(t, rules.IsPublic(map[string]string{"isPublic": "true "}))
	assert.False(t, rules.IsPublic(map[string]string{"public": "true"}))
	assert.False(t, rules.IsPublic(nil))

	// exact key wins over case variants
	assert.True(t, rules.IsPublic(map[string]string{"isPublic": "true", "ispublic": "false"}))

	// conflicting case variants never publish, whatever the map order
	conflicting := map[string]string{"ispublic": "false", "ISPUBLIC": "true"}
	for range 200 {
		require.False(t, rules.IsPublic(conflicting))
	}
	assert.True(t, rules.IsPublic(map[string]string{"ispublic": "true", "ISPUBLIC": "true"}))
}

func TestRulesMatchesAndExcluded(t *testing.T) {
	rules := DefaultRules()
	assert.True(t, rules.Matches("a.nc"))
	assert.True(t, rules.Matches("A.Nc"))
	assert.False(t, rules.Matches("a.nc4"))
	assert.False(t, rules.Matches("a.ncx"))

	assert.True(t, rules.IsExcluded("zips"))
	assert.False(t, rules.IsExcluded("Zips"))
	assert.False(t, Rules{}.IsExcluded("zips"))
}
