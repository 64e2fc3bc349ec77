package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openmined/netcdfpub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PUBLIC_NETCDF_LOG_FILE",
	"PUBLIC_NETCDF_LOG_LEVEL",
	"PUBLIC_NETCDF_IRODS_ENVIRONMENT_FILE",
	"PUBLIC_NETCDF_IRODS_PROXY_PATH",
	"PUBLIC_NETCDF_THREDDS_CATALOG_PATH",
	"PUBLIC_NETCDF_STORE",
	"PUBLIC_NETCDF_S3_CONFIG_FILE",
	"PUBLIC_NETCDF_COPY_COMMAND",
	"PUBLIC_NETCDF_COPY_ENV",
	"PUBLIC_NETCDF_LOCK_FILE",
}

// clearEnv unsets every key for the duration of the test; t.Setenv restores
// the previous values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeDotenv(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	path := writeDotenv(t, `
PUBLIC_NETCDF_LOG_FILE=/var/log/netcdf/publish.log
PUBLIC_NETCDF_IRODS_ENVIRONMENT_FILE=/etc/irods/irods_environment.json
PUBLIC_NETCDF_IRODS_PROXY_PATH=/hydroshareZone/home/proxy
PUBLIC_NETCDF_THREDDS_CATALOG_PATH=/srv/thredds/public/netcdf
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/log/netcdf/publish.log", cfg.LogFile)
	assert.Equal(t, "/etc/irods/irods_environment.json", cfg.StoreConfig)
	assert.Equal(t, "/hydroshareZone/home/proxy", cfg.ProxyPath)
	assert.Equal(t, "/srv/thredds/public/netcdf", cfg.CatalogPath)
	assert.Equal(t, store.BackendFS, cfg.Store)
	assert.Equal(t, "/etc/irods/irods_environment.json", cfg.StoreConfigPath())
	assert.Equal(t, "iget -rf {source} {dest_root}", cfg.CopyCommand)
	assert.Equal(t, []string{"IRODS_ENVIRONMENT_FILE=/etc/irods/irods_environment.json"}, cfg.CopyEnvironment())
	assert.Equal(t, path, cfg.Path)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, "INFO", level.String())
}

func TestLoadEnvironmentWins(t *testing.T) {
	clearEnv(t)
	path := writeDotenv(t, `
PUBLIC_NETCDF_LOG_FILE=/var/log/publish.log
PUBLIC_NETCDF_IRODS_ENVIRONMENT_FILE=/etc/irods.json
PUBLIC_NETCDF_IRODS_PROXY_PATH=/zone/proxy
PUBLIC_NETCDF_THREDDS_CATALOG_PATH=/srv/catalog
PUBLIC_NETCDF_STORE=s3
PUBLIC_NETCDF_S3_CONFIG_FILE=/etc/bucket.yaml
PUBLIC_NETCDF_COPY_COMMAND=aws s3 cp --recursive {source} {dest}
`)
	t.Setenv("PUBLIC_NETCDF_STORE", "fs")
	t.Setenv("PUBLIC_NETCDF_LOG_LEVEL", "debug")
	t.Setenv("PUBLIC_NETCDF_COPY_COMMAND", "rsync -a {source} {dest_root}")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, store.BackendFS, cfg.Store)
	assert.Equal(t, "rsync -a {source} {dest_root}", cfg.CopyCommand)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())
}

func TestLoadS3Settings(t *testing.T) {
	clearEnv(t)
	base := `
PUBLIC_NETCDF_LOG_FILE=/var/log/publish.log
PUBLIC_NETCDF_IRODS_ENVIRONMENT_FILE=/etc/irods.json
PUBLIC_NETCDF_IRODS_PROXY_PATH=proxy
PUBLIC_NETCDF_THREDDS_CATALOG_PATH=/srv/catalog
PUBLIC_NETCDF_STORE=s3
`

	_, err := Load(writeDotenv(t, base))
	assert.ErrorIs(t, err, ErrMissingValue)
	assert.ErrorContains(t, err, "PUBLIC_NETCDF_S3_CONFIG_FILE")

	clearEnv(t)
	_, err = Load(writeDotenv(t, base+"PUBLIC_NETCDF_S3_CONFIG_FILE=/etc/bucket.yaml\n"))
	assert.ErrorIs(t, err, ErrMissingValue)
	assert.ErrorContains(t, err, "PUBLIC_NETCDF_COPY_COMMAND")

	clearEnv(t)
	cfg, err := Load(writeDotenv(t, base+`PUBLIC_NETCDF_S3_CONFIG_FILE=/etc/bucket.yaml
PUBLIC_NETCDF_COPY_COMMAND=aws s3 cp --recursive s3://bucket/{source} {dest}
`))
	require.NoError(t, err)
	assert.Equal(t, "/etc/bucket.yaml", cfg.StoreConfigPath())
	assert.Equal(t, "proxy", cfg.ProxyPath)
	assert.Equal(t, []string{"IRODS_ENVIRONMENT_FILE=/etc/irods.json"}, cfg.CopyEnvironment())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestConfig_Validate_ErrorsOnInvalidInputs(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LogFile:     "/var/log/publish.log",
			LogLevel:    "info",
			StoreConfig: "/etc/irods.json",
			ProxyPath:   "/zone/proxy",
			CatalogPath: "/srv/catalog",
			Store:       store.BackendFS,
			CopyCommand: "iget -rf {source} {dest_root}",
			CopyEnv:     DefaultCopyEnv,
		}
	}

	require.NoError(t, valid().Validate())

	t.Run("missing catalog path", func(t *testing.T) {
		cfg := valid()
		cfg.CatalogPath = ""
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrMissingValue)
		assert.Contains(t, err.Error(), "PUBLIC_NETCDF_THREDDS_CATALOG_PATH")
	})

	t.Run("unknown store", func(t *testing.T) {
		cfg := valid()
		cfg.Store = "irods"
		assert.ErrorIs(t, cfg.Validate(), store.ErrUnknownBackend)
	})

	t.Run("empty copy command defaults for fs", func(t *testing.T) {
		cfg := valid()
		cfg.CopyCommand = "  "
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "iget -rf {source} {dest_root}", cfg.CopyCommand)
	})

	t.Run("s3 needs its own config and copy command", func(t *testing.T) {
		cfg := valid()
		cfg.Store = store.BackendS3
		assert.ErrorIs(t, cfg.Validate(), ErrMissingValue)

		cfg.S3Config = "/etc/bucket.yaml"
		cfg.CopyCommand = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingValue)

		cfg.CopyCommand = "aws s3 cp --recursive {source} {dest}"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "/etc/bucket.yaml", cfg.StoreConfigPath())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.LogLevel = "chatty"
		assert.ErrorContains(t, cfg.Validate(), "log level")
	})

	t.Run("relative paths are resolved", func(t *testing.T) {
		cfg := valid()
		cfg.CatalogPath = "catalog"
		cfg.LockFile = "run.lock"
		require.NoError(t, cfg.Validate())
		assert.True(t, filepath.IsAbs(cfg.CatalogPath))
		assert.True(t, filepath.IsAbs(cfg.LockFile))
	})

	t.Run("no copy env", func(t *testing.T) {
		cfg := valid()
		cfg.CopyEnv = ""
		assert.Nil(t, cfg.CopyEnvironment())
	})
}
