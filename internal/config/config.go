package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/openmined/netcdfpub/internal/publish"
	"github.com/openmined/netcdfpub/internal/store"
	"github.com/openmined/netcdfpub/internal/utils"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "PUBLIC_NETCDF"

	// the mounted proxy root pairs with iget, which reads the same iRODS
	// environment file
	DefaultStore    = store.BackendFS
	DefaultCopyEnv  = "IRODS_ENVIRONMENT_FILE"
	DefaultLogLevel = "info"
)

var (
	ErrMissingValue = errors.New("missing required setting")
)

type Config struct {
	LogFile     string
	LogLevel    string
	StoreConfig string
	ProxyPath   string
	CatalogPath string
	Store       string
	S3Config    string
	CopyCommand string
	CopyEnv     string
	LockFile    string
	Path        string
}

// Load reads the dotenv file into the process environment, then builds the
// config from PUBLIC_NETCDF_* variables. Variables already set in the
// environment win over the file.
func Load(dotenvPath string) (*Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil {
		return nil, fmt.Errorf("load env file '%s': %w", dotenvPath, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("store", DefaultStore)
	v.SetDefault("copy_env", DefaultCopyEnv)

	cfg := &Config{
		LogFile:     v.GetString("log_file"),
		LogLevel:    v.GetString("log_level"),
		StoreConfig: v.GetString("irods_environment_file"),
		ProxyPath:   v.GetString("irods_proxy_path"),
		CatalogPath: v.GetString("thredds_catalog_path"),
		Store:       v.GetString("store"),
		S3Config:    v.GetString("s3_config_file"),
		CopyCommand: v.GetString("copy_command"),
		CopyEnv:     v.GetString("copy_env"),
		LockFile:    v.GetString("lock_file"),
		Path:        dotenvPath,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"LOG_FILE", c.LogFile},
		{"IRODS_ENVIRONMENT_FILE", c.StoreConfig},
		{"IRODS_PROXY_PATH", c.ProxyPath},
		{"THREDDS_CATALOG_PATH", c.CatalogPath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s_%s", ErrMissingValue, EnvPrefix, r.key)
		}
	}

	var err error
	if c.LogFile, err = utils.ResolvePath(c.LogFile); err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	if c.StoreConfig, err = utils.ResolvePath(c.StoreConfig); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	if c.CatalogPath, err = utils.ResolvePath(c.CatalogPath); err != nil {
		return fmt.Errorf("catalog path: %w", err)
	}
	if c.LockFile != "" {
		if c.LockFile, err = utils.ResolvePath(c.LockFile); err != nil {
			return fmt.Errorf("lock file: %w", err)
		}
	}

	switch c.Store {
	case store.BackendFS:
		c.ProxyPath = filepath.Clean(c.ProxyPath)
		if strings.TrimSpace(c.CopyCommand) == "" {
			c.CopyCommand = publish.DefaultCopyCommand
		}
	case store.BackendS3:
		// a bucket has its own config file, and iget cannot read from it
		if strings.TrimSpace(c.S3Config) == "" {
			return fmt.Errorf("%w: %s_S3_CONFIG_FILE", ErrMissingValue, EnvPrefix)
		}
		if c.S3Config, err = utils.ResolvePath(c.S3Config); err != nil {
			return fmt.Errorf("s3 config: %w", err)
		}
		if strings.TrimSpace(c.CopyCommand) == "" {
			return fmt.Errorf("%w: %s_COPY_COMMAND", ErrMissingValue, EnvPrefix)
		}
	default:
		return fmt.Errorf("%w: %q", store.ErrUnknownBackend, c.Store)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// StoreConfigPath is the config file the selected store backend reads.
func (c *Config) StoreConfigPath() string {
	if c.Store == store.BackendS3 {
		return c.S3Config
	}
	return c.StoreConfig
}

// CopyEnvironment is the environment handed to the bulk-copy command so it
// connects with the same store configuration.
func (c *Config) CopyEnvironment() []string {
	if c.CopyEnv == "" {
		return nil
	}
	return []string{c.CopyEnv + "=" + c.StoreConfig}
}
