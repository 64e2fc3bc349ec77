package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/openmined/netcdfpub/internal/catalog"
	"github.com/openmined/netcdfpub/internal/config"
	"github.com/openmined/netcdfpub/internal/publish"
	"github.com/openmined/netcdfpub/internal/source"
	"github.com/openmined/netcdfpub/internal/store"
	"github.com/openmined/netcdfpub/internal/sync"
	"github.com/openmined/netcdfpub/internal/utils"
	"github.com/spf13/cobra"
)

// app is the wired set of components for one invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *catalog.Catalog
	engine  *sync.SyncEngine
	logs    io.Closer
}

func newApp(dotenvPath string, console io.Writer) (*app, error) {
	cfg, err := config.Load(dotenvPath)
	if err != nil {
		return nil, err
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	logger, logs, err := utils.NewLogger(cfg.LogFile, level, console)
	if err != nil {
		return nil, err
	}

	a, err := wire(cfg, logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		logs.Close()
		return nil, err
	}
	a.logs = logs
	return a, nil
}

func wire(cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := store.New(cfg.Store, cfg.StoreConfigPath())
	if err != nil {
		return nil, err
	}

	var catOpts []catalog.Option
	if cfg.LockFile != "" {
		catOpts = append(catOpts, catalog.WithLockFile(cfg.LockFile))
	}
	cat, err := catalog.New(cfg.CatalogPath, logger, catOpts...)
	if err != nil {
		return nil, err
	}

	copier, err := publish.NewExecCopier(cfg.CopyCommand, cfg.CopyEnvironment()...)
	if err != nil {
		return nil, err
	}

	rules := source.DefaultRules()
	scanner := source.NewScanner(st, cfg.ProxyPath, rules, logger)
	resolver := source.NewResolver(st, rules)
	publisher := publish.NewPublisher(cfg.ProxyPath, cat, resolver, copier, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		catalog: cat,
		engine:  sync.NewSyncEngine(scanner, cat, publisher, logger),
	}, nil
}

func (a *app) Close() error {
	if a.logs == nil {
		return nil
	}
	return a.logs.Close()
}

// runLocked wires the app from the dotenv file and runs fn while holding the
// catalog lock. Errors reaching here end the process with a non-zero code.
func runLocked(cmd *cobra.Command, dotenvPath string, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(dotenvPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	cmd.SilenceUsage = true

	if err := a.catalog.Lock(); err != nil {
		a.logger.Error("cannot start", "catalog", a.catalog.Root, "error", err)
		return err
	}
	defer func() {
		if err := a.catalog.Unlock(); err != nil {
			a.logger.Warn("release lock", "error", err)
		}
	}()

	err = fn(cmd.Context(), a)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("run failed", "error", err)
	}
	return err
}
