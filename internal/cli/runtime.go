package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/questlog/internal/app"
	"github.com/dshills/questlog/internal/catalog"
	"github.com/dshills/questlog/internal/config"
	"github.com/dshills/questlog/internal/logging"
	"github.com/dshills/questlog/internal/migrate"
	"github.com/dshills/questlog/internal/paths"
	"github.com/dshills/questlog/internal/storage"
)

// runtime is the resolved configuration shared by the subcommands
type runtime struct {
	cfg        config.Config
	configFile string
	logger     *zap.Logger
	resolver   *paths.Resolver
}

// loadRuntime layers defaults, config file, environment and flags.
func loadRuntime() (*runtime, error) {
	dir := dataDir
	if dir == "" {
		dir = os.Getenv(paths.EnvDataDir)
	}
	resolver := paths.NewResolver(paths.WithDataDir(dir))

	// Without a data directory nothing else can work.
	if _, err := resolver.DataDir(); err != nil {
		return nil, fmt.Errorf("startup failed: %w", err)
	}

	cfgFile := configPath
	if cfgFile == "" {
		var err error
		if cfgFile, err = resolver.ConfigFile(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dir == "" && cfg.DataDir != "" {
		resolver = paths.NewResolver(paths.WithDataDir(cfg.DataDir))
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if gameData != "" {
		cfg.GameData = gameData
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:        cfg,
		configFile: cfgFile,
		logger:     logger,
		resolver:   resolver,
	}, nil
}

func (r *runtime) close() {
	_ = r.logger.Sync()
}

func (r *runtime) catalogDir() (string, error) {
	if r.cfg.GameData != "" {
		return r.cfg.GameData, nil
	}
	dir, err := r.resolver.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gamedata"), nil
}

// loadCatalog treats a missing game data directory as an empty catalog.
func (r *runtime) loadCatalog() (*catalog.Catalog, error) {
	dir, err := r.catalogDir()
	if err != nil {
		return nil, err
	}
	games, err := catalog.LoadDir(dir, r.logger)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("game data directory not found", zap.String("dir", dir))
		return catalog.New()
	}
	return games, err
}

func (r *runtime) manager() (*migrate.Manager, error) {
	return migrate.New(
		migrate.WithBuildVersion(version),
		migrate.WithLogger(r.logger),
	)
}

func (r *runtime) storeOptions() (storage.Options, error) {
	return r.cfg.Store.Options(r.logger.Named("storage"))
}

// startApp opens and migrates every catalog store.
func (r *runtime) startApp(ctx context.Context) (*app.App, error) {
	games, err := r.loadCatalog()
	if err != nil {
		return nil, err
	}
	mgr, err := r.manager()
	if err != nil {
		return nil, err
	}
	opts, err := r.storeOptions()
	if err != nil {
		return nil, err
	}

	a, err := app.Start(ctx, app.Config{
		Catalog:     games,
		Resolver:    r.resolver,
		Manager:     mgr,
		Options:     opts,
		Parallelism: r.cfg.Startup.Parallelism,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("startup failed: %w", err)
	}
	return a, nil
}

// openStore opens a game's store without migrating it.
func (r *runtime) openStore(ctx context.Context, gameID string) (*storage.Handle, error) {
	path, err := r.resolver.StorePath(gameID)
	if err != nil {
		return nil, err
	}
	opts, err := r.storeOptions()
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, path, opts)
}
