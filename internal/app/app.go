package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/questlog/internal/catalog"
	"github.com/dshills/questlog/internal/migrate"
	"github.com/dshills/questlog/internal/paths"
	"github.com/dshills/questlog/internal/storage"
	"github.com/dshills/questlog/internal/tracker"
)

const defaultParallelism = 4

// ErrUnknownGame is returned for a game id that is not in the catalog
var ErrUnknownGame = errors.New("unknown game")

// Store is one opened and migrated game store.
type Store struct {
	Game    *catalog.Game // nil for stores opened by path
	Handle  *storage.Handle
	Tracker *tracker.Tracker
}

// Config holds what Start needs.
type Config struct {
	Catalog     *catalog.Catalog
	Resolver    *paths.Resolver
	Manager     *migrate.Manager
	Options     storage.Options
	Parallelism int
	Logger      *zap.Logger
}

// App owns the stores of every catalog game for the life of the process.
type App struct {
	catalog *catalog.Catalog
	manager *migrate.Manager
	opts    storage.Options
	logger  *zap.Logger

	// openStore is a.open; swapped in tests
	openStore func(ctx context.Context, path string) (*Store, error)
	opening   singleflight.Group

	mu     sync.RWMutex
	games  map[string]*Store
	files  map[string]*Store
	closed bool
}

// Start opens and readies one store per catalog game, at most
// cfg.Parallelism at a time. If any store fails, the ones already opened
// are closed and the first error is returned.
func Start(ctx context.Context, cfg Config) (*App, error) {
	if cfg.Catalog == nil || cfg.Resolver == nil || cfg.Manager == nil {
		return nil, errors.New("app: catalog, resolver and manager are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = defaultParallelism
	}

	a := &App{
		catalog: cfg.Catalog,
		manager: cfg.Manager,
		opts:    cfg.Options,
		logger:  logger.Named("app"),
		games:   make(map[string]*Store),
		files:   make(map[string]*Store),
	}
	a.openStore = a.open

	games := cfg.Catalog.Games()
	opened := make([]*Store, len(games))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, game := range games {
		g.Go(func() error {
			path, err := cfg.Resolver.StorePath(game.ID)
			if err != nil {
				return fmt.Errorf("game %s: %w", game.ID, err)
			}
			s, err := a.open(gctx, path)
			if err != nil {
				return fmt.Errorf("game %s: %w", game.ID, err)
			}
			s.Game = game
			opened[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var closeErrs []error
		for _, s := range opened {
			if s != nil {
				closeErrs = append(closeErrs, a.closeStore(s))
			}
		}
		if cerr := errors.Join(closeErrs...); cerr != nil {
			a.logger.Warn("failed to close stores after startup error", zap.Error(cerr))
		}
		return nil, err
	}

	for _, s := range opened {
		a.games[s.Game.ID] = s
		a.files[s.Handle.Path()] = s
	}

	a.logger.Info("stores ready", zap.Int("games", len(opened)))
	return a, nil
}

func (a *App) open(ctx context.Context, path string) (*Store, error) {
	opts := a.opts
	if opts.Logger == nil {
		opts.Logger = a.logger
	}

	h, err := storage.Open(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if err := a.manager.EnsureReady(ctx, h); err != nil {
		a.manager.Forget(h)
		_ = h.Close()
		return nil, err
	}
	return &Store{
		Handle:  h,
		Tracker: tracker.New(h, a.logger),
	}, nil
}

// Store returns the store of a catalog game.
func (a *App) Store(gameID string) (*Store, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, storage.ErrClosed
	}
	s, ok := a.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	return s, nil
}

// closeStore closes the handle and drops its lifecycle state.
func (a *App) closeStore(s *Store) error {
	a.manager.Forget(s.Handle)
	return s.Handle.Close()
}

// OpenFile opens and readies the store at dir/name, or returns it if it is
// already open. Opening and migrating happen outside the app lock, so
// lookups of other stores are not held up; concurrent calls for the same
// file share one open.
func (a *App) OpenFile(ctx context.Context, dir, name string) (*Store, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid store file name %q", name)
	}
	path, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path: %w", err)
	}

	if s, err := a.lookupFile(path); s != nil || err != nil {
		return s, err
	}

	v, err, _ := a.opening.Do(path, func() (interface{}, error) {
		if s, err := a.lookupFile(path); s != nil || err != nil {
			return s, err
		}

		s, err := a.openStore(ctx, path)
		if err != nil {
			return nil, err
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.closed {
			_ = a.closeStore(s)
			return nil, storage.ErrClosed
		}
		a.files[s.Handle.Path()] = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (a *App) lookupFile(path string) (*Store, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, storage.ErrClosed
	}
	for _, s := range a.files {
		if sameFile(s.Handle.Path(), path) {
			return s, nil
		}
	}
	return nil, nil
}

func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(b)); err == nil {
		return a == filepath.Join(resolved, filepath.Base(b))
	}
	return false
}

// Games returns the catalog games in display order.
func (a *App) Games() []*catalog.Game {
	return a.catalog.Games()
}

// Catalog returns the game catalog the stores were opened for.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Manager returns the lifecycle manager shared by all stores.
func (a *App) Manager() *migrate.Manager {
	return a.manager
}

// Close closes every store. It is safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	for path, s := range a.files {
		if err := a.closeStore(s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	a.files = nil
	a.games = nil
	return errors.Join(errs...)
}
