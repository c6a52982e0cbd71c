package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/adethefirst1/odysia/internal/api"
	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/config"
	"github.com/adethefirst1/odysia/internal/fixtures"
	"github.com/adethefirst1/odysia/internal/lock"
	"github.com/adethefirst1/odysia/internal/logging"
	"github.com/adethefirst1/odysia/internal/outbox"
	"github.com/adethefirst1/odysia/internal/session"
	"github.com/adethefirst1/odysia/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	// BaseDir overrides the session directory (lock, database, logs) for
	// testing; empty = use session.Dir.
	BaseDir string
	Config  *config.Config // nil = config.Default()
}

func (p Params) dir() string {
	if p.BaseDir != "" {
		return p.BaseDir
	}
	return session.Dir(p.SessionName)
}

func (p Params) config() *config.Config {
	if p.Config != nil {
		return p.Config
	}
	return config.Default()
}

func (p Params) role() string {
	return session.RoleFor(p.SessionName, p.config().UI.Role)
}

// Module returns the fx module for the mock backend daemon, composing all
// providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideSender,
			provideBackendService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if p.BaseDir != "" {
		return logging.NewFileOnly(filepath.Join(p.BaseDir, "odysiad.log"), p.SessionName)
	}
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if p.BaseDir == "" {
		if err := session.EnsureDir(p.SessionName); err != nil {
			return nil, err
		}
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(p.dir())
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore opens and migrates the backend database, seeding it with
// the role's fixture conversations on first run. It depends on the lock so
// two daemons never share a database.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := filepath.Join(p.dir(), "backend.db")
	if p.BaseDir == "" {
		dbPath = session.BackendDBPath(p.SessionName)
	}
	db, result, err := store.OpenMigrated(dbPath)
	if err != nil {
		return nil, err
	}
	if result.Changed() {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}

	set, err := fixtures.Load(p.config().Backend.Fixtures)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	n, err := fixtures.Seed(db, set.For(p.role()), time.Now())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if n > 0 {
		logger.Info("fixtures seeded", zap.String("role", p.role()), zap.Int("conversations", n))
	}
	logger.Info("store initialized", zap.String("path", db.Path()))
	return db, nil
}

func provideSender(p Params, db *store.DB, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	cfg := p.config().Backend
	peer := outbox.SimulatedPeer{FailKeyword: cfg.FailKeyword}
	return outbox.NewSender(db, peer, b, cfg.DeliveryInterval.Duration, logger)
}

func provideBackendService(p Params, db *store.DB, b *bus.Bus, logger *zap.Logger) *api.BackendService {
	return api.NewBackendService(p.SessionName, p.role(), db, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, sender *outbox.Sender, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			sender.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sender.Stop()
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
