package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gmscreen/initiative/internal/config"
	"github.com/gmscreen/initiative/internal/dependencies/clock"
	"github.com/gmscreen/initiative/internal/dependencies/random"
	"github.com/gmscreen/initiative/internal/services/roster"
	"github.com/gmscreen/initiative/internal/services/session"
	"github.com/gmscreen/initiative/internal/storage"
	"github.com/gmscreen/initiative/internal/storage/memory"
	redisstorage "github.com/gmscreen/initiative/internal/storage/redis"
	sqlitestorage "github.com/gmscreen/initiative/internal/storage/sqlite"
	"github.com/gmscreen/initiative/internal/ws"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Roster      *roster.Service
	Gate        *session.Gate
	Hub         *ws.Hub
	Broadcaster *ws.Broadcaster
	Handler     *ws.Handler
}

// New creates a new application with all dependencies wired
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Store
	switch cfg.StorageType {
	case config.StorageTypeMemory:
		store = memory.New()
	case config.StorageTypeSQLite:
		s, err := sqlitestorage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = s
	case config.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		s, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'sqlite' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg.GMToken, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, clk clock.Clock, rnd random.Random, gmToken string, logger *slog.Logger) *App {
	rosterService := roster.New(store, rnd, logger)
	gate := session.NewGate(gmToken, logger)
	hub := ws.NewHub(logger)
	broadcaster := ws.NewBroadcaster(hub, logger)
	handler := ws.NewHandler(gate, rosterService, broadcaster, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Roster:      rosterService,
		Gate:        gate,
		Hub:         hub,
		Broadcaster: broadcaster,
		Handler:     handler,
	}
}
