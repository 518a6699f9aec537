package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/handgame/internal/dependencies/clock"
	"github.com/mcoot/handgame/internal/dependencies/random"
	"github.com/mcoot/handgame/internal/realtime"
	"github.com/mcoot/handgame/internal/services/identity"
	"github.com/mcoot/handgame/internal/services/room"
	"github.com/mcoot/handgame/internal/storage"
	"github.com/mcoot/handgame/internal/storage/memory"
	redisstorage "github.com/mcoot/handgame/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	IdentityService *identity.Service
	RoomController  *room.Controller
	HubManager      *realtime.HubManager

	// Metrics
	Registry *prometheus.Registry
	Metrics  *realtime.Metrics
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return newWithDependencies(store, clock.New(), random.New(), reg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, reg *prometheus.Registry, logger *slog.Logger) *App {
	metrics := realtime.NewMetrics(reg)
	identityService := identity.New(store, clk, rnd, logger)
	roomController := room.NewController(store, clk, rnd, logger)
	hubManager := realtime.NewHubManager(roomController, clk, metrics, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		IdentityService: identityService,
		RoomController:  roomController,
		HubManager:      hubManager,
		Registry:        reg,
		Metrics:         metrics,
	}
}

// Close stops realtime hubs and releases the storage backend
func (a *App) Close() error {
	a.HubManager.Shutdown()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
