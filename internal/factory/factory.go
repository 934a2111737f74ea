package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/rulerace/rulerace-server/internal/api/handler"
	"github.com/rulerace/rulerace-server/internal/dependencies/clock"
	"github.com/rulerace/rulerace-server/internal/dependencies/random"
	"github.com/rulerace/rulerace-server/internal/dependencies/scheduler"
	"github.com/rulerace/rulerace-server/internal/services/session"
	"github.com/rulerace/rulerace-server/internal/services/stats"
	"github.com/rulerace/rulerace-server/internal/storage"
	"github.com/rulerace/rulerace-server/internal/storage/memory"
	redisstorage "github.com/rulerace/rulerace-server/internal/storage/redis"
	"github.com/rulerace/rulerace-server/internal/ws"
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
	Clock     clock.Clock
	Random    random.Random
	Scheduler scheduler.Scheduler

	// Services
	StatsProjector    *stats.Projector
	SessionController *session.Controller
	Hub               *ws.Hub
	DailyAnswer       *handler.DailyAnswerHandler
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
	// DailyAnswerURL overrides the upstream daily-answer endpoint (optional)
	DailyAnswerURL string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

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

	dailyURL := cfg.DailyAnswerURL
	if dailyURL == "" {
		dailyURL = handler.DefaultDailyAnswerURL
	}

	return newWithDependencies(store, clock.New(), random.New(), scheduler.New(), dailyURL, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	sched scheduler.Scheduler,
	dailyURL string,
	logger *slog.Logger,
) *App {
	hub := ws.NewHub(logger)
	projector := stats.NewProjector(store, clk, logger)
	controller := session.NewController(store, projector, hub, clk, rnd, sched, logger)
	// The hub and controller reference each other; attach the controller last.
	hub.SetController(controller)

	dailyHandler := handler.NewDailyAnswerHandler(dailyURL, clk, logger)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Scheduler:         sched,
		StatsProjector:    projector,
		SessionController: controller,
		Hub:               hub,
		DailyAnswer:       dailyHandler,
	}
}
