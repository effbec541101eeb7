package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/athenaeum/moirai/internal/ai"
	"github.com/athenaeum/moirai/internal/ai/gemini"
	"github.com/athenaeum/moirai/internal/dependencies/clock"
	"github.com/athenaeum/moirai/internal/dependencies/random"
	"github.com/athenaeum/moirai/internal/services/auth"
	"github.com/athenaeum/moirai/internal/services/profile"
	"github.com/athenaeum/moirai/internal/services/relay"
	"github.com/athenaeum/moirai/internal/storage"
	"github.com/athenaeum/moirai/internal/storage/memory"
	redisstorage "github.com/athenaeum/moirai/internal/storage/redis"
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
	Clock    clock.Clock
	Random   random.Random
	Provider ai.Provider

	// Services
	AuthService    *auth.Service
	ProfileService *profile.Service
	RelayService   *relay.Service
}

// Config holds configuration for the application factory
type Config struct {
	// AIConfig holds credentials for the hosted model
	// Required unless Provider is set directly
	AIConfig ai.Config
	// Provider overrides the hosted model client (used in tests)
	Provider ai.Provider
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
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

	// Create the hosted model client unless one was injected
	provider := cfg.Provider
	if provider == nil {
		if cfg.AIConfig.APIKey == "" {
			return nil, errors.New("AIConfig.APIKey required when no Provider is set")
		}
		provider = gemini.New(cfg.AIConfig.APIKey, cfg.AIConfig.BaseURL, cfg.AIConfig.Model)
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, provider, authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	provider ai.Provider,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	authService := auth.New(store, clk, authCfg, logger)
	profileService := profile.New(store, clk, logger)
	relayService := relay.New(provider, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Provider:       provider,
		AuthService:    authService,
		ProfileService: profileService,
		RelayService:   relayService,
	}
}
