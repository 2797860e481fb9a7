package service

import (
	"net/http"
	"os"
	"time"

	"github.com/xolan/evertrack/internal/config"
	"github.com/xolan/evertrack/internal/everhour"
	"github.com/xolan/evertrack/internal/logging"
	"github.com/xolan/evertrack/internal/storage"
)

// Services holds all service instances used by the application
type Services struct {
	Progress *ProgressService
	Config   *ConfigService
	// Cache is nil when caching is disabled.
	Cache *storage.Store
}

// Options controls how NewServices wires its collaborators. Zero values
// select the real implementations.
type Options struct {
	ConfigPath string
	// Config is the configuration as stored on disk.
	Config config.Config
	Getenv func(string) string
	Logger logging.Logger

	HTTPClient *http.Client
	// Fetcher replaces the Everhour client.
	Fetcher Fetcher
	// CachePath replaces the default snapshot file location.
	CachePath string
	// Now replaces the wall clock.
	Now func() time.Time
}

// NewServices builds the services. The environment token override applies
// to progress computations only, so saving the config never persists it.
func NewServices(opts Options) (*Services, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	runtime := opts.Config.Clone()
	runtime.ApplyEnv(getenv)

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = everhour.NewClient(everhour.Options{
			BaseURL:    runtime.APIBaseURL,
			Token:      runtime.APIToken,
			AuthScheme: runtime.AuthScheme,
			HTTPClient: opts.HTTPClient,
			Logger:     log,
		})
	}

	var store *storage.Store
	if runtime.CacheEnabled {
		cachePath := opts.CachePath
		if cachePath == "" {
			var err error
			if cachePath, err = storage.GetStoragePath(); err != nil {
				return nil, err
			}
		}
		store = storage.NewStore(cachePath, runtime.CacheKeep)
	}

	progressOpts := []ProgressOption{WithLogger(log)}
	if opts.Now != nil {
		progressOpts = append(progressOpts, WithClock(opts.Now))
	}
	if store != nil {
		progressOpts = append(progressOpts, WithCache(store))
	}

	return &Services{
		Progress: NewProgressService(runtime, fetcher, progressOpts...),
		Config:   NewConfigService(opts.ConfigPath, opts.Config),
		Cache:    store,
	}, nil
}
