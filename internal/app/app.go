package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/behaviourgrid/internal/config"
	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/entitystore"
	"github.com/specialistvlad/behaviourgrid/internal/metrics"
	"github.com/specialistvlad/behaviourgrid/internal/provider"
	"github.com/specialistvlad/behaviourgrid/internal/server"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	settings config.Settings
	model    *config.Model

	provider *provider.Provider
	modules  []provider.Module
	store    *entitystore.Store
	metrics  *metrics.Metrics
	server   *server.Server
	relay    *feedRelay
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own logger, provider and store. Seed
// entities are not created until Run.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...provider.Module) *App {
	cliSettings := appConfig.settings()
	bootSettings := defaultSettings().Override(cliSettings)
	logger := newLogger(bootSettings.LogLevel, bootSettings.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all configuration into the format-agnostic model first.
	cfgModel, err := loader.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.", "entities", len(cfgModel.Entities))

	// Files override defaults, flags override files.
	settings := defaultSettings().Override(cfgModel.Settings).Override(cliSettings)
	if err := validateSettings(settings); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}
	if settings.LogLevel != bootSettings.LogLevel || settings.LogFormat != bootSettings.LogFormat {
		logger = newLogger(settings.LogLevel, settings.LogFormat, outW)
		ctx = ctxlog.WithLogger(context.Background(), logger)
		logger.Debug("Logger reconfigured from configuration files.")
	}

	m := metrics.New()
	p := provider.New(provider.WithObserver(m), provider.WithLogger(logger))
	if len(modules) == 0 {
		modules = coreModules(settings.HTTPTimeout)
	}
	for _, mod := range modules {
		mod.Register(p)
	}
	logger.Debug("All behaviour modules registered.", "count", len(modules), "kinds", p.Kinds())

	relay := &feedRelay{}
	store := entitystore.New(p, entitystore.WithListener(relay))
	m.TrackBehaviours(p)
	m.TrackEntities(store.Len)

	return &App{
		outW:     outW,
		logger:   logger,
		settings: settings,
		model:    cfgModel,
		provider: p,
		modules:  modules,
		store:    store,
		metrics:  m,
		server:   server.New(ctx, store, p, m.Handler()),
		relay:    relay,
	}
}

// Provider returns the application's behaviour provider. This is primarily for testing.
func (a *App) Provider() *provider.Provider {
	return a.provider
}

// Store returns the application's entity store.
func (a *App) Store() *entitystore.Store {
	return a.store
}

// Settings returns the effective settings after layering files and flags.
func (a *App) Settings() config.Settings {
	return a.settings
}

// Handler returns the admin HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server
}
