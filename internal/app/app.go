package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/cache"
	"github.com/varoOP/whist/internal/config"
	"github.com/varoOP/whist/internal/database"
	"github.com/varoOP/whist/internal/domain"
	"github.com/varoOP/whist/internal/importer"
	"github.com/varoOP/whist/internal/library"
	"github.com/varoOP/whist/internal/logger"
	"github.com/varoOP/whist/internal/notification"
	"github.com/varoOP/whist/internal/repository"
	"github.com/varoOP/whist/internal/schedule"
	"github.com/varoOP/whist/internal/seenin"
	"github.com/varoOP/whist/internal/server"
	"github.com/varoOP/whist/internal/tmdb"
	"github.com/varoOP/whist/internal/watch"
)

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	paths               *domain.Paths
	db                  *database.DB
	traktRepo           domain.TraktRepository
	cacheService        cache.Service
	libraryService      library.Service
	watchService        watch.Service
	seenInService       seenin.Service
	scheduleService     schedule.Service
	importService       importer.Service
	notificationService domain.NotificationService
}

// NewApp creates a new application instance with all dependencies initialized
func NewApp() (*App, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log := logger.New(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", cfg.DataDir, err)
	}

	db, err := database.NewDB(cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return newApp(log, cfg, db, tmdb.NewClient(log, cfg)), nil
}

func newApp(log zerolog.Logger, cfg *domain.Config, db *database.DB, catalog domain.Catalog) *App {
	store := database.NewStore(log, db)

	// Initialize services
	cacheService := cache.NewService(log, store, catalog)
	seenInService := seenin.NewService(log, store, cacheService)

	return &App{
		log:                 log,
		config:              cfg,
		paths:               domain.NewPaths(cfg.DataDir),
		db:                  db,
		traktRepo:           repository.NewFileRepository(log),
		cacheService:        cacheService,
		libraryService:      library.NewService(log, store, catalog, cacheService, seenInService),
		watchService:        watch.NewService(log, store),
		seenInService:       seenInService,
		scheduleService:     schedule.NewService(log, store),
		importService:       importer.NewService(log, store, catalog, cacheService),
		notificationService: notification.NewService(log, cfg.DiscordWebhookURL),
	}
}

// Close releases the database
func (a *App) Close() error {
	return a.db.Close()
}

// Handler builds the HTTP surface
func (a *App) Handler() *server.Handler {
	return server.NewHandler(a.log, server.Services{
		Library:  a.libraryService,
		Watch:    a.watchService,
		SeenIn:   a.seenInService,
		Schedule: a.scheduleService,
		Health:   a.db,
	})
}

// Serve runs the HTTP server until ctx is cancelled
func (a *App) Serve(ctx context.Context) error {
	a.log.Info().Str("data_dir", a.paths.RootDir).Str("database", a.paths.DatabasePath).Msg("starting whist")
	return server.NewServer(a.log, a.config.ListenAddr, server.NewRouter(a.Handler())).Run(ctx)
}

// Import replays a Trakt watched-shows export
func (a *App) Import(ctx context.Context, path string) (err error) {
	// Send error notification if import fails
	defer func() {
		if err != nil {
			if notifyErr := a.notificationService.SendError(ctx, err); notifyErr != nil {
				a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
			}
		}
	}()

	shows, err := a.traktRepo.GetWatchedShows(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to read trakt export: %w", err)
	}

	a.log.Info().Int("shows", len(shows)).Str("path", path).Msg("importing trakt history")

	stats, err := a.importService.Import(ctx, shows)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	a.log.Info().
		Int("total_shows", stats.TotalShows).
		Int("imported_shows", stats.ImportedShows).
		Int("added_shows", stats.AddedShows).
		Int("skipped_shows", stats.SkippedShows).
		Int("episodes_marked", stats.EpisodesMarked).
		Int("missing_episodes", stats.MissingEpisodes).
		Float64("imported_pct", stats.ImportedPercent()).
		Msg("=== IMPORT SUMMARY ===")

	// Send success notification
	if notifyErr := a.notificationService.SendSuccess(ctx, stats); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send success notification")
	}

	return nil
}
