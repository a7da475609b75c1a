package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/photoshare/internal/app/controllers"
	"github.com/yigit/photoshare/internal/app/migrations"
	"github.com/yigit/photoshare/internal/app/repositories"
	"github.com/yigit/photoshare/internal/app/repositories/memstore"
	"github.com/yigit/photoshare/internal/app/routes"
	"github.com/yigit/photoshare/internal/app/services"
	"github.com/yigit/photoshare/internal/config"
	"github.com/yigit/photoshare/internal/db"
	"github.com/yigit/photoshare/internal/middleware"
	"github.com/yigit/photoshare/internal/pkg/auth"
	"github.com/yigit/photoshare/internal/pkg/filestorage"
	"github.com/yigit/photoshare/internal/pkg/helpers"
	"github.com/yigit/photoshare/internal/pkg/logger"
	"github.com/yigit/photoshare/internal/pkg/websocket"
	"github.com/yigit/photoshare/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store    repositories.Store
	Content  filestorage.ContentStore
	Local    *filestorage.LocalStorage // set when serving uploads from disk
	Hub      *websocket.Hub
	Sessions *services.SessionManager
	Gateway  *services.MutationGateway
	Queries  *services.QueryService
	Auth     *middleware.AuthMiddleware
	Handlers routes.Controllers
	Logger   zerolog.Logger
	closers  []func()
}

// Close releases database pools and storage clients
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStore opens the document store selected by database.driver and, for
// Postgres, applies migrations.
func SetupStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (repositories.Store, func(), error) {
	if cfg.Database.Driver == "memory" {
		lgr.Warn().Msg("Using in-memory store; data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrator := migrations.NewMigrator(database.Pool, logger.Component("migrations"))
	if dir := cfg.Database.MigrationsDir; dir != "" {
		err = migrator.MigrateFromDirectory(ctx, dir)
	} else {
		err = migrator.MigrateEmbedded(ctx)
	}
	if err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return repositories.NewPostgresStore(database.Pool, logger.Component("store")), database.Close, nil
}

// SetupContentStore opens the artifact store selected by storage.driver
func SetupContentStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (filestorage.ContentStore, func(), error) {
	switch cfg.Storage.Driver {
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		lgr.Info().Str("bucket", cfg.Storage.Bucket).Msg("Using GCS content storage")
		gcs := filestorage.NewGCSStorage(client, cfg.Storage.Bucket, cfg.Storage.Prefix, logger.Component("gcs"))
		return gcs, func() { _ = client.Close() }, nil
	default:
		local, err := filestorage.NewLocalStorage(cfg.Server.StoragePath, cfg.PublicBaseURL()+"/uploads", logger.Component("filestorage"))
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to initialize file storage")
			return nil, nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return local, func() {}, nil
	}
}

// BuildDependencies wires services, the event hub and the controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	store, closeStore, err := SetupStore(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, closeStore)
	deps.Store = store

	content, closeContent, err := SetupContentStore(ctx, cfg, lgr)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.closers = append(deps.closers, closeContent)
	deps.Content = content
	deps.Local, _ = content.(*filestorage.LocalStorage)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		SessionExp:  helpers.ParseDuration(cfg.JWT.SessionExpiration, 168*time.Hour),
		TokenIssuer: cfg.JWT.Issuer,
	})

	deps.Hub = websocket.NewHub(logger.Component("hub"))

	resources := services.NewResourceStore(store, content, logger.Component("resources"))
	deps.Sessions = services.NewSessionManager(store, jwtService, logger.Component("sessions"))
	deps.Gateway = services.NewMutationGateway(resources, deps.Sessions, deps.Hub, logger.Component("gateway"))
	deps.Queries = services.NewQueryService(store, resources.URL, cfg.Realtime.ActivityFeedLength, logger.Component("queries"))

	if cfg.Seed.DemoData {
		if err := seed.LoadDemoData(ctx, deps.Gateway, logger.Component("seed")); err != nil {
			lgr.Warn().Err(err).Msg("Demo data was only partially loaded")
		}
	}

	deps.Auth = middleware.NewAuthMiddleware(deps.Sessions)

	authController := controllers.NewAuthController(deps.Gateway, controllers.CookieConfig{Secure: cfg.JWT.CookieSecure}, lgr)
	deps.Handlers = routes.Controllers{
		Auth:     authController,
		User:     controllers.NewUserController(deps.Queries, deps.Gateway, authController, lgr),
		Photo:    controllers.NewPhotoController(deps.Gateway, deps.Queries, lgr),
		Activity: controllers.NewActivityController(deps.Queries),
		Events:   websocket.NewHandler(deps.Hub, cfg.Realtime.ClientSendBuffer, logger.Component("events")).AllowOrigins(cfg.Realtime.AllowedOrigins...),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger.Component("http")))
	router.MaxMultipartMemory = controllers.MaxUploadSize

	if deps.Local != nil {
		router.Static("/uploads", deps.Local.BasePath())
		lgr.Info().Str("path", deps.Local.BasePath()).Msg("Static file serving configured for uploads directory")
	}

	routes.SetupRouter(router, deps.Handlers, deps.Auth)
	return router
}
