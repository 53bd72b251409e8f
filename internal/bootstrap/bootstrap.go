package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/studentgrades/internal/app/auth"
	appControllers "github.com/yigit/studentgrades/internal/app/controllers"
	appMigrations "github.com/yigit/studentgrades/internal/app/migrations"
	appRepos "github.com/yigit/studentgrades/internal/app/repositories"
	appRoutes "github.com/yigit/studentgrades/internal/app/routes"
	appServices "github.com/yigit/studentgrades/internal/app/services"
	"github.com/yigit/studentgrades/internal/config"
	"github.com/yigit/studentgrades/internal/db"
	appMiddleware "github.com/yigit/studentgrades/internal/middleware"
	pkgAuth "github.com/yigit/studentgrades/internal/pkg/auth"
	"github.com/yigit/studentgrades/internal/pkg/logger"
	"github.com/yigit/studentgrades/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Database         *db.Database
	Repos            *appRepos.Repositories
	JWTService       *pkgAuth.JWTService
	AuthzService     *appAuth.AuthorizationService
	AuthService      *appServices.AuthService
	GradebookService *appServices.GradebookService
	AuthMiddleware   *appMiddleware.AuthMiddleware
	Controllers      appRoutes.Controllers
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// OpenDatabase establishes the database connection
func OpenDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.Database, error) {
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Establishing database connection...")
	database, err := db.Open(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database, nil
}

// Migrate applies every pending schema migration
func Migrate(ctx context.Context, database *db.Database, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	migrator, err := appMigrations.NewMigrator(database)
	if err != nil {
		return err
	}
	applied, err := migrator.Up(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Strs("applied", applied).Msg("Database migrations successfully applied.")
	return nil
}

// Seed loads the demo data
func Seed(ctx context.Context, database *db.Database, lgr zerolog.Logger) error {
	return seed.CreateDefaultData(ctx, appRepos.NewRepositories(database), lgr)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.Database, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Database: database, Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos, logger.Component("authorization"))
	deps.AuthService = appServices.NewAuthService(deps.Repos, deps.JWTService, logger.Component("auth"))
	deps.GradebookService = appServices.NewGradebookService(deps.Repos, logger.Component("gradebook"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.Controllers = appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(deps.AuthService, lgr),
		Module:     appControllers.NewModuleController(deps.GradebookService),
		Enrollment: appControllers.NewEnrollmentController(deps.GradebookService, deps.AuthzService),
		Student:    appControllers.NewStudentController(deps.GradebookService, deps.AuthzService),
	}
	return deps
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr))
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.Database)
	return router
}
