package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yigit/studentgrades/internal/bootstrap"
	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/logger"
	"github.com/yigit/studentgrades/internal/server"
)

// @title Student Grades API
// @version 1.0
// @description Academic records: modules, enrollments, grades and reports
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "gradebook",
		Short:         "Student grades service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the YAML configuration file")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newSeedCmd(&configPath),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	var opts server.Options
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath = *configPath
			srv, err := server.NewServer(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
	cmd.Flags().BoolVar(&opts.Migrate, "migrate", true, "apply pending migrations on startup")
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "load demo data on startup")
	return cmd
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withDatabase(ctx, *configPath, bootstrap.Migrate)
		},
	}
}

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Apply migrations and load demo data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withDatabase(ctx, *configPath, func(ctx context.Context, database *db.Database, lgr zerolog.Logger) error {
				if err := bootstrap.Migrate(ctx, database, lgr); err != nil {
					return err
				}
				return bootstrap.Seed(ctx, database, lgr)
			})
		},
	}
}

func withDatabase(ctx context.Context, configPath string, fn func(context.Context, *db.Database, zerolog.Logger) error) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return err
	}
	database, err := bootstrap.OpenDatabase(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(ctx, database, lgr)
}
