package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clinic-backend/internal/audit"
	"clinic-backend/internal/branch"
	"clinic-backend/internal/config"
	"clinic-backend/internal/database"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/logging"
	"clinic-backend/internal/report"
	"clinic-backend/internal/servicetx"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic service records and ledger API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			return database.Migrate(db, logger)
		},
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the monthly report for a given month",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetInt("year")
			month, _ := cmd.Flags().GetInt("month")

			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			r, err := report.NewGenerator(db, logger).Generate(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			fmt.Printf("report %s: income %s, expenses %s, net %s\n",
				r.ID, r.TotalIncome.StringFixed(2), r.TotalExpenses.StringFixed(2), r.NetProfit.StringFixed(2))
			return nil
		},
	}
	now := time.Now().UTC()
	prev := now.AddDate(0, -1, 0)
	cmd.Flags().Int("year", prev.Year(), "report year")
	cmd.Flags().Int("month", int(prev.Month()), "report month (1-12)")
	return cmd
}

// bootstrap loads and validates the configuration, sets up logging and opens
// the database.
func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, logger, nil, err
	}

	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, logger, nil, err
	}
	return cfg, logger, db, nil
}

func runServer() error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := database.Migrate(db, logger); err != nil {
		return err
	}

	registry := branch.NewRegistry(servicetx.NewGormStore(db), logger)
	audits := audit.NewService(db, registry, logger)
	reports := report.NewGenerator(db, logger)

	scheduler := report.NewScheduler(reports, logger)
	if err := scheduler.Start(cfg.ReportCron); err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: httputil.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logging.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	registerRoutes(app, routeDeps{
		cfg:      cfg,
		db:       db,
		registry: registry,
		audits:   audits,
		reports:  reports,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("server listening")
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		<-scheduler.Stop().Done()
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		logger.Warn().Msg("report job still running at shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
