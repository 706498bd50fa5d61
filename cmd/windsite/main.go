package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gustline/windsite/internal/adapter/geo"
	httpadapter "github.com/gustline/windsite/internal/adapter/http"
	kafkaadapter "github.com/gustline/windsite/internal/adapter/kafka"
	"github.com/gustline/windsite/internal/adapter/turbinedb"
	"github.com/gustline/windsite/internal/adapter/wtk"
	"github.com/gustline/windsite/internal/config"
	"github.com/gustline/windsite/internal/domain"
	"github.com/gustline/windsite/internal/observability"
	"github.com/gustline/windsite/internal/pipeline"
	"github.com/gustline/windsite/internal/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "windsite",
		Short: "Wind resource assessment for a candidate turbine site",
		Long: `windsite fetches a year of meteorological observations for a candidate
turbine site, density-corrects the wind speeds, runs them through a turbine
power curve, and reports monthly and annual energy yield and capacity factor.

Configuration is read from environment variables (a .env file in the
working directory is honored). See the config package for the full list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runCmd executes a single assessment and prints the report to stdout.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one assessment and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := observability.NewLogger(cfg)
			metrics := observability.NewMetrics()

			assessor, closePublisher, err := buildAssessor(cfg, logger, metrics)
			if err != nil {
				return err
			}
			defer closePublisher()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			assessment, err := assessor.Run(ctx)
			if err != nil {
				return fmt.Errorf("assessment failed: %w", err)
			}

			return report.Render(os.Stdout, assessment)
		},
	}
}

// serveCmd runs an initial assessment and then serves results over HTTP
// until interrupted.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve assessment results over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := observability.NewLogger(cfg)
			metrics := observability.NewMetrics()

			assessor, closePublisher, err := buildAssessor(cfg, logger, metrics)
			if err != nil {
				return err
			}
			defer closePublisher()

			srv := httpadapter.NewServer(cfg.HTTPAddr, assessor, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server error", "error", err)
				}
			}()
			logger.Info("http server listening", "addr", cfg.HTTPAddr)

			// Readiness stays false until this first pass completes.
			go func() {
				if _, err := assessor.Run(ctx); err != nil {
					logger.Error("initial assessment failed", "error", err)
				}
			}()

			<-ctx.Done()
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}

			logger.Info("shutdown complete")
			return nil
		},
	}
}

// buildAssessor wires the adapters selected by configuration into a
// pipeline.Assessor. The returned func closes the Kafka writer when
// publishing is enabled and is a no-op otherwise.
func buildAssessor(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Assessor, func(), error) {
	policy, err := domain.ParseOutOfRangePolicy(cfg.OutOfRange)
	if err != nil {
		return nil, nil, err
	}

	series := wtk.NewClient(cfg, logger)
	curves := turbinedb.NewClient(cfg, policy, logger)

	var labeler pipeline.SiteLabeler
	if cfg.GeocoderEnabled {
		labeler = geo.NewLabeler(cfg.GeocoderAPIKey, logger)
		logger.Info("site labeling enabled")
	} else {
		logger.Info("site labeling disabled")
	}

	var publisher pipeline.ResultPublisher
	closePublisher := func() {}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		closePublisher = func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}
		logger.Info("results publishing enabled", "topic", cfg.KafkaResultsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("results publishing disabled")
	}

	site := domain.Site{
		Name:      cfg.SiteName,
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
	}

	assessor := pipeline.New(series, curves, labeler, publisher,
		site, cfg.DataYear, cfg.SamplesPerHour, logger, metrics)
	return assessor, closePublisher, nil
}
