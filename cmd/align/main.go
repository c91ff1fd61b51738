package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/auv-align/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/auv-align/internal/adapter/kafka"
	"github.com/couchcryptid/auv-align/internal/adapter/sqlite"
	"github.com/couchcryptid/auv-align/internal/config"
	"github.com/couchcryptid/auv-align/internal/domain"
	"github.com/couchcryptid/auv-align/internal/observability"
	"github.com/couchcryptid/auv-align/internal/pipeline"
	"github.com/couchcryptid/auv-align/internal/provenance"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadWithUsage("align", os.Args[1:], os.Stderr)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 2
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		logger.Error("failed to load rules", "error", err)
		return 2
	}
	if cfg.Plot {
		logger.Warn("plotting is not supported, ignoring -plot")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := sqlite.NewStore()
	prov := provenance.Build(cfg.Vehicle, cfg.Mission, cfg.CommandLine)
	session := pipeline.NewSession(store, store, rules, prov, logger, metrics)

	if cfg.StatusAddr != "" {
		srv := httpadapter.NewServer(cfg.StatusAddr, session, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	logger.Info("aligning mission",
		"vehicle", cfg.Vehicle,
		"mission", cfg.Mission,
		"input", cfg.InputPath,
		"output", cfg.OutputPath,
	)

	res, err := session.Run(ctx, cfg.InputPath, cfg.OutputPath)
	code := 0
	if err != nil {
		logger.Error("alignment failed", "error", err)
		code = 1
	} else if cfg.NotifyEnabled() {
		notify(ctx, cfg, logger, metrics, res)
	}

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}
	return code
}

// notify publishes the completion event. Failures are logged and counted
// but do not fail the run, since the output file is already in place.
func notify(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, res *pipeline.Result) {
	notifier := kafkaadapter.NewNotifier(cfg, logger)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Error("kafka notifier close error", "error", err)
		}
	}()

	event := domain.AlignmentEvent{
		Vehicle:       cfg.Vehicle,
		Mission:       cfg.Mission,
		OutputPath:    cfg.OutputPath,
		Aligned:       len(res.Aligned),
		Skipped:       len(res.Skipped),
		SkipReasons:   res.SkipCounts(),
		Coverage:      domain.CoverageFromBounds(res.Bounds, res.BoundsObserved),
		FormatVersion: domain.FormatVersion,
		CreatedAt:     domain.Now().UTC(),
	}

	notifyCtx, cancel := context.WithTimeout(ctx, cfg.NotifyTimeout)
	defer cancel()

	if err := notifier.Notify(notifyCtx, event); err != nil {
		metrics.Notifications.WithLabelValues("error").Inc()
		logger.Error("failed to publish completion event",
			"topic", cfg.NotifyTopic,
			"key", event.Key(),
			"error", err,
		)
		return
	}
	metrics.Notifications.WithLabelValues("success").Inc()
}
