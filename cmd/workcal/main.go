package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"workcal/internal/amqp"
	"workcal/internal/backup"
	"workcal/internal/cache"
	"workcal/internal/cli"
	"workcal/internal/config"
	apphttp "workcal/internal/http"
	"workcal/internal/log"
	"workcal/internal/services"
	"workcal/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)
	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend close failed", log.FieldError, err)
		}
	}()

	st, err := store.Open(ctx, res.Backend)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	appointments := services.NewAppointmentService(st)
	calendar := services.NewCalendarService(st, cfg.EarningsCacheSize, cfg.EarningsCacheTTL)
	backups := backup.NewService(st, st)

	// Left as a nil interface when AMQP is off so the notifier idles.
	var publisher services.ChangePublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	srv := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		Appointments: appointments,
		Calendar:     calendar,
		Observer:     st,
		Backups:      backups,
		Ready:        res.Backend.Ping,
		CacheStats:   calendar.Cache().Stats,
		Observers:    st.Observers,
		Stored:       res.Backend.Count,
		Logger:       logger,
	})
	srv.ReadTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB
	// No WriteTimeout: /ui/day/stream holds responses open.

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting workcal server",
			"addr", srv.Addr,
			"backend", cfg.DataBackend,
			"appointments", len(st.Snapshot().Appointments),
			"amqp", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return cache.NewManager(calendar.Cache()).Run(gctx, time.Minute)
	})
	g.Go(func() error {
		return services.NewChangeNotifier(st, publisher).Run(gctx)
	})

	return g.Wait()
}
