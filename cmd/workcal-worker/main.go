package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"workcal/internal/amqp"
	"workcal/internal/cli"
	"workcal/internal/config"
	"workcal/internal/log"
	"workcal/internal/sheets"
	gsheet "workcal/internal/sheets/google"
	"workcal/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting workcal-worker")
	if err := run(cfg, logger); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is private to this process, backups will not see server writes")
	}
	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Cleanup()

	// Nil interface when Sheets is off.
	var mirror sheets.SnapshotMirror
	if cfg.SheetsEnabled() {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return fmt.Errorf("init google sheets: %w", err)
		}
		mirror = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewBackupWorker(res.Backend, mirror, worker.BackupConfig{
		Dir:  cfg.BackupDir,
		Keep: cfg.BackupKeep,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, cfg.BackupInterval)
	})

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("init amqp: %w", err)
		}
		defer client.Close()

		g.Go(func() error {
			err := client.ConsumeAppointmentsChanged(gctx, func(msg *amqp.AppointmentsChangedMessage) error {
				return w.HandleChange(gctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled, running periodic backups only", "interval", cfg.BackupInterval)
	}

	return g.Wait()
}
