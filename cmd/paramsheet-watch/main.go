package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"paramsheet/internal/config"
	"paramsheet/internal/listener"
	"paramsheet/internal/logging"
	"paramsheet/internal/metrics"
	"paramsheet/internal/pipeline"
	"paramsheet/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	rec := metrics.NewRecorder()

	profile, err := config.LoadProfile(cfg.ProfilePath)
	must(err)

	var db *storage.DB
	if cfg.JournalEnabled {
		db, err = storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
	}

	conv := pipeline.NewConverter(profile, log, rec)
	processor := pipeline.NewProcessingService(db, cfg, conv, log, rec)
	svc := listener.NewService(db, cfg, processor, log, rec)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithField("inbox", cfg.InboxDir).Info("watching inbox")
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
