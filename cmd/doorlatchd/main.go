package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"doorlatch/internal/config"
	"doorlatch/internal/control"
	"doorlatch/internal/db"
	"doorlatch/internal/door"
	"doorlatch/internal/httpapi"
	"doorlatch/internal/hw"
	"doorlatch/internal/scan"
	"doorlatch/internal/service"
	"doorlatch/internal/store"
	"doorlatch/internal/store/file"
	"doorlatch/internal/store/memory"
	sqlitestore "doorlatch/internal/store/sqlite"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "doorlatchd ", log.LstdFlags|log.LUTC)

	// Without persistent storage, access decisions are meaningless;
	// halting beats silently denying everyone.
	if err := os.MkdirAll(filepath.Dir(cfg.RegistryPath), 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := file.NewRegistry(cfg.RegistryPath, logger)

	// Audit store
	var events store.AccessEventStore
	if cfg.Env == "prod" {
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
		if err != nil {
			logger.Fatalf("audit db: %v", err)
		}
		defer conn.Close()

		writer := db.NewWriter(conn)
		defer writer.Close()

		events = sqlitestore.NewAccessEventStore(conn, writer)
	} else {
		events = memory.NewAccessEventStore()
	}

	pruner := service.NewAuditPruner(events, service.PrunerConfig{
		RetentionDays: cfg.AuditRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// Hardware
	var (
		actuator door.Actuator
		buzzer   door.Buzzer
		driver   scan.Driver
	)
	if cfg.Env == "prod" {
		if err := hw.Init(); err != nil {
			logger.Fatalf("%v", err)
		}

		lock, err := hw.NewLock(cfg.LockPin)
		if err != nil {
			logger.Fatalf("lock: %v", err)
		}
		bz, err := hw.NewBuzzer(cfg.BuzzerPin)
		if err != nil {
			logger.Fatalf("buzzer: %v", err)
		}
		reader, err := hw.NewCardReader(cfg.SPIDev, cfg.ResetPin, cfg.IRQPin)
		if err != nil {
			logger.Fatalf("reader: %v", err)
		}
		defer reader.Close()

		actuator, buzzer, driver = lock, bz, reader
	} else {
		logger.Printf("dev mode: simulated hardware, no reader attached")
		actuator = hw.NewSimLock(logger)
		buzzer = hw.NewSimBuzzer(logger)
		driver = scan.NullDriver{}
	}

	// Services
	last := &scan.LastUID{}
	access := service.NewAccessService(registry, events, logger)
	registration := service.NewRegistrationService(registry, last, logger)
	doorCtrl := door.NewController(actuator, buzzer, logger)

	// Portal
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       logger,
		Addr:         cfg.HTTPAddr,
		Registration: registration,
		Events:       events,
	})

	go func() {
		logger.Printf("portal listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("portal error: %v", err)
			stop()
		}
	}()

	// The control loop runs on the main goroutine until a signal arrives.
	loop := control.NewLoop(scan.NewSource(driver), access, doorCtrl, last, logger)
	loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
