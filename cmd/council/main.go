// Package main provides the entry point for the council delegation calculator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"council-delegation/internal/cache"
	"council-delegation/internal/collector"
	"council-delegation/internal/config"
	"council-delegation/internal/ledger"
	"council-delegation/internal/logger"
	"council-delegation/internal/report"

	dbpkg "council-delegation/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	// Try to load .env from CWD if present; otherwise use environment as-is
	if _, statErr := os.Stat(".env"); statErr == nil {
		_ = godotenv.Load(".env")
	}

	cfg := config.Load()
	// Logs go to stderr so stdout stays a clean report
	log := logger.NewWithWriter(cfg.Debug, os.Stderr)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("Config loaded: %s", cfg.DebugString())

	gormDB, err := dbpkg.Open(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if gormDB != nil {
		defer dbpkg.Close(gormDB)
		log.Printf("DB connected")

		if err := dbpkg.AutoMigrate(gormDB); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		log.Printf("Migrations applied")
	} else {
		log.Printf("DATABASE_URL not provided – ledger cache is memory only")
	}

	var live ledger.Gateway
	if cfg.SnapshotFile != "" {
		snap, err := ledger.LoadSnapshot(cfg.SnapshotFile)
		if err != nil {
			log.Fatalf("failed to load snapshot: %v", err)
		}
		log.Printf("Using ledger snapshot %s", cfg.SnapshotFile)
		live = snap
	} else {
		live = ledger.NewHorizon(cfg.HorizonURL)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbStore := cache.NewDB(gormDB, cfg.CacheTTL)
	if s, ok := dbStore.(*cache.DB); ok {
		if n, err := s.Purge(ctx); err != nil {
			log.Printf("cache purge failed: %v", err)
		} else if n > 0 {
			log.Printf("Purged %d stale ledger cache rows", n)
		}
	}
	store := cache.Tiered{cache.NewLRU(cfg.CacheSize, cfg.CacheTTL), dbStore}
	gw := ledger.NewCached(live, store)

	coll, err := collector.NewCollector(cfg, gw, live, log)
	if err != nil {
		log.Fatalf("failed to init collector: %v", err)
	}

	emit := func(r *collector.Result) error {
		if cfg.Output == config.OutputJSON {
			return report.JSON(os.Stdout, r)
		}
		return report.Text(os.Stdout, r)
	}

	if err := coll.Run(ctx, emit); err != nil {
		if ctx.Err() != nil {
			log.Println("interrupted, no result produced")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "council: %v\n", err)
		os.Exit(1)
	}

	// Ensure output flushed in some environments
	_ = os.Stderr.Sync()
	_ = os.Stdout.Sync()
}
