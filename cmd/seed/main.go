package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/m04kA/SMC-FacilityBooking/internal/config"
	facilityRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/facility"
	userRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/user"
	"github.com/m04kA/SMC-FacilityBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
	"github.com/m04kA/SMC-FacilityBooking/pkg/txmanager"
)

// Заполняет БД демонстрационными объектами и пользователями
func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config")
	seedPath := flag.String("file", "seed.yaml", "path to seed YAML")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithWriter(os.Stdout, cfg.Logs.Level)

	f, err := os.Open(*seedPath)
	if err != nil {
		log.Fatal("Failed to open seed file: %v", err)
	}
	seed, err := parseSeed(f)
	_ = f.Close()
	if err != nil {
		log.Fatal("Failed to parse seed file: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	wrappedDB := dbmetrics.Wrap(db, nil)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	err = txMgr.Do(ctx, func(txCtx context.Context) error {
		return apply(txCtx, seed, facilityRepo.NewRepository(wrappedDB), userRepo.NewRepository(wrappedDB), log)
	})
	if err != nil {
		log.Fatal("Seed failed: %v", err)
	}

	log.Info("Seed completed: %d facilities, %d users in file", len(seed.Facilities), len(seed.Users))
}
