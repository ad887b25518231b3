package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/m04kA/SMC-FacilityBooking/internal/config"
	"github.com/m04kA/SMC-FacilityBooking/internal/infra/queue"
	bookingRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/booking"
	facilityRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/facility"
	userRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/user"
	"github.com/m04kA/SMC-FacilityBooking/internal/integrations/mailer"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/notifications"
	"github.com/m04kA/SMC-FacilityBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
	"github.com/m04kA/SMC-FacilityBooking/pkg/metrics"
)

// Обработчик уведомлений: читает события бронирований из RabbitMQ и отправляет письма
func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-FacilityBooking notifier...")

	var metricsCollector *metrics.Metrics
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled && cfg.Notifier.MetricsPort > 0 {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName + "-notifier")

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Notifier.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("Metrics endpoint exposed at :%d%s", cfg.Notifier.MetricsPort, cfg.Metrics.Path)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Metrics server failed: %v", err)
			}
		}()
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	wrappedDB := dbmetrics.Wrap(db, metricsCollector)

	consumer, err := queue.NewConsumer(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.Queue,
		queue.BookingRoutingKeys(),
		cfg.RabbitMQ.PrefetchCount,
		log,
	)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ: %v", err)
	}
	defer consumer.Close()

	mailClient := mailer.NewClient(mailer.Config{
		Enabled:  cfg.Mailer.Enabled,
		Host:     cfg.Mailer.Host,
		Port:     cfg.Mailer.Port,
		Username: cfg.Mailer.Username,
		Password: cfg.Mailer.Password,
		From:     cfg.Mailer.From,
	}, log)
	if !cfg.Mailer.Enabled {
		log.Warn("SMTP is disabled, notifications will only be logged")
	}

	worker := notifications.NewWorker(
		bookingRepo.NewRepository(wrappedDB),
		facilityRepo.NewRepository(wrappedDB),
		userRepo.NewRepository(wrappedDB),
		mailClient,
		rate.NewLimiter(rate.Limit(cfg.Notifier.RatePerSecond), cfg.Notifier.Burst),
		time.Duration(cfg.Notifier.HandleTimeoutSeconds)*time.Second,
		metricsCollector,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Consuming queue %s (exchange=%s)", cfg.RabbitMQ.Queue, cfg.RabbitMQ.Exchange)
	if err := consumer.Run(ctx, worker); err != nil {
		log.Error("Consumer stopped with error: %v", err)
	}

	if ctx.Err() == nil && !consumer.IsHealthy() {
		log.Error("RabbitMQ connection lost, exiting")
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	log.Info("Notifier stopped")
}
