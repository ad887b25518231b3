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

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	createBookingHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/create_booking"
	deleteBookingHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/delete_booking"
	exportBookingsHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/export_bookings"
	getAvailableSlotsHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/get_booking"
	getFacilityHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/get_facility"
	getUserBookingsHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/get_user_bookings"
	healthHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/health"
	listBookingsHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/list_bookings"
	listFacilitiesHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/list_facilities"
	saveFacilityHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/save_facility"
	setBookingStatusHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/set_booking_status"
	updateBookingHandler "github.com/m04kA/SMC-FacilityBooking/internal/api/handlers/update_booking"
	"github.com/m04kA/SMC-FacilityBooking/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityBooking/internal/config"
	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
	"github.com/m04kA/SMC-FacilityBooking/internal/infra/cache/slots"
	"github.com/m04kA/SMC-FacilityBooking/internal/infra/queue"
	bookingRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/booking"
	facilityRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/facility"
	userRepo "github.com/m04kA/SMC-FacilityBooking/internal/infra/storage/user"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/availability"
	bookingsService "github.com/m04kA/SMC-FacilityBooking/internal/service/bookings"
	facilitiesService "github.com/m04kA/SMC-FacilityBooking/internal/service/facilities"
	"github.com/m04kA/SMC-FacilityBooking/internal/service/notifications"
	reportsService "github.com/m04kA/SMC-FacilityBooking/internal/service/reports"
	createBookingUC "github.com/m04kA/SMC-FacilityBooking/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-FacilityBooking/internal/usecase/get_available_slots"
	updateBookingUC "github.com/m04kA/SMC-FacilityBooking/internal/usecase/update_booking"
	"github.com/m04kA/SMC-FacilityBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-FacilityBooking/pkg/logger"
	"github.com/m04kA/SMC-FacilityBooking/pkg/metrics"
	"github.com/m04kA/SMC-FacilityBooking/pkg/txmanager"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-FacilityBooking...")
	log.Info("Configuration loaded from %s", *configPath)

	location, err := cfg.Booking.Location()
	if err != nil {
		log.Fatal("Invalid booking timezone: %v", err)
	}

	// Метрики. При выключенных метриках collector остаётся nil, его методы ничего не делают.
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
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
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	txMgr := txmanager.NewTransactionManager(wrappedDB, txmanager.WithMaxRetries(cfg.Booking.TxRetries))

	// Кэш занятых слотов. Без Redis кэш работает как всегда пустой.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis is unavailable, booked slots will be read from database: %v", err)
		} else {
			log.Info("Connected to Redis at %s", cfg.Redis.Addr)
		}
		cancel()
	}
	slotsCache := slots.NewCache(redisClient, cfg.Redis.TTL())

	// Брокер уведомлений. Пока соединения нет, уведомления теряются,
	// издатель переподключается в фоне.
	publisher := queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.ReconnectDelay(), log)
	defer publisher.Close()

	dispatcher := notifications.NewDispatcher(
		publisher,
		time.Duration(cfg.Notifier.PublishTimeoutSeconds)*time.Second,
		metricsCollector,
		log,
	)

	// Репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	facilityRepository := facilityRepo.NewRepository(wrappedDB)
	userRepository := userRepo.NewRepository(wrappedDB)

	grid := domain.SlotGrid{
		OpenHour:        cfg.Booking.OpenHour,
		CloseHour:       cfg.Booking.CloseHour,
		DurationMinutes: cfg.Booking.SlotDurationMinutes,
	}
	validator := availability.NewValidator(bookingRepository, location, log)

	// Сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		txMgr,
		slotsCache,
		dispatcher,
		metricsCollector,
		log,
	)
	facilitySvc := facilitiesService.NewService(
		facilityRepository,
		bookingRepository,
		validator,
		log,
	)
	reportSvc := reportsService.NewService(bookingSvc, facilityRepository, log)

	// Use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		facilityRepository,
		userRepository,
		validator,
		txMgr,
		slotsCache,
		dispatcher,
		metricsCollector,
		grid,
		log,
	)
	updateBookingUseCase := updateBookingUC.NewUseCase(
		bookingRepository,
		facilityRepository,
		validator,
		txMgr,
		slotsCache,
		metricsCollector,
		grid,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(bookingRepository, slotsCache, log)

	// Handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	updateBooking := updateBookingHandler.NewHandler(updateBookingUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	deleteBooking := deleteBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	setBookingStatus := setBookingStatusHandler.NewHandler(bookingSvc, log)
	exportBookings := exportBookingsHandler.NewHandler(reportSvc, log)
	listFacilities := listFacilitiesHandler.NewHandler(facilitySvc, log)
	getFacility := getFacilityHandler.NewHandler(facilitySvc, log)
	saveFacility := saveFacilityHandler.NewHandler(facilitySvc, log)
	health := healthHandler.NewHandler(wrappedDB, publisher, slotsCache, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", health.Handle).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES
	// ============================================================

	api.HandleFunc("/booked-slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/facilities/{facilityId}/booked-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (bearer token)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.Issuer))

	// --- Объекты ---
	protected.HandleFunc("/facilities", listFacilities.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/facilities/{facilityId}", getFacility.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", updateBooking.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/bookings/{bookingId}", deleteBooking.Handle).Methods(http.MethodDelete)

	// ============================================================
	// ADMIN ROUTES
	// ============================================================

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/facilities", saveFacility.Create).Methods(http.MethodPost)
	admin.HandleFunc("/facilities/{facilityId}", saveFacility.Update).Methods(http.MethodPut)
	admin.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/bookings/export", exportBookings.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/bookings/status", setBookingStatus.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Дожидаемся публикации уведомлений, запущенных до остановки
	dispatcher.Wait()

	log.Info("Server exited")
}
