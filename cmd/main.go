package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	approveBookingHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/approve_booking"
	assignOperatorHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/assign_operator"
	canModifyBookingHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/can_modify_booking"
	cancelBookingHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/complete_booking"
	createBookingHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/create_booking"
	createStationHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/create_station"
	deactivateOperatorHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/deactivate_operator"
	deleteStationHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/delete_station"
	getAvailableSlotsHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/get_booking"
	getStationHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/get_station"
	getStationSlotsHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/get_station_slots"
	getUpcomingBookingsHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/get_upcoming_bookings"
	issueTokenHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/issue_token"
	listBookingsHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/list_bookings"
	listOperatorsHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/list_operators"
	listStationsHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/list_stations"
	redeemTokenHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/redeem_token"
	toggleStationHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/toggle_station"
	updateBookingHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/update_booking"
	updateStationHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/update_station"
	validateQRHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/validate_qr"
	validateTokenHandler "github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers/validate_token"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/config"
	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/events"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/lock"
	"github.com/m04kA/SMC-ChargingBookingService/internal/integrations/ownerservice"
	bookingsService "github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings"
	slotsService "github.com/m04kA/SMC-ChargingBookingService/internal/service/slots"
	stationsService "github.com/m04kA/SMC-ChargingBookingService/internal/service/stations"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/verification"
	createBookingUC "github.com/m04kA/SMC-ChargingBookingService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-ChargingBookingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/clock"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/logger"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/metrics"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/password"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/retry"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
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

	log.Info("Starting SMC-ChargingBookingService...")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище: postgres или память
	repos, err := openStorage(cfg, metricsCollector, stopMetricsCh, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}
	defer repos.close()

	// Блокировки станций и шина событий: Redis, если включен, иначе в процессе
	var (
		locker    slotsService.Locker
		publisher bookingsService.EventPublisher
	)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal("Failed to ping redis: %v", err)
		}

		locker = lock.NewRedisLock(redisClient)
		publisher = events.NewRedisPublisher(redisClient, cfg.Redis.Channel)
		log.Info("Redis connected (addr=%s), station locks and events go through redis", cfg.Redis.Addr)
	} else {
		locker = lock.NewLocalLock()
		publisher = events.NewLogPublisher(log)
		log.Info("Redis disabled, using in-process station locks")
	}

	// Каталог владельцев EV необязателен
	var owners createBookingUC.OwnerDirectory
	if cfg.OwnerService.URL != "" {
		owners = ownerservice.NewClient(
			cfg.OwnerService.URL,
			time.Duration(cfg.OwnerService.Timeout)*time.Second,
			log,
		)
		log.Info("Owner directory client initialized (url=%s, timeout=%ds)", cfg.OwnerService.URL, cfg.OwnerService.Timeout)
	}

	timeProvider := clock.RealTimeProvider{}
	rules := domain.BookingRules{
		MaxAdvance:         cfg.Booking.MaxAdvance(),
		ModificationCutoff: cfg.Booking.ModificationCutoff(),
		MinDuration:        cfg.Booking.MinDurationMinutes,
		MaxDuration:        cfg.Booking.MaxDurationMinutes,
		DurationStep:       cfg.Booking.DurationStepMinutes,
	}

	// Инициализируем сервисы
	slotsCfg := slotsService.DefaultConfig()
	slotsCfg.HorizonDays = cfg.Schedule.HorizonDays
	slotsCfg.LockTTL = time.Duration(cfg.Redis.LockTTL) * time.Millisecond
	slotsCfg.Retry = retry.Policy{
		Attempts: cfg.Booking.ReserveRetries + 1,
		Delay:    time.Duration(cfg.Booking.ReserveRetryDelayMs) * time.Millisecond,
	}
	allocator := slotsService.NewService(repos.slots, repos.tx, locker, metricsCollector, slotsCfg, log)

	stationSvc := stationsService.NewService(
		repos.stations,
		repos.operators,
		repos.bookings,
		allocator,
		password.NewBcryptHasher(0),
		repos.tx,
		timeProvider,
		cfg.Schedule.HorizonDays,
		log,
	)
	bookingSvc := bookingsService.NewService(
		repos.bookings,
		repos.stations,
		allocator,
		repos.tokens,
		publisher,
		metricsCollector,
		repos.tx,
		rules,
		timeProvider,
		log,
	)
	verificationSvc := verification.NewService(
		repos.tokens,
		repos.bookings,
		repos.stations,
		bookingSvc,
		verification.NewSigner(cfg.Verification.SigningKey, cfg.Verification.Issuer),
		repos.tx,
		metricsCollector,
		timeProvider,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		repos.bookings,
		repos.stations,
		allocator,
		owners,
		publisher,
		metricsCollector,
		rules,
		timeProvider,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		repos.stations,
		repos.slots,
		allocator,
		rules,
		timeProvider,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	getUpcomingBookings := getUpcomingBookingsHandler.NewHandler(bookingSvc, log)
	canModifyBooking := canModifyBookingHandler.NewHandler(bookingSvc, log)
	updateBooking := updateBookingHandler.NewHandler(bookingSvc, log)
	approveBooking := approveBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	issueToken := issueTokenHandler.NewHandler(verificationSvc, log)
	validateQR := validateQRHandler.NewHandler(verificationSvc, log)
	completeBooking := completeBookingHandler.NewHandler(verificationSvc, log)
	validateToken := validateTokenHandler.NewHandler(verificationSvc, log)
	redeemToken := redeemTokenHandler.NewHandler(verificationSvc, log)

	createStation := createStationHandler.NewHandler(stationSvc, log)
	listStations := listStationsHandler.NewHandler(stationSvc, log)
	getStation := getStationHandler.NewHandler(stationSvc, log)
	updateStation := updateStationHandler.NewHandler(stationSvc, log)
	toggleStation := toggleStationHandler.NewHandler(stationSvc, log)
	deleteStation := deleteStationHandler.NewHandler(stationSvc, log)
	getStationSlots := getStationSlotsHandler.NewHandler(stationSvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	assignOperator := assignOperatorHandler.NewHandler(stationSvc, log)
	listOperators := listOperatorsHandler.NewHandler(stationSvc, log)
	deactivateOperator := deactivateOperatorHandler.NewHandler(stationSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recover(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// API prefix, все маршруты требуют аутентификации
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(middleware.AuthConfig{
		Secret:       cfg.Auth.JWTSecret,
		TrustHeaders: cfg.Auth.TrustHeaders,
	}, log))

	// --- Станции ---
	api.HandleFunc("/stations", createStation.Handle).Methods(http.MethodPost)
	api.HandleFunc("/stations", listStations.Handle).Methods(http.MethodGet)
	api.HandleFunc("/stations/my", listStations.HandleMine).Methods(http.MethodGet)
	api.HandleFunc("/stations/{stationId}", getStation.Handle).Methods(http.MethodGet)
	api.HandleFunc("/stations/{stationId}", updateStation.Handle).Methods(http.MethodPut)
	api.HandleFunc("/stations/{stationId}", deleteStation.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/stations/{stationId}/deactivate", toggleStation.HandleDeactivate).Methods(http.MethodPatch)
	api.HandleFunc("/stations/{stationId}/reactivate", toggleStation.HandleReactivate).Methods(http.MethodPatch)
	api.HandleFunc("/stations/{stationId}/slots", getStationSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/stations/{stationId}/availability", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/stations/{stationId}/operator", assignOperator.Handle).Methods(http.MethodPut)

	// --- Операторы ---
	api.HandleFunc("/operators", listOperators.Handle).Methods(http.MethodGet)
	api.HandleFunc("/operators/{operatorId}/deactivate", deactivateOperator.Handle).Methods(http.MethodPatch)

	// --- Бронирования ---
	api.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/validate-qr", validateQR.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/upcoming/{nic}", getUpcomingBookings.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}", updateBooking.Handle).Methods(http.MethodPut)
	api.HandleFunc("/bookings/{bookingId}/can-modify", canModifyBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId}/approve", approveBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId}/qr", issueToken.Handle).Methods(http.MethodPost)

	// --- Токены подтверждения ---
	api.HandleFunc("/tokens/validate", validateToken.Handle).Methods(http.MethodPost)
	api.HandleFunc("/tokens/redeem", redeemToken.Handle).Methods(http.MethodPost)

	// Фоновое продление расписания на горизонт
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if cfg.Schedule.RefreshInterval > 0 {
		go stationSvc.RunScheduleRefresher(bgCtx, time.Duration(cfg.Schedule.RefreshInterval)*time.Second)
		log.Info("Schedule refresher started (interval=%ds, horizon=%dd)", cfg.Schedule.RefreshInterval, cfg.Schedule.HorizonDays)
	}

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
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	stopBackground()
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
