package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/m04kA/SMC-ChargingBookingService/internal/config"
	bookingRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/memory"
	operatorRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/operator"
	slotRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/slot"
	stationRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/station"
	tokenRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/token"
	bookingsService "github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings"
	slotsService "github.com/m04kA/SMC-ChargingBookingService/internal/service/slots"
	stationsService "github.com/m04kA/SMC-ChargingBookingService/internal/service/stations"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/verification"
	createBookingUC "github.com/m04kA/SMC-ChargingBookingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/logger"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/metrics"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/txmanager"
)

// Наборы методов, которые нужны сервисам от каждого хранилища.
// Реализуются и postgres-репозиториями, и memory.Store.
type (
	bookingStore interface {
		bookingsService.BookingRepository
		createBookingUC.BookingRepository
		stationsService.BookingCounter
	}

	txManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
)

type repositories struct {
	stations  stationsService.StationRepository
	operators stationsService.OperatorRepository
	slots     slotsService.SlotRepository
	bookings  bookingStore
	tokens    verification.TokenRepository
	tx        txManager

	close func() error
}

// openStorage поднимает хранилище, выбранное в storage.driver
func openStorage(cfg *config.Config, m *metrics.Metrics, stopCh <-chan struct{}, log *logger.Logger) (*repositories, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("Using in-memory storage, data will be lost on restart")
		store := memory.NewStore()
		return &repositories{
			stations:  store.Stations(),
			operators: store.Operators(),
			slots:     store.Slots(),
			bookings:  store.Bookings(),
			tokens:    store.Tokens(),
			tx:        memory.NewTxManager(store),
			close:     func() error { return nil },
		}, nil
	}

	// lib/pq регистрирует драйвер "postgres", pgx/stdlib - "pgx"
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (driver=%s, host=%s, port=%d, db=%s)",
		cfg.Database.Driver, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// metrics == nil отключает сбор метрик запросов
	wrappedDB := dbmetrics.WrapWithDefault(db, m, cfg.Metrics.ServiceName, stopCh)

	return &repositories{
		stations:  stationRepo.NewRepository(wrappedDB),
		operators: operatorRepo.NewRepository(wrappedDB),
		slots:     slotRepo.NewRepository(wrappedDB),
		bookings:  bookingRepo.NewRepository(wrappedDB),
		tokens:    tokenRepo.NewRepository(wrappedDB),
		tx:        txmanager.NewTransactionManager(wrappedDB),
		close:     db.Close,
	}, nil
}
