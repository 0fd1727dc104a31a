package slots

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/pgerr"
	slotRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/retry"
)

const (
	ensureBatchSize  = 500
	lockPollInterval = 10 * time.Millisecond
)

// Config параметры аллокатора
type Config struct {
	HorizonDays int           // на сколько дней вперёд материализуется расписание
	LockTTL     time.Duration // время жизни блокировки станции
	LockWait    time.Duration // сколько ждать занятую блокировку
	Retry       retry.Policy  // повтор при конкуренции за станцию
}

// DefaultConfig значения по умолчанию
func DefaultConfig() Config {
	return Config{
		HorizonDays: domain.DefaultScheduleHorizonDays,
		LockTTL:     5 * time.Second,
		LockWait:    2 * time.Second,
		Retry:       retry.Default,
	}
}

// Service аллокатор слотов: генерация расписания и атомарное резервирование
type Service struct {
	slotRepo  SlotRepository
	txManager TransactionManager
	locker    Locker
	metrics   Metrics
	cfg       Config
	logger    Logger
}

// NewService создает новый экземпляр аллокатора
func NewService(
	slotRepo SlotRepository,
	txManager TransactionManager,
	locker Locker,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:  slotRepo,
		txManager: txManager,
		locker:    locker,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// EnsureSchedule материализует расписание станции от now на горизонт.
// Идемпотентна: существующие окна не трогаются, повторный вызов только заполняет пропуски.
// Свободные слоты, не попадающие в текущую сетку станции, удаляются.
// Окна, пересекающиеся с занятыми слотами того же сокета, пропускаются.
func (s *Service) EnsureSchedule(ctx context.Context, station *domain.Station, now time.Time) (int64, error) {
	return s.ensure(ctx, "EnsureSchedule", station, now, s.cfg.HorizonDays)
}

// EnsureDay материализует окна одного дня станции (по её времени), начиная не раньше now.
// Продлевает расписание по запросу, когда день ещё не покрыт горизонтом.
func (s *Service) EnsureDay(ctx context.Context, station *domain.Station, now, day time.Time) (int64, error) {
	loc := station.Loc()
	local := day.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if from.Before(now) {
		from = now
	}
	return s.ensure(ctx, "EnsureDay", station, from, 1)
}

func (s *Service) ensure(ctx context.Context, op string, station *domain.Station, from time.Time, days int) (int64, error) {
	loc := station.Loc()
	local := from.In(loc)
	until := time.Date(local.Year(), local.Month(), local.Day()+days, 0, 0, 0, 0, loc)

	existing, err := s.slotRepo.ListRange(ctx, station.ID, from, until)
	if err != nil {
		s.logger.Error("%s: failed to load slots for station=%s: %v", op, station.ID, err)
		return 0, fmt.Errorf("%w: %s - list slots: %v", ErrInternal, op, err)
	}

	held := make([]*domain.Slot, 0, len(existing))
	present := make(map[uuid.UUID]struct{}, len(existing))
	stale := make([]uuid.UUID, 0)
	for _, sl := range existing {
		switch {
		case sl.IsHeld():
			held = append(held, sl)
			present[sl.ID] = struct{}{}
		case !onGrid(station, sl):
			stale = append(stale, sl.ID)
		default:
			present[sl.ID] = struct{}{}
		}
	}
	if len(stale) > 0 {
		dropped, err := s.slotRepo.DeleteAvailable(ctx, stale)
		if err != nil {
			s.logger.Error("%s: failed to drop off-grid slots for station=%s: %v", op, station.ID, err)
			return 0, fmt.Errorf("%w: %s - drop off-grid: %v", ErrInternal, op, err)
		}
		s.logger.Info("%s: station=%s dropped %d off-grid free slots", op, station.ID, dropped)
	}

	var inserted int64
	batch := make([]*domain.Slot, 0, ensureBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.slotRepo.InsertIfAbsent(ctx, batch)
		if err != nil {
			return err
		}
		inserted += n
		batch = batch[:0]
		return nil
	}

	for slot := range GenerateSlots(station, from, days) {
		if _, ok := present[slot.ID]; ok {
			continue
		}
		if overlapsHeld(held, &slot) {
			continue
		}
		batch = append(batch, &slot)
		if len(batch) == ensureBatchSize {
			if err := flush(); err != nil {
				s.logger.Error("%s: insert failed for station=%s: %v", op, station.ID, err)
				return inserted, fmt.Errorf("%w: %s - insert: %v", ErrInternal, op, err)
			}
		}
	}
	if err := flush(); err != nil {
		s.logger.Error("%s: insert failed for station=%s: %v", op, station.ID, err)
		return inserted, fmt.Errorf("%w: %s - insert: %v", ErrInternal, op, err)
	}

	if inserted > 0 {
		s.logger.Info("%s: station=%s inserted %d slots", op, station.ID, inserted)
	}
	return inserted, nil
}

// Regenerate перестраивает будущие свободные слоты после изменения расписания станции.
// Занятые слоты и бронирования не затрагиваются.
func (s *Service) Regenerate(ctx context.Context, station *domain.Station, now time.Time) (int64, error) {
	var inserted int64
	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		deleted, err := s.slotRepo.DeleteAvailableFrom(ctx, station.ID, now)
		if err != nil {
			return fmt.Errorf("%w: Regenerate - delete available: %v", ErrInternal, err)
		}
		s.logger.Info("Regenerate: station=%s dropped %d future free slots", station.ID, deleted)

		inserted, err = s.EnsureSchedule(ctx, station, now)
		return err
	})
	if err != nil {
		s.logger.Error("Regenerate: station=%s failed: %v", station.ID, err)
		return 0, err
	}
	return inserted, nil
}

// RunExclusive выполняет fn под блокировкой станции в сериализуемой транзакции.
// Конкуренция (занятая блокировка, ошибка сериализации, проигранная гонка за слот)
// повторяется по политике retry, после чего превращается в CapacityExceeded.
func (s *Service) RunExclusive(ctx context.Context, stationID uuid.UUID, fn func(ctx context.Context) error) error {
	err := retry.Do(ctx, s.cfg.Retry, isContention, func(ctx context.Context) error {
		release, err := s.acquire(ctx, stationID)
		if err != nil {
			return err
		}
		defer release()

		return s.txManager.DoSerializable(ctx, fn)
	})

	if isContention(err) {
		s.metrics.IncConflict("contention")
		s.logger.Warn("RunExclusive: station=%s contention persisted after retries: %v", stationID, err)
		return fmt.Errorf("%w: station %s is busy, please retry", domain.ErrCapacityExceeded, stationID)
	}
	return err
}

func (s *Service) acquire(ctx context.Context, stationID uuid.UUID) (func(), error) {
	key := "station:" + stationID.String()
	deadline := time.Now().Add(s.cfg.LockWait)

	for {
		ok, err := s.locker.Lock(ctx, key, s.cfg.LockTTL)
		if err != nil {
			// Без блокировки целостность всё равно держат транзакция и условный UPDATE
			s.logger.Warn("RunExclusive: lock backend unavailable for station=%s, continuing without it: %v", stationID, err)
			return func() {}, nil
		}
		if ok {
			return func() {
				if err := s.locker.Unlock(context.WithoutCancel(ctx), key); err != nil {
					s.logger.Warn("RunExclusive: unlock station=%s failed: %v", stationID, err)
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrContention
		}

		timer := time.NewTimer(lockPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Reserve занимает непрерывный набор слотов одного сокета, покрывающий
// [start, start+duration). start должен попадать в слот firstSlotID, нулевой start
// означает начало слота. Занимаются слоты целиком.
// Вызывается внутри RunExclusive.
func (s *Service) Reserve(
	ctx context.Context,
	station *domain.Station,
	firstSlotID uuid.UUID,
	start time.Time,
	durationMinutes int,
	bookingID uuid.UUID,
) ([]*domain.Slot, error) {
	first, err := s.slotRepo.GetByID(ctx, firstSlotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, firstSlotID)
		}
		return nil, fmt.Errorf("%w: Reserve - get slot: %v", ErrInternal, err)
	}
	if first.StationID != station.ID {
		return nil, fmt.Errorf("%w: slot %s does not belong to station %s", domain.ErrValidation, firstSlotID, station.ID)
	}
	if start.IsZero() {
		start = first.StartTime
	}
	if !first.Covers(start) {
		return nil, fmt.Errorf("%w: reservation time is outside slot %s", domain.ErrValidation, firstSlotID)
	}

	span, err := s.resolveSpan(ctx, station, first, start, durationMinutes)
	if err != nil {
		return nil, err
	}

	for _, sl := range span {
		if sl.IsHeld() {
			s.metrics.IncConflict("taken")
			return nil, ErrSlotTaken
		}
	}

	// Проверяется всё окно занимаемых слотов, а не только [start, end)
	from, to := span[0].StartTime, span[len(span)-1].EndTime
	held, err := s.slotRepo.ListHeldOverlapping(ctx, station.ID, from, to)
	if err != nil {
		if pgerr.IsRetryable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: Reserve - list held: %v", ErrInternal, err)
	}
	if socketHeld(held, first.Socket) {
		// слот старой сетки на том же сокете
		s.metrics.IncConflict("taken")
		return nil, ErrSlotTaken
	}
	busy := make(map[int]struct{}, len(held))
	for _, h := range held {
		busy[h.Socket] = struct{}{}
	}
	if len(busy)+1 > station.TotalSockets {
		s.metrics.IncConflict("capacity")
		return nil, ErrNoFreeSocket
	}

	ids := make([]uuid.UUID, len(span))
	for i, sl := range span {
		ids[i] = sl.ID
	}
	affected, err := s.slotRepo.Reserve(ctx, ids, bookingID)
	if err != nil {
		if pgerr.IsRetryable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: Reserve - update: %v", ErrInternal, err)
	}
	if affected != int64(len(ids)) {
		s.metrics.IncConflict("lost_race")
		return nil, ErrContention
	}

	holder := bookingID
	for _, sl := range span {
		sl.IsAvailable = false
		sl.BookingID = &holder
	}

	s.logger.Info("Reserve: station=%s socket=%d booking=%s reserved %d slots for %s",
		station.ID, first.Socket, bookingID, len(span), start.UTC().Format(time.RFC3339))
	return span, nil
}

// resolveSpan возвращает слоты сокета first, покрывающие [start, start+duration)
// без разрывов и в пределах одного дня
func (s *Service) resolveSpan(
	ctx context.Context,
	station *domain.Station,
	first *domain.Slot,
	start time.Time,
	durationMinutes int,
) ([]*domain.Slot, error) {
	if first.Socket > station.TotalSockets {
		return nil, fmt.Errorf("%w: socket %d is no longer offered by the station", domain.ErrValidation, first.Socket)
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	loc := station.Loc()
	if !sameDay(start.In(loc), end.Add(-time.Nanosecond).In(loc)) {
		return nil, fmt.Errorf("%w: reservation must end on the same operating day", domain.ErrValidation)
	}

	span, err := s.slotRepo.ListSocketRange(ctx, station.ID, first.Socket, first.StartTime, end)
	if err != nil {
		if pgerr.IsRetryable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: Reserve - list span: %v", ErrInternal, err)
	}

	if len(span) == 0 || span[0].ID != first.ID {
		return nil, fmt.Errorf("%w: slot window is not available", domain.ErrValidation)
	}
	for i := 1; i < len(span); i++ {
		if !span[i].StartTime.Equal(span[i-1].EndTime) {
			return nil, fmt.Errorf("%w: duration does not fit within operating hours", domain.ErrValidation)
		}
	}
	if span[len(span)-1].EndTime.Before(end) {
		return nil, fmt.Errorf("%w: duration does not fit within operating hours", domain.ErrValidation)
	}
	return span, nil
}

// FindSlotAt возвращает первый (по номеру сокета) свободный слот, содержащий start,
// у которого свободно всё окно duration
func (s *Service) FindSlotAt(ctx context.Context, station *domain.Station, start time.Time, durationMinutes int) (*domain.Slot, error) {
	from := start.Add(-station.SlotLength())
	to := start.Add(time.Nanosecond)
	listed, err := s.slotRepo.List(ctx, domain.SlotFilter{StationID: station.ID, From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("%w: FindSlotAt - list: %v", ErrInternal, err)
	}

	candidates := make([]*domain.Slot, 0, len(listed))
	for _, c := range listed {
		if c.Covers(start) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no slot covers %s", domain.ErrValidation, start.UTC().Format(time.RFC3339))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Socket < candidates[j].Socket
	})

	var lastErr error = ErrNoFreeSocket
	for _, c := range candidates {
		if c.IsHeld() || c.Socket > station.TotalSockets {
			continue
		}
		span, err := s.resolveSpan(ctx, station, c, start, durationMinutes)
		if err != nil {
			lastErr = err
			continue
		}
		free := true
		for _, sl := range span {
			if sl.IsHeld() {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		held, err := s.slotRepo.ListHeldOverlapping(ctx, station.ID, span[0].StartTime, span[len(span)-1].EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: FindSlotAt - list held: %v", ErrInternal, err)
		}
		if !socketHeld(held, c.Socket) {
			return c, nil
		}
	}
	return nil, lastErr
}

// Release освобождает все слоты бронирования. Вызывается только при отмене.
func (s *Service) Release(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	released, err := s.slotRepo.ReleaseByBooking(ctx, bookingID)
	if err != nil {
		if pgerr.IsRetryable(err) {
			return 0, err
		}
		s.logger.Error("Release: booking=%s failed: %v", bookingID, err)
		return 0, fmt.Errorf("%w: Release - update: %v", ErrInternal, err)
	}
	s.logger.Info("Release: booking=%s released %d slots", bookingID, released)
	return released, nil
}

// ListSlots возвращает слоты станции по фильтру
func (s *Service) ListSlots(ctx context.Context, filter domain.SlotFilter) ([]*domain.Slot, error) {
	slots, err := s.slotRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListSlots: station=%s failed: %v", filter.StationID, err)
		return nil, fmt.Errorf("%w: ListSlots - list: %v", ErrInternal, err)
	}
	return slots, nil
}

// SlotsOfBooking возвращает слоты, занятые бронированием
func (s *Service) SlotsOfBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.Slot, error) {
	slots, err := s.slotRepo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: SlotsOfBooking - list: %v", ErrInternal, err)
	}
	return slots, nil
}

// DropStation удаляет все слоты станции
func (s *Service) DropStation(ctx context.Context, stationID uuid.UUID) error {
	if err := s.slotRepo.DeleteByStation(ctx, stationID); err != nil {
		return fmt.Errorf("%w: DropStation - delete: %v", ErrInternal, err)
	}
	return nil
}

func isContention(err error) bool {
	return errors.Is(err, ErrContention) || pgerr.IsRetryable(err)
}

func socketHeld(held []*domain.Slot, socket int) bool {
	for _, h := range held {
		if h.Socket == socket {
			return true
		}
	}
	return false
}

func overlapsHeld(held []*domain.Slot, slot *domain.Slot) bool {
	for _, h := range held {
		if h.Socket == slot.Socket && h.Overlaps(slot.StartTime, slot.EndTime) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
