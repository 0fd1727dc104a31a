// Package memory хранилище в памяти с той же семантикой, что и PostgreSQL репозитории.
// Используется при storage.driver = "memory" и в тестах сервисов.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type txKey struct{ store *Store }

// Store общее состояние всех репозиториев.
// Транзакция держит мьютекс целиком, поэтому транзакции строго последовательны.
type Store struct {
	mu sync.Mutex

	stations  map[uuid.UUID]domain.Station
	slots     map[uuid.UUID]domain.Slot
	bookings  map[uuid.UUID]domain.Booking
	tokens    map[uuid.UUID]domain.VerificationToken
	operators map[uuid.UUID]domain.Operator
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		stations:  make(map[uuid.UUID]domain.Station),
		slots:     make(map[uuid.UUID]domain.Slot),
		bookings:  make(map[uuid.UUID]domain.Booking),
		tokens:    make(map[uuid.UUID]domain.VerificationToken),
		operators: make(map[uuid.UUID]domain.Operator),
	}
}

func (s *Store) inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{store: s}).(bool)
	return v
}

// lock берёт мьютекс, если вызов не внутри транзакции этого хранилища
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	stations  map[uuid.UUID]domain.Station
	slots     map[uuid.UUID]domain.Slot
	bookings  map[uuid.UUID]domain.Booking
	tokens    map[uuid.UUID]domain.VerificationToken
	operators map[uuid.UUID]domain.Operator
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		stations:  maps.Clone(s.stations),
		slots:     maps.Clone(s.slots),
		bookings:  maps.Clone(s.bookings),
		tokens:    maps.Clone(s.tokens),
		operators: maps.Clone(s.operators),
	}
}

func (s *Store) restore(snap snapshot) {
	s.stations = snap.stations
	s.slots = snap.slots
	s.bookings = snap.bookings
	s.tokens = snap.tokens
	s.operators = snap.operators
}

// TxManager транзакции поверх Store: снимок состояния и откат при ошибке
type TxManager struct {
	store *Store
}

// NewTxManager создает менеджер транзакций хранилища
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s := m.store
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{store: s}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

// Stations репозиторий станций
func (s *Store) Stations() *StationRepository { return &StationRepository{s: s} }

// Slots репозиторий слотов
func (s *Store) Slots() *SlotRepository { return &SlotRepository{s: s} }

// Bookings репозиторий бронирований
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }

// Tokens репозиторий токенов
func (s *Store) Tokens() *TokenRepository { return &TokenRepository{s: s} }

// Operators репозиторий операторов
func (s *Store) Operators() *OperatorRepository { return &OperatorRepository{s: s} }
