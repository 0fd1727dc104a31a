package create_booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// Request модель запроса на создание бронирования
type Request struct {
	OwnerNIC            string    // NIC владельца EV
	StationID           uuid.UUID // ID станции
	SlotID              uuid.UUID // первый слот; uuid.Nil - подобрать свободный сокет по ReservationDateTime
	ReservationDateTime time.Time // начало; нулевое - начало слота SlotID
	DurationMinutes     int       // длительность, кратная шагу сетки
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking *domain.Booking
	Slots   []*domain.Slot // занятые слоты в порядке времени
}
