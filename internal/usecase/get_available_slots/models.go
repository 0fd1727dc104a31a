package get_available_slots

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/pkg/types"
)

// Request модель запроса на получение доступности станции
type Request struct {
	StationID       uuid.UUID // ID станции
	Date            time.Time // день по времени станции (берутся год, месяц, число)
	DurationMinutes int       // 0 - длина одного слота, иначе сокет должен быть свободен на всю длительность
}

// Response модель ответа со списком окон
type Response struct {
	StationID     uuid.UUID // ID станции
	Date          time.Time // полночь запрошенного дня по времени станции
	Timezone      string    // часовой пояс станции
	StationActive bool      // неактивная станция показывает окна без свободных мест
	Slots         []Slot    // окна дня в порядке времени
}

// Slot модель временного окна
type Slot struct {
	StartTime       time.Time        // начало окна (UTC)
	LocalStart      types.TimeString // начало по времени станции, "HH:MM"
	DurationMinutes int              // длина слота в минутах
	AvailableSpots  int              // количество сокетов, свободных на всю длительность
	TotalSpots      int              // количество сокетов станции
	FirstFreeSlotID *uuid.UUID       // слот, который можно передать в создание бронирования
}
