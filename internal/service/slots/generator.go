package slots

import (
	"iter"
	"time"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// GenerateSlots лениво перечисляет окна станции на horizonDays календарных дней,
// начиная с дня from по времени станции. Окна, начавшиеся раньше from, пропускаются.
// Последовательность конечна и детерминирована: повторный обход даёт те же слоты
// с теми же id.
func GenerateSlots(station *domain.Station, from time.Time, horizonDays int) iter.Seq[domain.Slot] {
	return func(yield func(domain.Slot) bool) {
		slotLen := station.SlotLength()
		if slotLen <= 0 || station.TotalSockets <= 0 {
			return
		}

		loc := station.Loc()
		local := from.In(loc)
		firstDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

		for d := 0; d < horizonDays; d++ {
			day := firstDay.AddDate(0, 0, d)
			open := station.OpenTime.On(day, loc)

			for k := 0; k < station.SlotsPerDay; k++ {
				start := open.Add(time.Duration(k) * slotLen)
				if start.Before(from) {
					continue
				}
				end := start.Add(slotLen)

				for socket := 1; socket <= station.TotalSockets; socket++ {
					slot := domain.Slot{
						ID:          domain.SlotID(station.ID, socket, start),
						StationID:   station.ID,
						Socket:      socket,
						StartTime:   start.UTC(),
						EndTime:     end.UTC(),
						IsAvailable: true,
					}
					if !yield(slot) {
						return
					}
				}
			}
		}
	}
}

// onGrid reports whether slot is one of the windows GenerateSlots yields
// for the station's current configuration
func onGrid(station *domain.Station, slot *domain.Slot) bool {
	slotLen := station.SlotLength()
	if slotLen <= 0 || slot.Socket < 1 || slot.Socket > station.TotalSockets {
		return false
	}
	if slot.EndTime.Sub(slot.StartTime) != slotLen {
		return false
	}

	loc := station.Loc()
	open := station.OpenTime.On(slot.StartTime, loc)
	offset := slot.StartTime.Sub(open)
	if offset < 0 || offset%slotLen != 0 || int(offset/slotLen) >= station.SlotsPerDay {
		return false
	}
	return slot.ID == domain.SlotID(station.ID, slot.Socket, slot.StartTime)
}
