package get_available_slots

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/types"
)

// buildWindows группирует слоты дня по началу окна и считает, сколько сокетов
// свободны на всю длительность. Окна, начавшиеся не позже now, отбрасываются.
// Окна, начинающиеся после bookableUntil, показываются без свободных мест.
func buildWindows(
	station *domain.Station,
	daySlots []*domain.Slot,
	durationMinutes int,
	now, bookableUntil time.Time,
) []Slot {
	slotLen := station.SlotLength()
	if durationMinutes <= 0 {
		durationMinutes = int(slotLen / time.Minute)
	}
	need := time.Duration(durationMinutes) * time.Minute

	// Слоты каждого сокета по времени
	bySocket := make(map[int][]*domain.Slot)
	starts := make(map[int64]time.Time)
	for _, sl := range daySlots {
		bySocket[sl.Socket] = append(bySocket[sl.Socket], sl)
		starts[sl.StartTime.Unix()] = sl.StartTime
	}
	for _, list := range bySocket {
		sort.Slice(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })
	}

	ordered := make([]time.Time, 0, len(starts))
	for _, st := range starts {
		if st.After(now) {
			ordered = append(ordered, st)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	loc := station.Loc()
	result := make([]Slot, 0, len(ordered))
	for _, start := range ordered {
		window := Slot{
			StartTime:       start,
			LocalStart:      types.NewTimeString(start.In(loc)),
			DurationMinutes: int(slotLen / time.Minute),
			TotalSpots:      station.TotalSockets,
		}

		if station.IsActive && !start.After(bookableUntil) {
			for socket := 1; socket <= station.TotalSockets; socket++ {
				if id, ok := freeSpan(bySocket[socket], start, need); ok {
					window.AvailableSpots++
					if window.FirstFreeSlotID == nil {
						window.FirstFreeSlotID = &id
					}
				}
			}
		}
		result = append(result, window)
	}

	return result
}

// freeSpan проверяет, что на сокете есть непрерывная цепочка свободных слотов
// от start длиной не меньше need, и возвращает первый слот цепочки
func freeSpan(socketSlots []*domain.Slot, start time.Time, need time.Duration) (uuid.UUID, bool) {
	end := start.Add(need)
	cursor := start
	var first uuid.UUID

	for _, sl := range socketSlots {
		if sl.StartTime.Before(cursor) {
			continue
		}
		if !sl.StartTime.Equal(cursor) || !sl.IsAvailable {
			return uuid.Nil, false
		}
		if first == uuid.Nil {
			first = sl.ID
		}
		cursor = sl.EndTime
		if !cursor.Before(end) {
			return first, true
		}
	}
	return uuid.Nil, false
}
