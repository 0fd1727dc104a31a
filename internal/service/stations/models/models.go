package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/types"
)

// Request модели

// LocationDTO адрес и координаты станции
type LocationDTO struct {
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StationRequest тело создания и полного редактирования станции
type StationRequest struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"` // AC | DC
	Location     LocationDTO `json:"location"`
	TotalSockets int         `json:"totalSockets"`
	SlotsPerDay  int         `json:"slotsPerDay"`
	OpenTime     string      `json:"openTime,omitempty"`  // "HH:MM", по умолчанию 00:00
	CloseTime    string      `json:"closeTime,omitempty"` // "HH:MM", по умолчанию 24:00
	Timezone     string      `json:"timezone,omitempty"`
	IsActive     *bool       `json:"isActive,omitempty"`
}

// ToDomainConfig конвертирует запрос в domain.StationConfig.
// Время проверяется позже в StationConfig.Validate.
func (r *StationRequest) ToDomainConfig() domain.StationConfig {
	return domain.StationConfig{
		Name: r.Name,
		Type: domain.StationType(r.Type),
		Location: domain.Location{
			Address:   r.Location.Address,
			City:      r.Location.City,
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
		},
		TotalSockets: r.TotalSockets,
		SlotsPerDay:  r.SlotsPerDay,
		OpenTime:     types.TimeString(r.OpenTime),
		CloseTime:    types.TimeString(r.CloseTime),
		Timezone:     r.Timezone,
		IsActive:     r.IsActive,
	}
}

// Response модели

// StationResponse ответ с данными станции
type StationResponse struct {
	ID                uuid.UUID      `json:"id"`
	Name              string         `json:"name"`
	Type              string         `json:"type"`
	Location          LocationDTO    `json:"location"`
	TotalSockets      int            `json:"totalSockets"`
	SlotsPerDay       int            `json:"slotsPerDay"`
	SlotLengthMinutes int            `json:"slotLengthMinutes"`
	OpenTime          string         `json:"openTime"`
	CloseTime         string         `json:"closeTime"`
	Timezone          string         `json:"timezone"`
	OperatorID        *uuid.UUID     `json:"operatorId,omitempty"`
	IsActive          bool           `json:"isActive"`
	AvailableSlots    []SlotResponse `json:"availableSlots,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// StationListResponse ответ со списком станций
type StationListResponse struct {
	Stations []StationResponse `json:"stations"`
}

// SlotResponse ответ с данными слота
type SlotResponse struct {
	ID          uuid.UUID  `json:"id"`
	StationID   uuid.UUID  `json:"stationId"`
	Socket      int        `json:"socket"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	IsAvailable bool       `json:"isAvailable"`
	BookingID   *uuid.UUID `json:"bookingId,omitempty"`
}

// SlotListResponse ответ со списком слотов
type SlotListResponse struct {
	Slots []SlotResponse `json:"slots"`
}

// OperatorResponse учётная запись оператора без хеша пароля
type OperatorResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// OperatorListResponse ответ со списком операторов
type OperatorListResponse struct {
	Operators []OperatorResponse `json:"operators"`
}

// CredentialsResponse одноразово показываемые учётные данные оператора
type CredentialsResponse struct {
	OperatorID uuid.UUID `json:"operatorId"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"password"`
}

// CreateStationResponse станция и, если создан оператор, его учётные данные
type CreateStationResponse struct {
	Station     *StationResponse     `json:"station"`
	Credentials *CredentialsResponse `json:"operatorCredentials,omitempty"`
}

// Методы конвертации

// FromDomainStation конвертирует domain модель в DTO
func FromDomainStation(s *domain.Station) *StationResponse {
	if s == nil {
		return nil
	}

	resp := &StationResponse{
		ID:   s.ID,
		Name: s.Name,
		Type: string(s.Type),
		Location: LocationDTO{
			Address:   s.Location.Address,
			City:      s.Location.City,
			Latitude:  s.Location.Latitude,
			Longitude: s.Location.Longitude,
		},
		TotalSockets:      s.TotalSockets,
		SlotsPerDay:       s.SlotsPerDay,
		SlotLengthMinutes: int(s.SlotLength() / time.Minute),
		OpenTime:          s.OpenTime.String(),
		CloseTime:         s.CloseTime.String(),
		Timezone:          s.Timezone,
		OperatorID:        s.OperatorID,
		IsActive:          s.IsActive,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if len(s.AvailableSlots) > 0 {
		resp.AvailableSlots = FromDomainSlotList(s.AvailableSlots).Slots
	}
	return resp
}

// FromDomainStationList конвертирует список станций в DTO
func FromDomainStationList(stations []*domain.Station) *StationListResponse {
	resp := &StationListResponse{Stations: make([]StationResponse, 0, len(stations))}
	for _, st := range stations {
		if dto := FromDomainStation(st); dto != nil {
			resp.Stations = append(resp.Stations, *dto)
		}
	}
	return resp
}

// FromDomainSlotList конвертирует список слотов в DTO
func FromDomainSlotList(slots []*domain.Slot) *SlotListResponse {
	resp := &SlotListResponse{Slots: make([]SlotResponse, 0, len(slots))}
	for _, sl := range slots {
		resp.Slots = append(resp.Slots, SlotResponse{
			ID:          sl.ID,
			StationID:   sl.StationID,
			Socket:      sl.Socket,
			StartTime:   sl.StartTime,
			EndTime:     sl.EndTime,
			IsAvailable: sl.IsAvailable,
			BookingID:   sl.BookingID,
		})
	}
	return resp
}

// FromDomainOperatorList конвертирует список операторов в DTO
func FromDomainOperatorList(ops []*domain.Operator) *OperatorListResponse {
	resp := &OperatorListResponse{Operators: make([]OperatorResponse, 0, len(ops))}
	for _, op := range ops {
		resp.Operators = append(resp.Operators, OperatorResponse{
			ID:        op.ID,
			Username:  op.Username,
			Email:     op.Email,
			IsActive:  op.IsActive,
			CreatedAt: op.CreatedAt,
		})
	}
	return resp
}

// FromCreateResult конвертирует результат создания станции
func FromCreateResult(station *domain.Station, creds *domain.OperatorCredentials) *CreateStationResponse {
	resp := &CreateStationResponse{Station: FromDomainStation(station)}
	if creds != nil {
		resp.Credentials = &CredentialsResponse{
			OperatorID: creds.OperatorID,
			Username:   creds.Username,
			Email:      creds.Email,
			Password:   creds.Password,
		}
	}
	return resp
}
