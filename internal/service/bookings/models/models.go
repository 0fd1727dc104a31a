package models

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID                  uuid.UUID `json:"id"`
	BookingReference    string    `json:"bookingReference"`
	OwnerNIC            string    `json:"evOwnerNIC"`
	StationID           uuid.UUID `json:"chargingStationId"`
	SlotID              uuid.UUID `json:"slotId"`
	ReservationDateTime time.Time `json:"reservationDateTime"`
	DurationMinutes     int       `json:"durationMinutes"`
	EndDateTime         time.Time `json:"endDateTime"`
	Status              string    `json:"status"`
	CreatedBy           string    `json:"createdBy"`

	CancellationReason *string    `json:"cancellationReason,omitempty"`
	ApprovedAt         *time.Time `json:"approvedAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// ModifyCheckResponse ответ на вопрос "можно ли ещё изменить бронирование"
type ModifyCheckResponse struct {
	CanModify bool      `json:"canModify"`
	Reason    string    `json:"reason,omitempty"`
	Deadline  time.Time `json:"deadline"`
}

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	return &BookingResponse{
		ID:                  b.ID,
		BookingReference:    b.Reference,
		OwnerNIC:            b.OwnerNIC,
		StationID:           b.StationID,
		SlotID:              b.SlotID,
		ReservationDateTime: b.ReservationDateTime,
		DurationMinutes:     b.DurationMinutes,
		EndDateTime:         b.End(),
		Status:              string(b.Status),
		CreatedBy:           b.CreatedBy,
		CancellationReason:  b.CancellationReason,
		ApprovedAt:          b.ApprovedAt,
		CompletedAt:         b.CompletedAt,
		CancelledAt:         b.CancelledAt,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}
	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}
	return resp
}

// FromModifyCheck конвертирует результат проверки
func FromModifyCheck(c domain.ModifyCheck) ModifyCheckResponse {
	return ModifyCheckResponse{CanModify: c.CanModify, Reason: c.Reason, Deadline: c.Deadline}
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// IssuedTokenResponse ответ с выданным токеном подтверждения
type IssuedTokenResponse struct {
	Token     string           `json:"token"`
	QRData    string           `json:"qrData"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Booking   *BookingResponse `json:"booking"`
}

// TokenSnapshotResponse данные, которые видит станция после проверки токена
type TokenSnapshotResponse struct {
	TokenID   uuid.UUID        `json:"tokenId"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Booking   *BookingResponse `json:"booking"`
}

// FromIssuedToken конвертирует выданный токен в DTO
func FromIssuedToken(t *domain.IssuedToken) *IssuedTokenResponse {
	return &IssuedTokenResponse{
		Token:     t.Token,
		QRData:    t.Token,
		ExpiresAt: t.ExpiresAt,
		Booking:   FromDomainBooking(t.Booking),
	}
}

// FromTokenSnapshot конвертирует результат проверки токена в DTO
func FromTokenSnapshot(s *domain.TokenSnapshot) *TokenSnapshotResponse {
	if s == nil {
		return nil
	}
	return &TokenSnapshotResponse{
		TokenID:   s.TokenID,
		ExpiresAt: s.ExpiresAt,
		Booking:   FromDomainBooking(s.Booking),
	}
}
