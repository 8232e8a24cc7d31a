// model/reservation.go
package model

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationAccepted  ReservationStatus = "ACCEPTED"
	ReservationRejected  ReservationStatus = "REJECTED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationAccepted || s == ReservationRejected || s == ReservationCancelled
}

type Reservation struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	DvdID       int64             `json:"dvd_id"`
	Count       int               `json:"count"`
	RentalStart time.Time         `json:"rental_start"`
	RentalEnd   time.Time         `json:"rental_end"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}
