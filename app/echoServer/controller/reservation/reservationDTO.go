package reservation

import "time"

type CreateReservationReq struct {
	DvdID       int64     `json:"dvd_id" validate:"required,gt=0"`
	Count       int       `json:"count" validate:"required,gt=0"`
	RentalStart time.Time `json:"rental_start" validate:"required"`
	RentalEnd   time.Time `json:"rental_end" validate:"required"`
}
