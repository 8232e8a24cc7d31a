// model/rental.go
package model

import "time"

type RentalStatus string

const (
	RentalActive          RentalStatus = "ACTIVE"
	RentalReturnRequested RentalStatus = "RETURN_REQUESTED"
	RentalInactive        RentalStatus = "INACTIVE"
)

type Rental struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"user_id"`
	DvdID       int64        `json:"dvd_id"`
	Count       int          `json:"count"`
	RentalStart time.Time    `json:"rental_start"`
	RentalEnd   time.Time    `json:"rental_end"`
	Status      RentalStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ReturnedAt  *time.Time   `json:"returned_at,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
}
