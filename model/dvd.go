// model/dvd.go
package model

type Dvd struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Genre             string  `json:"genre"`
	RentalPricePerDay float64 `json:"rental_price_per_day"`
	Available         bool    `json:"available"`
	CopiesAvailable   int     `json:"copies_available"`
	TotalCopies       int     `json:"total_copies"`
}
