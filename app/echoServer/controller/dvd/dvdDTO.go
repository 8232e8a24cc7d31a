package dvd

type CreateDvdReq struct {
	Title             string  `json:"title" validate:"required"`
	Genre             string  `json:"genre" validate:"required"`
	RentalPricePerDay float64 `json:"rental_price_per_day" validate:"required,gte=0"`
	Copies            int     `json:"copies" validate:"required,gt=0"`
}
