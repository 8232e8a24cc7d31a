package rental

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dvdrental/model"
)

// NewFromReservation materializes the rental for an accepted reservation.
// The reservation's fields are copied forward; the two records are not
// linked afterwards. The attached transaction is the provisional invoice
// with a zero late fee.
func NewFromReservation(res *model.Reservation, dvd *model.Dvd, now time.Time) *model.Rental {
	days := PeriodDays(res.RentalStart, res.RentalEnd)

	return &model.Rental{
		UserID:      res.UserID,
		DvdID:       res.DvdID,
		Count:       res.Count,
		RentalStart: res.RentalStart,
		RentalEnd:   res.RentalEnd,
		Status:      model.RentalActive,
		CreatedAt:   now,
		Transaction: &model.Transaction{
			InvoiceID:        newInvoiceID(),
			DvdTitle:         dvd.Title,
			RentalPeriodDays: days,
			PricePerDay:      decimal.NewFromFloat(dvd.RentalPricePerDay),
			LateFee:          decimal.Zero,
			TotalAmount:      BaseAmount(dvd.RentalPricePerDay, days, res.Count),
			GeneratedAt:      now,
			BillType:         model.BillInvoice,
		},
	}
}

func newInvoiceID() string {
	return "INV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
