package rental

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"dvdrental/model"
)

// LateFeeMultiplier scales the per-day price for every overdue day.
const LateFeeMultiplier = 10

// PeriodDays is the chargeable length of a rental window: the hour
// difference rounded up to whole days, never negative. An hour over the
// last full day charges another day; accepted business policy.
func PeriodDays(start, end time.Time) int {
	hours := end.Sub(start).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Ceil(hours / 24))
}

// BaseAmount = pricePerDay x periodDays x copyCount.
func BaseAmount(pricePerDay float64, periodDays, count int) decimal.Decimal {
	return decimal.NewFromFloat(pricePerDay).
		Mul(decimal.NewFromInt(int64(periodDays))).
		Mul(decimal.NewFromInt(int64(count)))
}

// LateFee compares due date and return date by calendar day; time of day
// does not matter. Zero when returned on time.
func LateFee(pricePerDay float64, rentalEnd, returnedAt time.Time) decimal.Decimal {
	overdue := overdueDays(rentalEnd, returnedAt)
	if overdue <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(pricePerDay).
		Mul(decimal.NewFromInt(int64(overdue))).
		Mul(decimal.NewFromInt(LateFeeMultiplier))
}

func overdueDays(rentalEnd, returnedAt time.Time) int {
	end := toDay(rentalEnd)
	ret := toDay(returnedAt)
	return int(ret.Sub(end).Hours() / 24)
}

func toDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GenerateTransaction composes the finalized receipt replacing the
// provisional invoice. Pure given its inputs.
func GenerateTransaction(rental *model.Rental, dvd *model.Dvd, now time.Time) (*model.Transaction, error) {
	if rental.ReturnedAt == nil {
		return nil, makeErr(ErrComputation)
	}
	if rental.Count <= 0 {
		return nil, makeErr(ErrComputation)
	}

	days := PeriodDays(rental.RentalStart, rental.RentalEnd)
	base := BaseAmount(dvd.RentalPricePerDay, days, rental.Count)
	fee := LateFee(dvd.RentalPricePerDay, rental.RentalEnd, *rental.ReturnedAt)

	return &model.Transaction{
		InvoiceID:        newInvoiceID(),
		DvdTitle:         dvd.Title,
		RentalPeriodDays: days,
		PricePerDay:      decimal.NewFromFloat(dvd.RentalPricePerDay),
		LateFee:          fee,
		TotalAmount:      base.Add(fee),
		GeneratedAt:      now,
		BillType:         model.BillReceipt,
	}, nil
}
