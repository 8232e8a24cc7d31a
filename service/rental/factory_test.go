package rental

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dvdrental/model"
)

func TestNewFromReservation(t *testing.T) {
	start := day(2024, 3, 1)
	end := start.AddDate(0, 0, 7)
	now := time.Now().UTC()

	res := &model.Reservation{
		ID:          11,
		UserID:      3,
		DvdID:       9,
		Count:       1,
		RentalStart: start,
		RentalEnd:   end,
		Status:      model.ReservationPending,
	}
	dvd := &model.Dvd{ID: 9, Title: "Alien", RentalPricePerDay: 4.00}

	rental := NewFromReservation(res, dvd, now)

	require.Equal(t, model.RentalActive, rental.Status)
	require.Equal(t, int64(3), rental.UserID)
	require.Equal(t, int64(9), rental.DvdID)
	require.Equal(t, 1, rental.Count)
	require.Equal(t, start, rental.RentalStart)
	require.Equal(t, end, rental.RentalEnd)
	require.Equal(t, now, rental.CreatedAt)

	txn := rental.Transaction
	require.NotNil(t, txn)
	require.Equal(t, model.BillInvoice, txn.BillType)
	require.Equal(t, "Alien", txn.DvdTitle)
	require.Equal(t, 7, txn.RentalPeriodDays)
	require.True(t, txn.LateFee.IsZero())
	// price x period days x count
	require.True(t, txn.TotalAmount.Equal(decimal.NewFromInt(28)), "total %s", txn.TotalAmount)
	require.Regexp(t, `^INV-[0-9A-F]{8}$`, txn.InvoiceID)
}

func TestNewFromReservation_MultipleCopies(t *testing.T) {
	start := day(2024, 5, 10)
	res := &model.Reservation{
		UserID: 1, DvdID: 2, Count: 3,
		RentalStart: start,
		RentalEnd:   start.AddDate(0, 0, 2),
	}
	rental := NewFromReservation(res, &model.Dvd{Title: "Ran", RentalPricePerDay: 6}, time.Now().UTC())

	require.Equal(t, 3, rental.Count)
	require.True(t, rental.Transaction.TotalAmount.Equal(decimal.NewFromInt(36)))
}

func TestNewInvoiceID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newInvoiceID()
		require.False(t, seen[id], "duplicate invoice id %s", id)
		seen[id] = true
	}
}
