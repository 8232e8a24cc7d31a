package rental

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dvdrental/model"
)

func day(yy int, mm time.Month, dd int) time.Time {
	return time.Date(yy, mm, dd, 0, 0, 0, 0, time.UTC)
}

func TestPeriodDays(t *testing.T) {
	start := day(2024, 3, 1)

	require.Equal(t, 7, PeriodDays(start, start.Add(7*24*time.Hour)))
	// one hour into the next day charges a full day
	require.Equal(t, 8, PeriodDays(start, start.Add(7*24*time.Hour+time.Hour)))
	require.Equal(t, 1, PeriodDays(start, start.Add(time.Hour)))
	require.Equal(t, 0, PeriodDays(start, start))
	require.Equal(t, 0, PeriodDays(start, start.Add(-24*time.Hour)))
}

func TestBaseAmount(t *testing.T) {
	got := BaseAmount(5.00, 7, 2)
	require.True(t, got.Equal(decimal.NewFromInt(70)), "got %s", got)
}

func TestLateFee_OnTime(t *testing.T) {
	end := day(2024, 3, 8)

	require.True(t, LateFee(5.00, end, end).IsZero())
	require.True(t, LateFee(5.00, end, end.AddDate(0, 0, -2)).IsZero())
	// same calendar day, later clock time: still on time
	require.True(t, LateFee(5.00, end, end.Add(23*time.Hour)).IsZero())
}

func TestLateFee_Overdue(t *testing.T) {
	end := day(2024, 3, 8)
	ret := end.AddDate(0, 0, 5)

	// 5 days x 5.00 x 10
	got := LateFee(5.00, end, ret)
	require.True(t, got.Equal(decimal.NewFromInt(250)), "got %s", got)
}

func TestLateFee_Deterministic(t *testing.T) {
	end := day(2024, 3, 8)
	ret := end.AddDate(0, 0, 3)

	first := LateFee(7.50, end, ret)
	for i := 0; i < 10; i++ {
		require.True(t, first.Equal(LateFee(7.50, end, ret)))
	}
}

func TestGenerateTransaction(t *testing.T) {
	start := day(2024, 3, 1)
	end := start.AddDate(0, 0, 7)
	ret := end.AddDate(0, 0, 5)
	now := ret.Add(2 * time.Hour)

	rental := &model.Rental{
		ID:          1,
		Count:       1,
		RentalStart: start,
		RentalEnd:   end,
		Status:      model.RentalReturnRequested,
		ReturnedAt:  &ret,
	}
	dvd := &model.Dvd{ID: 9, Title: "Heat", RentalPricePerDay: 5.00}

	txn, err := GenerateTransaction(rental, dvd, now)
	require.NoError(t, err)
	require.Equal(t, model.BillReceipt, txn.BillType)
	require.Equal(t, "Heat", txn.DvdTitle)
	require.Equal(t, 7, txn.RentalPeriodDays)
	require.True(t, txn.LateFee.Equal(decimal.NewFromInt(250)), "late fee %s", txn.LateFee)
	// 7 days x 5.00 + 250.00 late fee
	require.True(t, txn.TotalAmount.Equal(decimal.NewFromInt(285)), "total %s", txn.TotalAmount)
	require.Equal(t, now, txn.GeneratedAt)
	require.Regexp(t, `^INV-[0-9A-F]{8}$`, txn.InvoiceID)
}

func TestGenerateTransaction_MissingReturnDate(t *testing.T) {
	rental := &model.Rental{ID: 1, Count: 1, Status: model.RentalReturnRequested}
	_, err := GenerateTransaction(rental, &model.Dvd{}, time.Now())
	require.Error(t, err)
	require.Equal(t, ErrComputation, Code(err))
}

func TestGenerateTransaction_NonNegativeFee(t *testing.T) {
	start := day(2024, 3, 1)
	end := start.AddDate(0, 0, 3)
	ret := start // returned long before due date

	rental := &model.Rental{ID: 1, Count: 2, RentalStart: start, RentalEnd: end, ReturnedAt: &ret}
	txn, err := GenerateTransaction(rental, &model.Dvd{Title: "x", RentalPricePerDay: 4}, time.Now())
	require.NoError(t, err)
	require.False(t, txn.LateFee.IsNegative())
}
