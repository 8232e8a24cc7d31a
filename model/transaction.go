// model/transaction.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BillType string

const (
	BillInvoice BillType = "INVOICE"
	BillReceipt BillType = "RECEIPT"
)

// Transaction is the financial record attached to a rental. The one written
// at rental start is provisional (zero late fee, INVOICE); accepting the
// return replaces it with the finalized RECEIPT.
type Transaction struct {
	InvoiceID        string          `json:"invoice_id"`
	DvdTitle         string          `json:"dvd_title"`
	RentalPeriodDays int             `json:"rental_period_days"`
	PricePerDay      decimal.Decimal `json:"price_per_day"`
	LateFee          decimal.Decimal `json:"late_fee"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	GeneratedAt      time.Time       `json:"generated_at"`
	BillType         BillType        `json:"bill_type"`
}
