// repository/rental/repo.go
package rentalrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"dvdrental/model"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, rental *model.Rental) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Rental, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error)

	UpdateStatusFrom(ctx context.Context, tx *sql.Tx, id int64, from, to model.RentalStatus) (bool, error)

	// CompleteReturn finalizes a RETURN_REQUESTED rental: terminal status,
	// return timestamp and the receipt replacing the provisional invoice,
	// all in one guarded statement.
	CompleteReturn(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time, txn *model.Transaction) (bool, error)

	FindExpiredActive(ctx context.Context, now time.Time) ([]model.Rental, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Rental, error)
	ListByStatus(ctx context.Context, status model.RentalStatus) ([]model.Rental, error)
	ListTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const rentalColumns = `
	id, user_id, dvd_id, count, rental_start, rental_end, status, created_at, returned_at,
	invoice_id, dvd_title, rental_period_days, price_per_day, late_fee, total_amount, generated_at, bill_type`

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, rental *model.Rental) (int64, error) {
	const q = `
		INSERT INTO rentals (
			user_id, dvd_id, count, rental_start, rental_end, status, created_at,
			invoice_id, dvd_title, rental_period_days, price_per_day, late_fee, total_amount, generated_at, bill_type
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id`
	txn := rental.Transaction
	var id int64
	err := tx.QueryRowContext(ctx, q,
		rental.UserID, rental.DvdID, rental.Count, rental.RentalStart, rental.RentalEnd,
		rental.Status, rental.CreatedAt,
		txn.InvoiceID, txn.DvdTitle, txn.RentalPeriodDays, txn.PricePerDay,
		txn.LateFee, txn.TotalAmount, txn.GeneratedAt, txn.BillType,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert rental")
	}
	return id, nil
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Rental, error) {
	const q = `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	return scanRental(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error) {
	const q = `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1 FOR UPDATE`
	return scanRental(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) UpdateStatusFrom(ctx context.Context, tx *sql.Tx, id int64, from, to model.RentalStatus) (bool, error) {
	const q = `
		UPDATE rentals
		SET status = $3
		WHERE id = $1
		  AND status = $2`
	res, err := tx.ExecContext(ctx, q, id, from, to)
	if err != nil {
		return false, errors.Wrap(err, "update rental status")
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff > 0, nil
}

func (r *repo) CompleteReturn(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time, txn *model.Transaction) (bool, error) {
	const q = `
		UPDATE rentals
		SET status = $2,
		    returned_at = $3,
		    invoice_id = $4,
		    rental_period_days = $5,
		    price_per_day = $6,
		    late_fee = $7,
		    total_amount = $8,
		    generated_at = $9,
		    bill_type = $10
		WHERE id = $1
		  AND status = $11`
	res, err := tx.ExecContext(ctx, q, id,
		model.RentalInactive, returnedAt,
		txn.InvoiceID, txn.RentalPeriodDays, txn.PricePerDay,
		txn.LateFee, txn.TotalAmount, txn.GeneratedAt, txn.BillType,
		model.RentalReturnRequested,
	)
	if err != nil {
		return false, errors.Wrap(err, "complete return")
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff > 0, nil
}

func (r *repo) FindExpiredActive(ctx context.Context, now time.Time) ([]model.Rental, error) {
	const q = `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE status = $1
		  AND rental_end < $2
		ORDER BY rental_end`
	return r.queryList(ctx, q, model.RentalActive, now)
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Rental, error) {
	const q = `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 50`
	return r.queryList(ctx, q, userID)
}

func (r *repo) ListByStatus(ctx context.Context, status model.RentalStatus) ([]model.Rental, error) {
	const q = `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE status = $1
		ORDER BY created_at DESC, id DESC`
	return r.queryList(ctx, q, status)
}

func (r *repo) ListTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error) {
	const q = `
		SELECT invoice_id, dvd_title, rental_period_days, price_per_day, late_fee, total_amount, generated_at, bill_type
		FROM rentals
		WHERE user_id = $1
		  AND invoice_id IS NOT NULL
		ORDER BY generated_at DESC
		LIMIT 50`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.InvoiceID, &t.DvdTitle, &t.RentalPeriodDays,
			&t.PricePerDay, &t.LateFee, &t.TotalAmount, &t.GeneratedAt, &t.BillType); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repo) queryList(ctx context.Context, q string, args ...any) ([]model.Rental, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list rentals")
	}
	defer rows.Close()

	var out []model.Rental
	for rows.Next() {
		rental, err := scanRentalRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rental)
	}
	return out, rows.Err()
}

func scanRental(row *sql.Row) (*model.Rental, error) {
	var rental model.Rental
	var txn model.Transaction
	err := row.Scan(&rental.ID, &rental.UserID, &rental.DvdID, &rental.Count,
		&rental.RentalStart, &rental.RentalEnd, &rental.Status, &rental.CreatedAt, &rental.ReturnedAt,
		&txn.InvoiceID, &txn.DvdTitle, &txn.RentalPeriodDays, &txn.PricePerDay,
		&txn.LateFee, &txn.TotalAmount, &txn.GeneratedAt, &txn.BillType)
	if err != nil {
		return nil, err
	}
	rental.Transaction = &txn
	return &rental, nil
}

func scanRentalRows(rows *sql.Rows) (*model.Rental, error) {
	var rental model.Rental
	var txn model.Transaction
	err := rows.Scan(&rental.ID, &rental.UserID, &rental.DvdID, &rental.Count,
		&rental.RentalStart, &rental.RentalEnd, &rental.Status, &rental.CreatedAt, &rental.ReturnedAt,
		&txn.InvoiceID, &txn.DvdTitle, &txn.RentalPeriodDays, &txn.PricePerDay,
		&txn.LateFee, &txn.TotalAmount, &txn.GeneratedAt, &txn.BillType)
	if err != nil {
		return nil, err
	}
	rental.Transaction = &txn
	return &rental, nil
}
