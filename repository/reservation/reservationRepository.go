// repository/reservation/repo.go
package reservationrepo

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"dvdrental/model"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error)

	// UpdateStatusFrom is the atomic read-modify-write on status: the row is
	// touched only while it still holds the expected current status.
	UpdateStatusFrom(ctx context.Context, tx *sql.Tx, id int64, from, to model.ReservationStatus) (bool, error)

	ListByUser(ctx context.Context, userID int64, status *model.ReservationStatus) ([]model.Reservation, error)
	ListAll(ctx context.Context, status *model.ReservationStatus) ([]model.Reservation, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const resColumns = `id, user_id, dvd_id, count, rental_start, rental_end, status, created_at`

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) (int64, error) {
	const q = `
		INSERT INTO reservations (user_id, dvd_id, count, rental_start, rental_end, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, q,
		res.UserID, res.DvdID, res.Count, res.RentalStart, res.RentalEnd, res.Status, res.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert reservation")
	}
	return id, nil
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	const q = `SELECT ` + resColumns + ` FROM reservations WHERE id = $1`
	return scanReservation(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error) {
	const q = `SELECT ` + resColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	return scanReservation(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) UpdateStatusFrom(ctx context.Context, tx *sql.Tx, id int64, from, to model.ReservationStatus) (bool, error) {
	const q = `
		UPDATE reservations
		SET status = $3
		WHERE id = $1
		  AND status = $2`
	res, err := tx.ExecContext(ctx, q, id, from, to)
	if err != nil {
		return false, errors.Wrap(err, "update reservation status")
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff > 0, nil
}

func (r *repo) ListByUser(ctx context.Context, userID int64, status *model.ReservationStatus) ([]model.Reservation, error) {
	const q = `
		SELECT ` + resColumns + `
		FROM reservations
		WHERE user_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT 50`
	return r.queryList(ctx, q, userID, statusArg(status))
}

func (r *repo) ListAll(ctx context.Context, status *model.ReservationStatus) ([]model.Reservation, error) {
	const q = `
		SELECT ` + resColumns + `
		FROM reservations
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT 100`
	return r.queryList(ctx, q, statusArg(status))
}

func (r *repo) queryList(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list reservations")
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.DvdID, &res.Count,
			&res.RentalStart, &res.RentalEnd, &res.Status, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func statusArg(status *model.ReservationStatus) any {
	if status == nil {
		return nil
	}
	return string(*status)
}

func scanReservation(row *sql.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(&res.ID, &res.UserID, &res.DvdID, &res.Count,
		&res.RentalStart, &res.RentalEnd, &res.Status, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
