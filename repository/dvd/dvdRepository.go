// repository/dvd/repo.go
package dvdrepo

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"dvdrental/model"
)

type Repo interface {
	Create(ctx context.Context, title, genre string, pricePerDay float64, copies int) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Dvd, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Dvd, error)
	List(ctx context.Context) ([]model.Dvd, error)

	// DecreaseCopies runs the guarded decrement; false means the guard
	// (copies_available >= count) rejected the update.
	DecreaseCopies(ctx context.Context, tx *sql.Tx, dvdID int64, count int) (bool, error)
	IncreaseCopies(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const dvdColumns = `id, title, genre, rental_price_per_day, available, copies_available, total_copies`

func (r *repo) Create(ctx context.Context, title, genre string, pricePerDay float64, copies int) (int64, error) {
	const q = `
		INSERT INTO dvds (title, genre, rental_price_per_day, available, copies_available, total_copies)
		VALUES ($1, $2, $3, $4 > 0, $4, $4)
		RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, title, genre, pricePerDay, copies).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "insert dvd")
	}
	return id, nil
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Dvd, error) {
	const q = `SELECT ` + dvdColumns + ` FROM dvds WHERE id = $1`
	return scanDvd(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Dvd, error) {
	const q = `SELECT ` + dvdColumns + ` FROM dvds WHERE id = $1 FOR UPDATE`
	return scanDvd(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) List(ctx context.Context) ([]model.Dvd, error) {
	const q = `SELECT ` + dvdColumns + ` FROM dvds ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list dvds")
	}
	defer rows.Close()

	var out []model.Dvd
	for rows.Next() {
		var d model.Dvd
		if err := rows.Scan(&d.ID, &d.Title, &d.Genre, &d.RentalPricePerDay,
			&d.Available, &d.CopiesAvailable, &d.TotalCopies); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DecreaseCopies serializes concurrent reservations on the same row: the
// WHERE guard keeps copies_available from ever going negative.
func (r *repo) DecreaseCopies(ctx context.Context, tx *sql.Tx, dvdID int64, count int) (bool, error) {
	const q = `
		UPDATE dvds
		SET copies_available = copies_available - $2,
		    available = copies_available - $2 > 0
		WHERE id = $1
		  AND copies_available >= $2`
	res, err := tx.ExecContext(ctx, q, dvdID, count)
	if err != nil {
		return false, errors.Wrap(err, "decrease copies")
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff > 0, nil
}

func (r *repo) IncreaseCopies(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error {
	// LEAST keeps copies_available within total_copies.
	const q = `
		UPDATE dvds
		SET copies_available = LEAST(copies_available + $2, total_copies),
		    available = TRUE
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, dvdID, count)
	return errors.Wrap(err, "increase copies")
}

func scanDvd(row *sql.Row) (*model.Dvd, error) {
	var d model.Dvd
	err := row.Scan(&d.ID, &d.Title, &d.Genre, &d.RentalPricePerDay,
		&d.Available, &d.CopiesAvailable, &d.TotalCopies)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
