package rental

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"dvdrental/model"
	"dvdrental/service/availability"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrNotOwner     ErrCode = "NOT_OWNER"
	ErrInvalidState ErrCode = "INVALID_STATE"
	ErrComputation  ErrCode = "COMPUTATION_ERROR"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error)
	UpdateStatusFrom(ctx context.Context, tx *sql.Tx, id int64, from, to model.RentalStatus) (bool, error)
	CompleteReturn(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time, txn *model.Transaction) (bool, error)
	FindExpiredActive(ctx context.Context, now time.Time) ([]model.Rental, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Rental, error)
	ListByStatus(ctx context.Context, status model.RentalStatus) ([]model.Rental, error)
	ListTransactionsByUser(ctx context.Context, userID int64) ([]model.Transaction, error)
}

type DvdRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Dvd, error)
}

// Notifier is told when copies of a DVD come back into stock. Delivery is
// best effort and happens after commit.
type Notifier interface {
	DvdAvailable(ctx context.Context, dvd *model.Dvd)
}

type Service interface {
	// RequestReturn: renter asks to give the copies back (ACTIVE -> RETURN_REQUESTED).
	RequestReturn(ctx context.Context, userID, rentalID int64) error

	// AcceptReturn: admin finalizes the return, replacing the provisional
	// invoice with the receipt and restoring availability. Terminal.
	AcceptReturn(ctx context.Context, rentalID int64) error

	// DeclineReturn: admin reverts a requested return to ACTIVE.
	DeclineReturn(ctx context.Context, rentalID int64) error

	MyRentals(ctx context.Context, userID int64) ([]model.Rental, error)
	ReturnRequests(ctx context.Context) ([]model.Rental, error)
	MyTransactions(ctx context.Context, userID int64) ([]model.Transaction, error)
}

type service struct {
	db     *sql.DB
	r      Repo
	dvds   DvdRepo
	ledger availability.Ledger
	notify Notifier
	log    *slog.Logger
}

func New(db *sql.DB, r Repo, dvds DvdRepo, ledger availability.Ledger, notify Notifier, log *slog.Logger) Service {
	return &service{db: db, r: r, dvds: dvds, ledger: ledger, notify: notify, log: log}
}

func (s *service) RequestReturn(ctx context.Context, userID, rentalID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rental, err := s.r.GetForUpdate(ctx, tx, rentalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if rental.UserID != userID {
		return makeErr(ErrNotOwner)
	}
	if rental.Status != model.RentalActive {
		return makeErr(ErrInvalidState)
	}

	ok, err := s.r.UpdateStatusFrom(ctx, tx, rentalID, model.RentalActive, model.RentalReturnRequested)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrInvalidState)
	}
	return tx.Commit()
}

func (s *service) AcceptReturn(ctx context.Context, rentalID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rental, err := s.r.GetForUpdate(ctx, tx, rentalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if rental.Status != model.RentalReturnRequested {
		return makeErr(ErrInvalidState)
	}

	dvd, err := s.dvds.GetForUpdate(ctx, tx, rental.DvdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}

	now := time.Now().UTC()
	rental.ReturnedAt = &now
	txn, err := GenerateTransaction(rental, dvd, now)
	if err != nil {
		return err
	}

	ok, err := s.r.CompleteReturn(ctx, tx, rentalID, now, txn)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrInvalidState)
	}

	if err = s.ledger.Increase(ctx, tx, rental.DvdID, rental.Count); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.log.Info("rental returned",
		"rental_id", rentalID,
		"invoice_id", txn.InvoiceID,
		"late_fee", txn.LateFee.String(),
		"total", txn.TotalAmount.String(),
	)
	if s.notify != nil {
		s.notify.DvdAvailable(ctx, dvd)
	}
	return nil
}

func (s *service) DeclineReturn(ctx context.Context, rentalID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rental, err := s.r.GetForUpdate(ctx, tx, rentalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if rental.Status != model.RentalReturnRequested {
		return makeErr(ErrInvalidState)
	}

	ok, err := s.r.UpdateStatusFrom(ctx, tx, rentalID, model.RentalReturnRequested, model.RentalActive)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrInvalidState)
	}
	return tx.Commit()
}

func (s *service) MyRentals(ctx context.Context, userID int64) ([]model.Rental, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) ReturnRequests(ctx context.Context) ([]model.Rental, error) {
	return s.r.ListByStatus(ctx, model.RentalReturnRequested)
}

func (s *service) MyTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return s.r.ListTransactionsByUser(ctx, userID)
}
