package reservation

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"dvdrental/model"
	"dvdrental/service/availability"
	rentalsvc "dvdrental/service/rental"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrBadInput     ErrCode = "INVALID_INPUT"
	ErrInvalidState ErrCode = "INVALID_STATE"
	ErrNotOwner     ErrCode = "NOT_OWNER"
	ErrNotRentable  ErrCode = "DVD_NOT_RENTABLE"
	ErrNoCopies     ErrCode = "INSUFFICIENT_COPIES"
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

// dto

type CreateReq struct {
	DvdID       int64
	Count       int
	RentalStart time.Time
	RentalEnd   time.Time
}

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) (int64, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error)
	UpdateStatusFrom(ctx context.Context, tx *sql.Tx, id int64, from, to model.ReservationStatus) (bool, error)
	ListByUser(ctx context.Context, userID int64, status *model.ReservationStatus) ([]model.Reservation, error)
	ListAll(ctx context.Context, status *model.ReservationStatus) ([]model.Reservation, error)
}

type DvdRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Dvd, error)
}

type UserRepo interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type RentalWriter interface {
	Insert(ctx context.Context, tx *sql.Tx, rental *model.Rental) (int64, error)
}

type Service interface {
	// Create: validate and persist a PENDING reservation, taking the copies
	// out of availability in the same transaction.
	Create(ctx context.Context, userID int64, req CreateReq) (*model.Reservation, error)

	// Accept: PENDING -> ACCEPTED; the only path that creates a rental.
	Accept(ctx context.Context, reservationID int64) (*model.Rental, error)

	// Decline: PENDING -> REJECTED, copies restored.
	Decline(ctx context.Context, reservationID int64) error

	// Cancel: requester-initiated PENDING -> CANCELLED, copies restored.
	Cancel(ctx context.Context, userID, reservationID int64) error

	MyReservations(ctx context.Context, userID int64, filter string) ([]model.Reservation, error)
	AllReservations(ctx context.Context, filter string) ([]model.Reservation, error)
}

type service struct {
	db      *sql.DB
	r       Repo
	dvds    DvdRepo
	users   UserRepo
	rentals RentalWriter
	ledger  availability.Ledger
	v       *Validator
	log     *slog.Logger
}

func New(db *sql.DB, r Repo, dvds DvdRepo, users UserRepo, rentals RentalWriter,
	ledger availability.Ledger, log *slog.Logger) Service {
	return &service{
		db: db, r: r, dvds: dvds, users: users, rentals: rentals,
		ledger: ledger, v: NewValidator(), log: log,
	}
}

func (s *service) Create(ctx context.Context, userID int64, req CreateReq) (res *model.Reservation, err error) {
	if req.Count <= 0 || req.RentalStart.After(req.RentalEnd) {
		return nil, makeErr(ErrBadInput)
	}

	if _, err = s.users.ByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	dvd, err := s.dvds.GetForUpdate(ctx, tx, req.DvdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	if err = s.v.ValidateAvailability(dvd); err != nil {
		return nil, err
	}
	if err = s.v.ValidateCopyCount(req.Count, dvd); err != nil {
		return nil, err
	}

	if err = s.ledger.Decrease(ctx, tx, dvd.ID, req.Count); err != nil {
		return nil, err
	}

	res = &model.Reservation{
		UserID:      userID,
		DvdID:       dvd.ID,
		Count:       req.Count,
		RentalStart: req.RentalStart,
		RentalEnd:   req.RentalEnd,
		Status:      model.ReservationPending,
		CreatedAt:   time.Now().UTC(),
	}
	if res.ID, err = s.r.Insert(ctx, tx, res); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("reservation created",
		"reservation_id", res.ID, "user_id", userID, "dvd_id", dvd.ID, "count", req.Count)
	return res, nil
}

func (s *service) Accept(ctx context.Context, reservationID int64) (rental *model.Rental, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := s.r.GetForUpdate(ctx, tx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if res.Status != model.ReservationPending {
		return nil, makeErr(ErrInvalidState)
	}

	dvd, err := s.dvds.GetForUpdate(ctx, tx, res.DvdID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	rental = rentalsvc.NewFromReservation(res, dvd, time.Now().UTC())
	if rental.ID, err = s.rentals.Insert(ctx, tx, rental); err != nil {
		return nil, err
	}

	ok, err := s.r.UpdateStatusFrom(ctx, tx, reservationID, model.ReservationPending, model.ReservationAccepted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrInvalidState)
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.log.Info("reservation accepted",
		"reservation_id", reservationID, "rental_id", rental.ID,
		"invoice_id", rental.Transaction.InvoiceID)
	return rental, nil
}

func (s *service) Decline(ctx context.Context, reservationID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := s.r.GetForUpdate(ctx, tx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if res.Status != model.ReservationPending {
		return makeErr(ErrInvalidState)
	}

	if err = s.ledger.Increase(ctx, tx, res.DvdID, res.Count); err != nil {
		return err
	}
	ok, err := s.r.UpdateStatusFrom(ctx, tx, reservationID, model.ReservationPending, model.ReservationRejected)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrInvalidState)
	}
	return tx.Commit()
}

func (s *service) Cancel(ctx context.Context, userID, reservationID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := s.r.GetForUpdate(ctx, tx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if err = s.v.ValidateCancellation(res, userID); err != nil {
		return err
	}

	if err = s.ledger.Increase(ctx, tx, res.DvdID, res.Count); err != nil {
		return err
	}
	ok, err := s.r.UpdateStatusFrom(ctx, tx, reservationID, model.ReservationPending, model.ReservationCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrInvalidState)
	}
	return tx.Commit()
}

func (s *service) MyReservations(ctx context.Context, userID int64, filter string) ([]model.Reservation, error) {
	status, err := parseStatusFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.r.ListByUser(ctx, userID, status)
}

func (s *service) AllReservations(ctx context.Context, filter string) ([]model.Reservation, error) {
	status, err := parseStatusFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.r.ListAll(ctx, status)
}

func parseStatusFilter(filter string) (*model.ReservationStatus, error) {
	if filter == "" {
		return nil, nil
	}
	switch status := model.ReservationStatus(filter); status {
	case model.ReservationPending, model.ReservationAccepted,
		model.ReservationRejected, model.ReservationCancelled:
		return &status, nil
	default:
		return nil, makeErr(ErrBadInput)
	}
}
