package reservation

import (
	"dvdrental/model"
)

// CheckKind keys the validation lookup table.
type CheckKind string

const (
	CheckDvdAvailability CheckKind = "DVD_AVAILABILITY"
	CheckCopyCount       CheckKind = "COPY_COUNT"
	CheckCancellation    CheckKind = "CANCELLATION"
)

// CheckInput carries whatever the individual checks need; each check reads
// only its own fields.
type CheckInput struct {
	Dvd         *model.Dvd
	Count       int
	Reservation *model.Reservation
	UserID      int64
}

type CheckFunc func(in CheckInput) error

// Validator runs side-effect-free precondition checks dispatched through an
// explicit table. Checks raise coded failures and never mutate state.
type Validator struct {
	checks map[CheckKind]CheckFunc
}

func NewValidator() *Validator {
	return &Validator{checks: map[CheckKind]CheckFunc{
		CheckDvdAvailability: checkDvdAvailability,
		CheckCopyCount:       checkCopyCount,
		CheckCancellation:    checkCancellation,
	}}
}

func (v *Validator) Run(kind CheckKind, in CheckInput) error {
	check, ok := v.checks[kind]
	if !ok {
		return makeErr(ErrBadInput)
	}
	return check(in)
}

func (v *Validator) ValidateAvailability(dvd *model.Dvd) error {
	return v.Run(CheckDvdAvailability, CheckInput{Dvd: dvd})
}

func (v *Validator) ValidateCopyCount(count int, dvd *model.Dvd) error {
	return v.Run(CheckCopyCount, CheckInput{Dvd: dvd, Count: count})
}

func (v *Validator) ValidateCancellation(res *model.Reservation, userID int64) error {
	return v.Run(CheckCancellation, CheckInput{Reservation: res, UserID: userID})
}

func checkDvdAvailability(in CheckInput) error {
	if in.Dvd == nil {
		return makeErr(ErrBadInput)
	}
	if !in.Dvd.Available {
		return makeErr(ErrNotRentable)
	}
	return nil
}

func checkCopyCount(in CheckInput) error {
	if in.Dvd == nil || in.Count <= 0 {
		return makeErr(ErrBadInput)
	}
	if in.Count > in.Dvd.CopiesAvailable {
		return makeErr(ErrNoCopies)
	}
	return nil
}

func checkCancellation(in CheckInput) error {
	if in.Reservation == nil {
		return makeErr(ErrBadInput)
	}
	if in.Reservation.Status != model.ReservationPending {
		return makeErr(ErrInvalidState)
	}
	if in.Reservation.UserID != in.UserID {
		return makeErr(ErrNotOwner)
	}
	return nil
}
