package availability

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

// errors used by callers

type ErrCode string

const (
	ErrInvalidCount ErrCode = "INVALID_COUNT"
	ErrInsufficient ErrCode = "INSUFFICIENT_AVAILABILITY"
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

// Repo is the slice of the dvd repository the ledger drives.
type Repo interface {
	DecreaseCopies(ctx context.Context, tx *sql.Tx, dvdID int64, count int) (bool, error)
	IncreaseCopies(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error
}

// Ledger owns the per-DVD available-copy counter. Both operations run inside
// the caller's transaction so the counter moves together with the status
// change that caused it.
type Ledger interface {
	Decrease(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error
	Increase(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error
}

type ledger struct {
	r   Repo
	log *slog.Logger
}

func New(r Repo, log *slog.Logger) Ledger { return &ledger{r: r, log: log} }

func (l *ledger) Decrease(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error {
	if count <= 0 {
		return makeErr(ErrInvalidCount)
	}
	ok, err := l.r.DecreaseCopies(ctx, tx, dvdID, count)
	if err != nil {
		return err
	}
	if !ok {
		l.log.Warn("availability decrease rejected", "dvd_id", dvdID, "count", count)
		return makeErr(ErrInsufficient)
	}
	l.log.Debug("availability decreased", "dvd_id", dvdID, "count", count)
	return nil
}

func (l *ledger) Increase(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error {
	if count <= 0 {
		return makeErr(ErrInvalidCount)
	}
	if err := l.r.IncreaseCopies(ctx, tx, dvdID, count); err != nil {
		return err
	}
	l.log.Debug("availability increased", "dvd_id", dvdID, "count", count)
	return nil
}
