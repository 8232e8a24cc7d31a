package rental

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"dvdrental/model"
)

// SweepSummary reports one batch of expired-rental processing.
type SweepSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Sweeper moves rentals past their due date into the return workflow
// (ACTIVE -> RETURN_REQUESTED). A failure on one rental never aborts the
// batch. A second run right after a clean sweep finds nothing: the statuses
// have already advanced.
type Sweeper interface {
	SweepExpired(ctx context.Context) (*SweepSummary, error)
}

type sweeper struct {
	db  *sql.DB
	r   Repo
	log *slog.Logger
}

func NewSweeper(db *sql.DB, r Repo, log *slog.Logger) Sweeper {
	return &sweeper{db: db, r: r, log: log}
}

func (s *sweeper) SweepExpired(ctx context.Context) (*SweepSummary, error) {
	expired, err := s.r.FindExpiredActive(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	sum := &SweepSummary{Total: len(expired)}
	for _, rental := range expired {
		if err := s.expireOne(ctx, rental.ID); err != nil {
			sum.Failed++
			s.log.Warn("expired rental not processed", "rental_id", rental.ID, "err", err)
			continue
		}
		sum.Succeeded++
	}

	s.log.Info("expired rental sweep finished",
		"total", sum.Total, "succeeded", sum.Succeeded, "failed", sum.Failed)
	return sum, nil
}

// expireOne runs its own transaction so one stuck rental cannot hold locks
// for the rest of the batch.
func (s *sweeper) expireOne(ctx context.Context, rentalID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ok, err := s.r.UpdateStatusFrom(ctx, tx, rentalID, model.RentalActive, model.RentalReturnRequested)
	if err != nil {
		return err
	}
	if !ok {
		// Raced with a manual return request; nothing left to do.
		return makeErr(ErrInvalidState)
	}
	return tx.Commit()
}

// Scheduler drives the sweeper on a fixed cadence. The same SweepExpired
// operation stays callable directly, so tests and the admin endpoint never
// wait on the clock.
type Scheduler struct {
	interval time.Duration
	s        Sweeper
	log      *slog.Logger
}

func NewScheduler(interval time.Duration, s Sweeper, log *slog.Logger) *Scheduler {
	return &Scheduler{interval: interval, s: s, log: log}
}

func (sc *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	sc.log.Info("rental sweep scheduler started", "interval", sc.interval.String())
	for {
		select {
		case <-ctx.Done():
			sc.log.Info("rental sweep scheduler stopped")
			return
		case <-ticker.C:
			if _, err := sc.s.SweepExpired(ctx); err != nil {
				sc.log.Error("rental sweep failed", "err", err)
			}
		}
	}
}
