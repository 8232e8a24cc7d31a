package rental

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dvdrental/model"
)

func TestSweepExpired(t *testing.T) {
	db, mock := newMockDB(t)
	// one transaction per expired rental; the middle one fails and rolls back
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	expired := []model.Rental{
		{ID: 1, Status: model.RentalActive},
		{ID: 2, Status: model.RentalActive},
		{ID: 3, Status: model.RentalActive},
	}
	r := &repoMock{
		findExpiredActive: func(context.Context, time.Time) ([]model.Rental, error) {
			return expired, nil
		},
		updateStatusFrom: func(_ context.Context, _ *sql.Tx, id int64, _, _ model.RentalStatus) (bool, error) {
			if id == 2 {
				return false, errors.New("deadlock detected")
			}
			return true, nil
		},
	}
	s := NewSweeper(db, r, testLogger())

	sum, err := s.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, &SweepSummary{Total: 3, Succeeded: 2, Failed: 1}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepExpired_NothingDue(t *testing.T) {
	db, mock := newMockDB(t)

	r := &repoMock{
		findExpiredActive: func(context.Context, time.Time) ([]model.Rental, error) {
			return nil, nil
		},
	}
	s := NewSweeper(db, r, testLogger())

	sum, err := s.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, &SweepSummary{}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A rental that advanced between the lookup and the update counts as failed,
// not as a second state change.
func TestSweepExpired_RacedWithManualRequest(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	r := &repoMock{
		findExpiredActive: func(context.Context, time.Time) ([]model.Rental, error) {
			return []model.Rental{{ID: 5, Status: model.RentalActive}}, nil
		},
		updateStatusFrom: func(context.Context, *sql.Tx, int64, model.RentalStatus, model.RentalStatus) (bool, error) {
			return false, nil
		},
	}
	s := NewSweeper(db, r, testLogger())

	sum, err := s.SweepExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, &SweepSummary{Total: 1, Failed: 1}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}
