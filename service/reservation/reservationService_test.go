package reservation

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dvdrental/model"
)

type repoMock struct {
	insert           func(ctx context.Context, tx *sql.Tx, res *model.Reservation) (int64, error)
	getForUpdate     func(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error)
	updateStatusFrom func(ctx context.Context, tx *sql.Tx, id int64, from, to model.ReservationStatus) (bool, error)
	listByUser       func(ctx context.Context, userID int64, status *model.ReservationStatus) ([]model.Reservation, error)
	listAll          func(ctx context.Context, status *model.ReservationStatus) ([]model.Reservation, error)
}

func (m *repoMock) Insert(ctx context.Context, tx *sql.Tx, res *model.Reservation) (int64, error) {
	return m.insert(ctx, tx, res)
}
func (m *repoMock) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error) {
	return m.getForUpdate(ctx, tx, id)
}
func (m *repoMock) UpdateStatusFrom(ctx context.Context, tx *sql.Tx, id int64, from, to model.ReservationStatus) (bool, error) {
	return m.updateStatusFrom(ctx, tx, id, from, to)
}
func (m *repoMock) ListByUser(ctx context.Context, userID int64, status *model.ReservationStatus) ([]model.Reservation, error) {
	return m.listByUser(ctx, userID, status)
}
func (m *repoMock) ListAll(ctx context.Context, status *model.ReservationStatus) ([]model.Reservation, error) {
	return m.listAll(ctx, status)
}

type dvdRepoMock struct {
	getForUpdate func(ctx context.Context, tx *sql.Tx, id int64) (*model.Dvd, error)
}

func (m *dvdRepoMock) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Dvd, error) {
	return m.getForUpdate(ctx, tx, id)
}

type userRepoMock struct {
	byID func(ctx context.Context, id int64) (*model.User, error)
}

func (m *userRepoMock) ByID(ctx context.Context, id int64) (*model.User, error) {
	return m.byID(ctx, id)
}

type rentalWriterMock struct {
	insert func(ctx context.Context, tx *sql.Tx, rental *model.Rental) (int64, error)
}

func (m *rentalWriterMock) Insert(ctx context.Context, tx *sql.Tx, rental *model.Rental) (int64, error) {
	return m.insert(ctx, tx, rental)
}

type ledgerMock struct {
	decrease func(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error
	increase func(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error
}

func (m *ledgerMock) Decrease(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error {
	return m.decrease(ctx, tx, dvdID, count)
}
func (m *ledgerMock) Increase(ctx context.Context, tx *sql.Tx, dvdID int64, count int) error {
	return m.increase(ctx, tx, dvdID, count)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func knownUser(_ context.Context, id int64) (*model.User, error) {
	return &model.User{ID: id, Email: "renter@example.com"}, nil
}

func window(days int) (time.Time, time.Time) {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, days)
}

func TestCreate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var decreased int
	ledger := &ledgerMock{
		decrease: func(_ context.Context, _ *sql.Tx, dvdID int64, count int) error {
			require.Equal(t, int64(9), dvdID)
			decreased = count
			return nil
		},
	}
	var inserted *model.Reservation
	r := &repoMock{
		insert: func(_ context.Context, _ *sql.Tx, res *model.Reservation) (int64, error) {
			inserted = res
			return 42, nil
		},
	}
	dvds := &dvdRepoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Dvd, error) {
			return &model.Dvd{ID: id, Available: true, CopiesAvailable: 3, TotalCopies: 5}, nil
		},
	}
	s := New(db, r, dvds, &userRepoMock{byID: knownUser}, nil, ledger, testLogger())

	start, end := window(7)
	res, err := s.Create(context.Background(), 3, CreateReq{DvdID: 9, Count: 2, RentalStart: start, RentalEnd: end})
	require.NoError(t, err)

	require.Equal(t, int64(42), res.ID)
	require.Equal(t, model.ReservationPending, res.Status)
	require.Equal(t, 2, decreased)
	require.Equal(t, inserted, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_BadInput(t *testing.T) {
	db, _ := newMockDB(t)
	s := New(db, nil, nil, nil, nil, nil, testLogger())
	start, end := window(7)

	_, err := s.Create(context.Background(), 3, CreateReq{DvdID: 9, Count: 0, RentalStart: start, RentalEnd: end})
	require.Equal(t, ErrBadInput, Code(err))

	_, err = s.Create(context.Background(), 3, CreateReq{DvdID: 9, Count: 1, RentalStart: end, RentalEnd: start})
	require.Equal(t, ErrBadInput, Code(err))
}

func TestCreate_UnknownDvd(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	dvds := &dvdRepoMock{
		getForUpdate: func(context.Context, *sql.Tx, int64) (*model.Dvd, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := New(db, nil, dvds, &userRepoMock{byID: knownUser}, nil, nil, testLogger())

	start, end := window(7)
	_, err := s.Create(context.Background(), 3, CreateReq{DvdID: 404, Count: 1, RentalStart: start, RentalEnd: end})
	require.Equal(t, ErrNotFound, Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NotRentable(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	dvds := &dvdRepoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Dvd, error) {
			return &model.Dvd{ID: id, Available: false, CopiesAvailable: 0}, nil
		},
	}
	s := New(db, nil, dvds, &userRepoMock{byID: knownUser}, nil, nil, testLogger())

	start, end := window(7)
	_, err := s.Create(context.Background(), 3, CreateReq{DvdID: 9, Count: 1, RentalStart: start, RentalEnd: end})
	require.Equal(t, ErrNotRentable, Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

// Two requests for two copies each against a three-copy title: the first
// takes its copies, the second sees only one left and fails without touching
// the ledger.
func TestCreate_CompetingRequests(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	copies := 3
	ledger := &ledgerMock{
		decrease: func(_ context.Context, _ *sql.Tx, _ int64, count int) error {
			copies -= count
			return nil
		},
	}
	r := &repoMock{
		insert: func(context.Context, *sql.Tx, *model.Reservation) (int64, error) { return 1, nil },
	}
	dvds := &dvdRepoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Dvd, error) {
			return &model.Dvd{ID: id, Available: copies > 0, CopiesAvailable: copies, TotalCopies: 3}, nil
		},
	}
	s := New(db, r, dvds, &userRepoMock{byID: knownUser}, nil, ledger, testLogger())

	start, end := window(7)
	req := CreateReq{DvdID: 9, Count: 2, RentalStart: start, RentalEnd: end}

	_, err := s.Create(context.Background(), 3, req)
	require.NoError(t, err)

	_, err = s.Create(context.Background(), 4, req)
	require.Equal(t, ErrNoCopies, Code(err))
	require.Equal(t, 1, copies)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccept(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	start, end := window(7)
	r := &repoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Reservation, error) {
			return &model.Reservation{
				ID: id, UserID: 3, DvdID: 9, Count: 2,
				RentalStart: start, RentalEnd: end,
				Status: model.ReservationPending,
			}, nil
		},
		updateStatusFrom: func(_ context.Context, _ *sql.Tx, _ int64, from, to model.ReservationStatus) (bool, error) {
			require.Equal(t, model.ReservationPending, from)
			require.Equal(t, model.ReservationAccepted, to)
			return true, nil
		},
	}
	dvds := &dvdRepoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Dvd, error) {
			return &model.Dvd{ID: id, Title: "Alien", RentalPricePerDay: 4.00, Available: true}, nil
		},
	}
	rentals := &rentalWriterMock{
		insert: func(_ context.Context, _ *sql.Tx, rental *model.Rental) (int64, error) {
			return 77, nil
		},
	}
	s := New(db, r, dvds, nil, rentals, nil, testLogger())

	rental, err := s.Accept(context.Background(), 42)
	require.NoError(t, err)

	require.Equal(t, int64(77), rental.ID)
	require.Equal(t, model.RentalActive, rental.Status)
	require.Equal(t, int64(3), rental.UserID)
	require.Equal(t, 2, rental.Count)

	txn := rental.Transaction
	require.NotNil(t, txn)
	require.Equal(t, model.BillInvoice, txn.BillType)
	require.Equal(t, 7, txn.RentalPeriodDays)
	require.True(t, txn.TotalAmount.Equal(decimal.NewFromInt(56)), "total %s", txn.TotalAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccept_NotPending(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	r := &repoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Reservation, error) {
			return &model.Reservation{ID: id, Status: model.ReservationCancelled}, nil
		},
	}
	s := New(db, r, nil, nil, nil, nil, testLogger())

	_, err := s.Accept(context.Background(), 42)
	require.Equal(t, ErrInvalidState, Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecline(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var restored int
	ledger := &ledgerMock{
		increase: func(_ context.Context, _ *sql.Tx, dvdID int64, count int) error {
			require.Equal(t, int64(9), dvdID)
			restored = count
			return nil
		},
	}
	r := &repoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UserID: 3, DvdID: 9, Count: 2, Status: model.ReservationPending}, nil
		},
		updateStatusFrom: func(_ context.Context, _ *sql.Tx, _ int64, from, to model.ReservationStatus) (bool, error) {
			require.Equal(t, model.ReservationRejected, to)
			return true, nil
		},
	}
	s := New(db, r, nil, nil, nil, ledger, testLogger())

	require.NoError(t, s.Decline(context.Background(), 42))
	require.Equal(t, 2, restored)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var restored int
	ledger := &ledgerMock{
		increase: func(_ context.Context, _ *sql.Tx, _ int64, count int) error {
			restored = count
			return nil
		},
	}
	r := &repoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UserID: 3, DvdID: 9, Count: 1, Status: model.ReservationPending}, nil
		},
		updateStatusFrom: func(_ context.Context, _ *sql.Tx, _ int64, from, to model.ReservationStatus) (bool, error) {
			require.Equal(t, model.ReservationCancelled, to)
			return true, nil
		},
	}
	s := New(db, r, nil, nil, nil, ledger, testLogger())

	require.NoError(t, s.Cancel(context.Background(), 3, 42))
	require.Equal(t, 1, restored)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_NotOwner(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	ledger := &ledgerMock{
		increase: func(context.Context, *sql.Tx, int64, int) error {
			t.Fatal("availability must not change for a non-owner")
			return nil
		},
	}
	r := &repoMock{
		getForUpdate: func(_ context.Context, _ *sql.Tx, id int64) (*model.Reservation, error) {
			return &model.Reservation{ID: id, UserID: 3, DvdID: 9, Count: 1, Status: model.ReservationPending}, nil
		},
	}
	s := New(db, r, nil, nil, nil, ledger, testLogger())

	err := s.Cancel(context.Background(), 99, 42)
	require.Equal(t, ErrNotOwner, Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseStatusFilter(t *testing.T) {
	status, err := parseStatusFilter("")
	require.NoError(t, err)
	require.Nil(t, status)

	status, err = parseStatusFilter("PENDING")
	require.NoError(t, err)
	require.Equal(t, model.ReservationPending, *status)

	_, err = parseStatusFilter("EXPIRED")
	require.Equal(t, ErrBadInput, Code(err))
}
