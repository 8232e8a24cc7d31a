package dvdsvc

import (
	"context"
	"database/sql"
	"errors"

	"dvdrental/model"
)

type Repo interface {
	Create(ctx context.Context, title, genre string, pricePerDay float64, copies int) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Dvd, error)
	List(ctx context.Context) ([]model.Dvd, error)
}

type Service interface {
	Create(ctx context.Context, title, genre string, pricePerDay float64, copies int) (int64, error)
	Detail(ctx context.Context, id int64) (*model.Dvd, error)
	List(ctx context.Context) ([]model.Dvd, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, title, genre string, pricePerDay float64, copies int) (int64, error) {
	if title == "" || genre == "" || pricePerDay < 0 || copies < 0 {
		return 0, errors.New("invalid payload")
	}
	return s.r.Create(ctx, title, genre, pricePerDay, copies)
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Dvd, error) {
	d, err := s.r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (s *service) List(ctx context.Context) ([]model.Dvd, error) { return s.r.List(ctx) }
