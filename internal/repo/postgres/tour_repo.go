package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailhead/tours/internal/domain"
)

// TourRepository is the narrow slice of the tours table this service
// owns: the two derived rating columns. Everything else on a tour is
// catalog data and is never touched here.
type TourRepository interface {
	UpdateRatings(ctx context.Context, ratings domain.TourRatings) error
	GetRatings(ctx context.Context, tourID int64) (*domain.TourRatings, error)
}

type tourRepository struct {
	pool *pgxpool.Pool
}

func NewTourRepository(pool *pgxpool.Pool) TourRepository {
	return &tourRepository{pool: pool}
}

// UpdateRatings writes exactly the two aggregate columns. A missing
// tour is not an error: rating bookkeeping for a deleted tour is moot.
func (r *tourRepository) UpdateRatings(ctx context.Context, ratings domain.TourRatings) error {
	const q = `
		UPDATE tours
		SET ratings_quantity = $2, ratings_average = $3, updated_at = now()
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, ratings.TourID, ratings.Quantity, ratings.Average)
	return err
}

func (r *tourRepository) GetRatings(ctx context.Context, tourID int64) (*domain.TourRatings, error) {
	const q = `SELECT id, ratings_quantity, ratings_average FROM tours WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.TourRatings
	err := r.pool.QueryRow(ctx, q, tourID).Scan(&t.TourID, &t.Quantity, &t.Average)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
