package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trailhead/tours/internal/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, tourID, authorID int64, req *domain.CreateReviewRequest) (*domain.Review, error)
	FindByID(ctx context.Context, id int64) (*domain.Review, error)
	ListByTour(ctx context.Context, tourID int64, limit, offset int) ([]domain.Review, error)
	UpdateByID(ctx context.Context, id int64, req *domain.UpdateReviewRequest) (*domain.Review, error)
	DeleteByID(ctx context.Context, id int64) error
	AggregateForTour(ctx context.Context, tourID int64) (count int, average float64, err error)
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

const reviewCols = `r.id, r.body, r.rating, r.tour_id, r.author_id, r.created_at, u.name, u.photo`

const uniqueViolation = "23505"

func (r *reviewRepository) Create(ctx context.Context, tourID, authorID int64, req *domain.CreateReviewRequest) (*domain.Review, error) {
	const q = `
		INSERT INTO reviews (body, rating, tour_id, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, body, rating, tour_id, author_id, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rv domain.Review
	err := r.pool.QueryRow(ctx, q, req.Body, req.Rating, tourID, authorID).Scan(
		&rv.ID, &rv.Body, &rv.Rating, &rv.TourID, &rv.AuthorID, &rv.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateReview
		}
		return nil, err
	}

	return &rv, nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id int64) (*domain.Review, error) {
	const q = `
		SELECT ` + reviewCols + `
		FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rv, err := scanReview(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rv, err
}

func (r *reviewRepository) ListByTour(ctx context.Context, tourID int64, limit, offset int) ([]domain.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT ` + reviewCols + `
		FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.tour_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, tourID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		var author domain.ReviewAuthor
		if err := rows.Scan(
			&rv.ID, &rv.Body, &rv.Rating, &rv.TourID, &rv.AuthorID, &rv.CreatedAt,
			&author.Name, &author.Photo,
		); err != nil {
			return nil, err
		}
		rv.Author = &author
		reviews = append(reviews, rv)
	}

	return reviews, rows.Err()
}

func (r *reviewRepository) UpdateByID(ctx context.Context, id int64, req *domain.UpdateReviewRequest) (*domain.Review, error) {
	const q = `
		UPDATE reviews
		SET
			body = COALESCE($2, body),
			rating = COALESCE($3, rating)
		WHERE id = $1
		RETURNING id, body, rating, tour_id, author_id, created_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var rv domain.Review
	err := r.pool.QueryRow(ctx, q, id, req.Body, req.Rating).Scan(
		&rv.ID, &rv.Body, &rv.Rating, &rv.TourID, &rv.AuthorID, &rv.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) DeleteByID(ctx context.Context, id int64) error {
	const q = `DELETE FROM reviews WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// AggregateForTour reads one consistent snapshot of the tour's review
// set. COUNT and AVG come from the same statement, so the pair can
// never disagree with each other.
func (r *reviewRepository) AggregateForTour(ctx context.Context, tourID int64) (int, float64, error) {
	const q = `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)
		FROM reviews
		WHERE tour_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	var average float64
	if err := r.pool.QueryRow(ctx, q, tourID).Scan(&count, &average); err != nil {
		return 0, 0, err
	}

	return count, average, nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	var author domain.ReviewAuthor
	err := row.Scan(
		&rv.ID, &rv.Body, &rv.Rating, &rv.TourID, &rv.AuthorID, &rv.CreatedAt,
		&author.Name, &author.Photo,
	)
	if err != nil {
		return nil, err
	}
	rv.Author = &author
	return &rv, nil
}
