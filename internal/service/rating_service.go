package service

import (
	"context"
	"fmt"

	"github.com/trailhead/tours/internal/domain"
	"github.com/trailhead/tours/internal/repo/postgres"
	"github.com/trailhead/tours/pkg/logger"
)

// RatingService keeps a tour's denormalized rating columns consistent
// with its review set. Recomputation is always from scratch: the
// aggregate is a pure function of the current reviews, so overlapping
// recomputations for the same tour converge on the next trigger even
// when their writes interleave.
type RatingService interface {
	RecomputeTourRating(ctx context.Context, tourID int64) (domain.TourRatings, error)
}

type ratingService struct {
	reviewRepo postgres.ReviewRepository
	tourRepo   postgres.TourRepository
}

func NewRatingService(reviewRepo postgres.ReviewRepository, tourRepo postgres.TourRepository) RatingService {
	return &ratingService{
		reviewRepo: reviewRepo,
		tourRepo:   tourRepo,
	}
}

// RecomputeTourRating counts and averages the tour's reviews in one
// snapshot and writes exactly the two aggregate columns back. An empty
// review set resets the tour to the catalog defaults. A tour that no
// longer exists makes the write a no-op, not an error.
func (s *ratingService) RecomputeTourRating(ctx context.Context, tourID int64) (domain.TourRatings, error) {
	count, average, err := s.reviewRepo.AggregateForTour(ctx, tourID)
	if err != nil {
		return domain.TourRatings{}, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	ratings := domain.DefaultTourRatings(tourID)
	if count > 0 {
		ratings.Quantity = count
		ratings.Average = average
	}

	if err := s.tourRepo.UpdateRatings(ctx, ratings); err != nil {
		return domain.TourRatings{}, fmt.Errorf("failed to update tour ratings: %w", err)
	}

	logger.DebugContext(ctx, "Recomputed tour rating",
		"tour_id", tourID,
		"ratings_quantity", ratings.Quantity,
		"ratings_average", ratings.Average,
	)

	return ratings, nil
}
