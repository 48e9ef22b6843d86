package service

import (
	"context"
	"fmt"
	"time"

	"github.com/trailhead/tours/internal/domain"
	"github.com/trailhead/tours/internal/repo/postgres"
	"github.com/trailhead/tours/pkg/events"
	"github.com/trailhead/tours/pkg/logger"
)

// ReviewService is the single entry point for review mutations. Every
// create, update and delete runs the owning tour's rating
// recomputation to completion before returning, then announces the
// change on the event bus.
//
// Updates and deletes address the review by id, so the owning tour is
// resolved and captured before the mutation runs. After the mutation a
// lookup would return either nothing (delete) or the new state
// (update); the captured value is the only reliable source of the
// tour reference. The two phases are sequential steps of one call,
// never independent operations.
type ReviewService interface {
	Create(ctx context.Context, tourID, authorID int64, req *domain.CreateReviewRequest) (*domain.Review, error)
	Get(ctx context.Context, id int64) (*domain.Review, error)
	ListByTour(ctx context.Context, tourID int64, limit, offset int) ([]domain.Review, error)
	Update(ctx context.Context, id int64, req *domain.UpdateReviewRequest) (*domain.Review, error)
	Delete(ctx context.Context, id int64) error
}

type reviewService struct {
	reviewRepo postgres.ReviewRepository
	ratings    RatingService
	eventBus   events.Publisher
}

func NewReviewService(reviewRepo postgres.ReviewRepository, ratings RatingService, eventBus events.Publisher) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		ratings:    ratings,
		eventBus:   eventBus,
	}
}

func (s *reviewService) Create(ctx context.Context, tourID, authorID int64, req *domain.CreateReviewRequest) (*domain.Review, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	review, err := s.reviewRepo.Create(ctx, tourID, authorID, req)
	if err != nil {
		return nil, err
	}

	ratings, err := s.ratings.RecomputeTourRating(ctx, review.TourID)
	if err != nil {
		return nil, err
	}

	s.publishReviewChanged(ctx, events.ReviewCreated, review.ID, ratings)

	return review, nil
}

func (s *reviewService) Get(ctx context.Context, id int64) (*domain.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	if review == nil {
		return nil, domain.ErrReviewNotFound
	}
	return review, nil
}

func (s *reviewService) ListByTour(ctx context.Context, tourID int64, limit, offset int) ([]domain.Review, error) {
	reviews, err := s.reviewRepo.ListByTour(ctx, tourID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *reviewService) Update(ctx context.Context, id int64, req *domain.UpdateReviewRequest) (*domain.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Phase one: resolve the target and capture its tour reference.
	captured, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve review: %w", err)
	}
	if captured == nil {
		return nil, domain.ErrReviewNotFound
	}

	// Phase two: mutate, then recompute with the captured reference.
	updated, err := s.reviewRepo.UpdateByID(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Deleted between the two phases; nothing left to recompute
		// for this call, the deleting call handles the aggregate.
		return nil, domain.ErrReviewNotFound
	}

	ratings, err := s.ratings.RecomputeTourRating(ctx, captured.TourID)
	if err != nil {
		return nil, err
	}

	s.publishReviewChanged(ctx, events.ReviewUpdated, updated.ID, ratings)

	return updated, nil
}

func (s *reviewService) Delete(ctx context.Context, id int64) error {
	// Phase one: capture the tour reference before the row disappears.
	captured, err := s.reviewRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to resolve review: %w", err)
	}
	if captured == nil {
		return domain.ErrReviewNotFound
	}

	if err := s.reviewRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	ratings, err := s.ratings.RecomputeTourRating(ctx, captured.TourID)
	if err != nil {
		return err
	}

	s.publishReviewChanged(ctx, events.ReviewDeleted, captured.ID, ratings)

	return nil
}

// publishReviewChanged is best effort: the aggregate is already
// persisted, a lost notification never makes it wrong.
func (s *reviewService) publishReviewChanged(ctx context.Context, subject string, reviewID int64, ratings domain.TourRatings) {
	if s.eventBus == nil {
		return
	}

	event := events.ReviewChangedEvent{
		TourID:          ratings.TourID,
		ReviewID:        reviewID,
		RatingsQuantity: ratings.Quantity,
		RatingsAverage:  ratings.Average,
		OccurredAt:      time.Now(),
	}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish review event", "error", err, "subject", subject, "tour_id", ratings.TourID)
	}
}
