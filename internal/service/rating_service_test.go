package service

import (
	"context"
	"math"
	"testing"

	"github.com/trailhead/tours/internal/domain"
)

const floatTolerance = 1e-9

func TestRecomputeTourRating(t *testing.T) {
	tests := []struct {
		name         string
		ratings      []int
		wantQuantity int
		wantAverage  float64
	}{
		{name: "no reviews resets to defaults", ratings: nil, wantQuantity: 0, wantAverage: 4.5},
		{name: "single review", ratings: []int{5}, wantQuantity: 1, wantAverage: 5},
		{name: "mixed ratings", ratings: []int{4, 5}, wantQuantity: 2, wantAverage: 4.5},
		{name: "integer truncation does not happen", ratings: []int{1, 2, 2}, wantQuantity: 3, wantAverage: 5.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const tourID = int64(7)
			reviewRepo := newMockReviewRepo()
			tourRepo := newMockTourRepo(tourID)

			for i, rating := range tt.ratings {
				_, err := reviewRepo.Create(context.Background(), tourID, int64(100+i), &domain.CreateReviewRequest{
					Body:   "great trip",
					Rating: rating,
				})
				if err != nil {
					t.Fatalf("seed review: %v", err)
				}
			}

			svc := NewRatingService(reviewRepo, tourRepo)
			got, err := svc.RecomputeTourRating(context.Background(), tourID)
			if err != nil {
				t.Fatalf("RecomputeTourRating: %v", err)
			}

			if got.Quantity != tt.wantQuantity {
				t.Errorf("Quantity = %d, want %d", got.Quantity, tt.wantQuantity)
			}
			if math.Abs(got.Average-tt.wantAverage) > floatTolerance {
				t.Errorf("Average = %v, want %v", got.Average, tt.wantAverage)
			}

			stored, err := tourRepo.GetRatings(context.Background(), tourID)
			if err != nil {
				t.Fatalf("GetRatings: %v", err)
			}
			if stored.Quantity != tt.wantQuantity || math.Abs(stored.Average-tt.wantAverage) > floatTolerance {
				t.Errorf("persisted ratings = %+v, want quantity %d average %v", stored, tt.wantQuantity, tt.wantAverage)
			}
		})
	}
}

func TestRecomputeTourRatingIdempotent(t *testing.T) {
	const tourID = int64(3)
	reviewRepo := newMockReviewRepo()
	tourRepo := newMockTourRepo(tourID)

	if _, err := reviewRepo.Create(context.Background(), tourID, 1, &domain.CreateReviewRequest{Body: "ok", Rating: 3}); err != nil {
		t.Fatalf("seed review: %v", err)
	}

	svc := NewRatingService(reviewRepo, tourRepo)

	first, err := svc.RecomputeTourRating(context.Background(), tourID)
	if err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	second, err := svc.RecomputeTourRating(context.Background(), tourID)
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}

	if first != second {
		t.Errorf("recompute is not idempotent: %+v then %+v", first, second)
	}
}

func TestRecomputeTourRatingMissingTour(t *testing.T) {
	reviewRepo := newMockReviewRepo()
	tourRepo := newMockTourRepo() // no tours exist

	svc := NewRatingService(reviewRepo, tourRepo)

	// A tour deleted out from under its reviews must not error.
	if _, err := svc.RecomputeTourRating(context.Background(), 42); err != nil {
		t.Fatalf("RecomputeTourRating on missing tour: %v", err)
	}
}
