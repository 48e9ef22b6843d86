package domain

import (
	"fmt"
	"strings"
	"time"
)

type Review struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Rating    int       `json:"rating"`
	TourID    int64     `json:"tour_id"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"-"`

	// Public author fields, joined on reads.
	Author *ReviewAuthor `json:"author,omitempty"`
}

type ReviewAuthor struct {
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

type CreateReviewRequest struct {
	Body   string `json:"body"`
	Rating int    `json:"rating"`
}

type UpdateReviewRequest struct {
	Body   *string `json:"body,omitempty"`
	Rating *int    `json:"rating,omitempty"`
}

func (r *CreateReviewRequest) Validate() error {
	if strings.TrimSpace(r.Body) == "" {
		return fmt.Errorf("review can not be empty")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

func (r *UpdateReviewRequest) Validate() error {
	if r.Body == nil && r.Rating == nil {
		return fmt.Errorf("nothing to update")
	}
	if r.Body != nil && strings.TrimSpace(*r.Body) == "" {
		return fmt.Errorf("review can not be empty")
	}
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}

func (r *CreateReviewRequest) Normalize() {
	r.Body = strings.TrimSpace(r.Body)
}
