package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trailhead/tours/internal/domain"
	mw "github.com/trailhead/tours/internal/http/middleware"
	"github.com/trailhead/tours/internal/http/response"
)

// CreateReview posts a review for a tour on behalf of the logged-in
// user. The tour's rating aggregate is up to date by the time the
// response is written.
func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	user := mw.CurrentUser(r)
	if user == nil {
		response.Unauthorized(w, "you are not logged in")
		return
	}

	tourID, err := pathID(r, "tourID")
	if err != nil {
		response.BadRequest(w, "invalid tour id")
		return
	}

	var req domain.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	review, err := h.reviewService.Create(r.Context(), tourID, user.ID, &req)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateReview) {
			response.Conflict(w, err.Error())
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.JSON(w, http.StatusCreated, review)
}

// ListReviews lists a tour's reviews with the author's public fields
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	tourID, err := pathID(r, "tourID")
	if err != nil {
		response.BadRequest(w, "invalid tour id")
		return
	}

	limit, offset := parsePagination(r)
	reviews, err := h.reviewService.ListByTour(r.Context(), tourID, limit, offset)
	if err != nil {
		response.InternalError(w, "failed to list reviews")
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"results": len(reviews),
		"reviews": reviews,
	})
}

// GetReview returns a single review
func (h *Handlers) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid review id")
		return
	}

	review, err := h.reviewService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "failed to get review")
		return
	}

	response.JSON(w, http.StatusOK, review)
}

// UpdateReview patches a review by id
func (h *Handlers) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid review id")
		return
	}

	var req domain.UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	review, err := h.reviewService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.JSON(w, http.StatusOK, review)
}

// DeleteReview deletes a review by id
func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "invalid review id")
		return
	}

	if err := h.reviewService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrReviewNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "failed to delete review")
		return
	}

	response.JSON(w, http.StatusNoContent, nil)
}

func pathID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
