package domain

import "errors"

var (
	// ErrDuplicateReview maps the (tour, author) uniqueness constraint: a
	// user may post at most one review per tour.
	ErrDuplicateReview = errors.New("you have already reviewed this tour")

	// ErrReviewNotFound is returned when an update or delete resolves no
	// review. The caller must not recompute anything in that case.
	ErrReviewNotFound = errors.New("review not found")

	// ErrInvalidCredentials covers wrong email and wrong password alike;
	// the two are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrResetTokenInvalid covers a bad token, an expired token and an
	// unknown user without telling the caller which.
	ErrResetTokenInvalid = errors.New("token is invalid or has expired")

	ErrEmailTaken = errors.New("user with this email already exists")
)
