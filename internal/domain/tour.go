package domain

// The rating aggregate is the only part of a tour this service owns. A
// tour with no reviews carries the catalog defaults below; everything
// else on the tours table belongs to the tour catalog.
const (
	DefaultRatingsQuantity = 0
	DefaultRatingsAverage  = 4.5
)

type TourRatings struct {
	TourID   int64   `json:"tour_id"`
	Quantity int     `json:"ratings_quantity"`
	Average  float64 `json:"ratings_average"`
}

// DefaultTourRatings is what an empty review set collapses back to.
func DefaultTourRatings(tourID int64) TourRatings {
	return TourRatings{
		TourID:   tourID,
		Quantity: DefaultRatingsQuantity,
		Average:  DefaultRatingsAverage,
	}
}
