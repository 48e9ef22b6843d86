package handlers

import (
	"net/http"
	"strconv"

	"github.com/trailhead/tours/internal/service"
	"github.com/trailhead/tours/pkg/config"
)

type Handlers struct {
	authService   service.AuthService
	reviewService service.ReviewService
	config        *config.Config
}

func New(authService service.AuthService, reviewService service.ReviewService, config *config.Config) *Handlers {
	return &Handlers{
		authService:   authService,
		reviewService: reviewService,
		config:        config,
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	return limit, offset
}
