package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trailhead/tours/internal/domain"
)

// ---------- Mocks ----------

type mockReviewRepo struct {
	mu      sync.Mutex
	nextID  int64
	reviews map[int64]*domain.Review
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{
		nextID:  1,
		reviews: make(map[int64]*domain.Review),
	}
}

func (m *mockReviewRepo) Create(_ context.Context, tourID, authorID int64, req *domain.CreateReviewRequest) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rv := range m.reviews {
		if rv.TourID == tourID && rv.AuthorID == authorID {
			return nil, domain.ErrDuplicateReview
		}
	}

	id := m.nextID
	m.nextID++

	rv := &domain.Review{
		ID:        id,
		Body:      req.Body,
		Rating:    req.Rating,
		TourID:    tourID,
		AuthorID:  authorID,
		CreatedAt: time.Now(),
	}
	m.reviews[id] = rv

	out := *rv
	return &out, nil
}

func (m *mockReviewRepo) FindByID(_ context.Context, id int64) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rv, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	out := *rv
	return &out, nil
}

func (m *mockReviewRepo) ListByTour(_ context.Context, tourID int64, limit, offset int) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Review
	for _, rv := range m.reviews {
		if rv.TourID == tourID {
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) UpdateByID(_ context.Context, id int64, req *domain.UpdateReviewRequest) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rv, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	if req.Body != nil {
		rv.Body = *req.Body
	}
	if req.Rating != nil {
		rv.Rating = *req.Rating
	}
	out := *rv
	return &out, nil
}

func (m *mockReviewRepo) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewRepo) AggregateForTour(_ context.Context, tourID int64) (int, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	sum := 0
	for _, rv := range m.reviews {
		if rv.TourID == tourID {
			count++
			sum += rv.Rating
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return count, float64(sum) / float64(count), nil
}

type mockTourRepo struct {
	mu    sync.Mutex
	tours map[int64]domain.TourRatings
}

func newMockTourRepo(tourIDs ...int64) *mockTourRepo {
	m := &mockTourRepo{tours: make(map[int64]domain.TourRatings)}
	for _, id := range tourIDs {
		m.tours[id] = domain.DefaultTourRatings(id)
	}
	return m
}

func (m *mockTourRepo) UpdateRatings(_ context.Context, ratings domain.TourRatings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Missing tour is a no-op, as in the real repository.
	if _, ok := m.tours[ratings.TourID]; !ok {
		return nil
	}
	m.tours[ratings.TourID] = ratings
	return nil
}

func (m *mockTourRepo) GetRatings(_ context.Context, tourID int64) (*domain.TourRatings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tours[tourID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		nextID: 1,
		users:  make(map[int64]*domain.User),
	}
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == req.Email {
			return nil, domain.ErrEmailTaken
		}
	}

	id := m.nextID
	m.nextID++

	u := &domain.User{
		ID:           id,
		Name:         req.Name,
		Email:        req.Email,
		Photo:        req.Photo,
		Role:         domain.RoleUser,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[id] = u

	out := *u
	return &out, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email && u.Active {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || !u.Active {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID int64, passwordHash string, changedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok || !u.Active {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	ts := changedAt
	u.PasswordChangedAt = &ts
	u.PasswordResetTokenHash = nil
	u.PasswordResetExpiresAt = nil
	return nil
}

func (m *mockUserRepo) SetResetToken(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok || !u.Active {
		return pgx.ErrNoRows
	}
	u.PasswordResetTokenHash = &tokenHash
	ts := expiresAt
	u.PasswordResetExpiresAt = &ts
	return nil
}

func (m *mockUserRepo) FindByResetTokenHash(_ context.Context, tokenHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Active && u.PasswordResetTokenHash != nil && *u.PasswordResetTokenHash == tokenHash {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Deactivate(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok || !u.Active {
		return pgx.ErrNoRows
	}
	u.Active = false
	return nil
}

type mockMailer struct {
	mu        sync.Mutex
	sent      int
	lastTo    string
	lastURL   string
	lastToken string
}

func (m *mockMailer) SendPasswordReset(toEmail, toName, resetURL, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	m.lastTo = toEmail
	m.lastURL = resetURL
	m.lastToken = token
	return nil
}

type mockPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (m *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockPublisher) Close() error { return nil }
