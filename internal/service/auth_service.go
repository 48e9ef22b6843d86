package service

import (
	"context"
	"fmt"
	"time"

	"github.com/trailhead/tours/internal/domain"
	"github.com/trailhead/tours/internal/mailer"
	"github.com/trailhead/tours/internal/repo/postgres"
	"github.com/trailhead/tours/pkg/auth"
	"github.com/trailhead/tours/pkg/config"
	"github.com/trailhead/tours/pkg/events"
	"github.com/trailhead/tours/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (*domain.LoginResponse, error)
	UpdatePassword(ctx context.Context, userID int64, req *domain.UpdatePasswordRequest) (*domain.LoginResponse, error)
	Deactivate(ctx context.Context, userID int64) error
}

type authService struct {
	userRepo    postgres.UserRepository
	credentials *CredentialManager
	mailer      mailer.Service
	eventBus    events.Publisher
	config      *config.Config
}

func NewAuthService(
	userRepo postgres.UserRepository,
	credentials *CredentialManager,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		credentials: credentials,
		mailer:      mailer,
		eventBus:    eventBus,
		config:      config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	passwordHash, err := s.credentials.PrepareForStorage(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, req, passwordHash)
	if err != nil {
		return nil, err
	}

	return s.issueSession(user)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !s.credentials.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issueSession(user)
}

// ForgotPassword issues a single-use reset token and mails the raw
// value. An unknown email gets the same nil outcome as a known one so
// the endpoint cannot be used to probe for accounts.
func (s *authService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil
	}

	token, err := s.credentials.NewResetToken()
	if err != nil {
		return err
	}

	if err := s.userRepo.SetResetToken(ctx, user.ID, token.Hash, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.Server.PublicURL, token.Raw)
	if err := s.mailer.SendPasswordReset(user.Email, user.Name, resetURL, token.Raw); err != nil {
		logger.ErrorContext(ctx, "Failed to send password reset email", "error", err, "user_id", user.ID)
		// The token is stored; the user can retry the email flow.
	}

	s.publish(ctx, events.PasswordResetRequested, events.PasswordResetRequestedEvent{
		UserID:      user.ID,
		Email:       user.Email,
		ExpiresAt:   token.ExpiresAt,
		RequestedAt: time.Now(),
	})

	return nil
}

// ResetPassword consumes a raw reset token. Wrong token, expired token
// and unknown user all collapse into ErrResetTokenInvalid.
func (s *authService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (*domain.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.userRepo.FindByResetTokenHash(ctx, s.credentials.HashResetToken(req.Token))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrResetTokenInvalid
	}
	if !s.credentials.CheckResetToken(req.Token, user.PasswordResetTokenHash, user.PasswordResetExpiresAt) {
		return nil, domain.ErrResetTokenInvalid
	}

	passwordHash, err := s.credentials.PrepareForStorage(req.Password)
	if err != nil {
		return nil, err
	}

	changedAt := s.credentials.StampChange()
	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash, changedAt); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	s.publish(ctx, events.PasswordChanged, events.PasswordChangedEvent{
		UserID:    user.ID,
		ChangedAt: changedAt,
	})

	return s.issueSession(user)
}

func (s *authService) UpdatePassword(ctx context.Context, userID int64, req *domain.UpdatePasswordRequest) (*domain.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !s.credentials.Verify(req.CurrentPassword, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	passwordHash, err := s.credentials.PrepareForStorage(req.Password)
	if err != nil {
		return nil, err
	}

	changedAt := s.credentials.StampChange()
	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash, changedAt); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	s.publish(ctx, events.PasswordChanged, events.PasswordChangedEvent{
		UserID:    user.ID,
		ChangedAt: changedAt,
	})

	return s.issueSession(user)
}

func (s *authService) Deactivate(ctx context.Context, userID int64) error {
	if err := s.userRepo.Deactivate(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

func (s *authService) issueSession(user *domain.User) (*domain.LoginResponse, error) {
	accessToken, err := auth.NewAccessToken(
		user.ID,
		user.Email,
		user.Role,
		s.config.Auth.JWTSecret,
		s.config.Auth.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:        user.ToUserInfo(),
	}, nil
}

func (s *authService) publish(ctx context.Context, subject string, event interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
