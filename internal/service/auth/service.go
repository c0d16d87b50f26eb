package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opticheck/screening-api/internal/email"
	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
	"github.com/opticheck/screening-api/internal/service/audit"
	"github.com/opticheck/screening-api/pkg/auth"
	"github.com/opticheck/screening-api/pkg/security"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
	resetTokenExpiry = 1 * time.Hour
)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    *auth.Service
	hasher    security.PasswordHasher
	emailSvc  email.Service
	auditor   *audit.Service
	logger    zerolog.Logger
}

func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtSvc *auth.Service,
	hasher security.PasswordHasher,
	emailSvc email.Service,
	auditor *audit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		emailSvc:  emailSvc,
		auditor:   auditor,
		logger:    logger,
	}
}

// RequestMeta carries network context from the handler into audit
// records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

func (m RequestMeta) actor(u *model.User) audit.Actor {
	a := audit.Actor{IPAddress: m.IPAddress, UserAgent: m.UserAgent}
	if u != nil {
		a.ID = u.ID
		a.Email = u.Email
		a.Portal = u.Portal
	}
	return a
}

// Login verifies credentials and returns a token pair. Unknown user
// and wrong password fail identically, and a dummy hash comparison
// keeps the unknown-user path from returning measurably faster.
func (s *Service) Login(ctx context.Context, email, password string, meta RequestMeta) (*auth.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		security.DummyVerify(password)
		s.auditor.Record(ctx, model.EventTypeLoginFailed,
			fmt.Sprintf("login failed for %s", email), meta.actor(nil))
		return nil, model.ErrInvalidCredentials
	}

	if user.Status == model.UserStatusLocked {
		if time.Since(user.LastLoginAttempt) < lockoutDuration {
			return nil, model.ErrAccountLocked
		}
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		user.LoginAttempts++
		user.LastLoginAttempt = time.Now()
		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", err)
		}
		s.auditor.Record(ctx, model.EventTypeLoginFailed,
			fmt.Sprintf("login failed for %s", email), meta.actor(user))
		return nil, model.ErrInvalidCredentials
	}

	user.LoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	pair, err := s.jwtSvc.IssuePair(user.ID, user.Email, user.Role, user.Portal, user.Permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.auditor.Record(ctx, model.EventTypeLogin, "successful login", meta.actor(user))
	return pair, nil
}

// Refresh exchanges a refresh-kind token for a new pair. Kind and
// signature checks live in the token service; this layer only adds the
// audit record.
func (s *Service) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*auth.TokenPair, error) {
	pair, err := s.jwtSvc.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims, verr := s.jwtSvc.Verify(pair.AccessToken); verr == nil {
		s.auditor.Record(ctx, model.EventTypeTokenRefresh, "token pair refreshed", audit.Actor{
			ID:        claims.UserID,
			Email:     claims.Email,
			Portal:    claims.Portal,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
		})
	}
	return pair, nil
}

// ForgotPassword stores a reset token and mails it. Unknown addresses
// return success so the endpoint does not reveal which accounts exist.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil
	}

	token := uuid.New().String()
	if err := s.tokenRepo.StoreResetToken(ctx, user.ID, token, time.Now().Add(resetTokenExpiry)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordReset(user.Email, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// ResetPassword supersedes the stored credential; the old hash is
// overwritten, never kept.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string, meta RequestMeta) error {
	userID, err := s.tokenRepo.ValidateResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("invalid or expired reset token")
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reset token valid but user lookup failed")
		return fmt.Errorf("user not found: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Msg("failed to store new password hash")
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.tokenRepo.InvalidateResetToken(ctx, token); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate used reset token")
	}

	s.auditor.Record(ctx, model.EventTypePasswordReset, "password reset completed", meta.actor(user))
	return nil
}
