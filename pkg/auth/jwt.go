// Package auth is the single token service for the API. Every handler
// and middleware shares one instance, one signing secret and one expiry
// representation (unix seconds, via RegisteredClaims).
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opticheck/screening-api/pkg/authz"
)

const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"

	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is the only error callers see for a rejected token.
// Expired, tampered and wrong-kind tokens are indistinguishable to the
// caller; the log line records which it was.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried by every token issued here.
type Claims struct {
	jwt.RegisteredClaims
	UserID      uuid.UUID  `json:"user_id"`
	Email       string     `json:"email"`
	Role        authz.Role `json:"role"`
	Portal      string     `json:"portal,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	Kind        string     `json:"kind"`
}

// TokenPair is the login/refresh response payload.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(secret string, accessTTL, refreshTTL time.Duration, logger zerolog.Logger) *Service {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// IssuePair mints a fresh access/refresh pair for the given identity.
func (s *Service) IssuePair(userID uuid.UUID, email string, role authz.Role, portal string, permissions []string) (*TokenPair, error) {
	access, err := s.issue(userID, email, role, portal, permissions, TokenKindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(userID, email, role, portal, permissions, TokenKindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *Service) issue(userID uuid.UUID, email string, role authz.Role, portal string, permissions []string, kind string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:      userID,
		Email:       email,
		Role:        role,
		Portal:      portal,
		Permissions: permissions,
		Kind:        kind,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify validates an access token and returns its claims. A refresh
// token is rejected here even though its signature is valid; it can
// only be spent on Refresh.
func (s *Service) Verify(token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindAccess {
		s.logger.Warn().Str("kind", claims.Kind).Msg("non-access token presented as access token")
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh verifies a refresh-kind token and mints a new pair from its
// remaining claims. Any other kind is rejected regardless of validity.
func (s *Service) Refresh(token string) (*TokenPair, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindRefresh {
		s.logger.Warn().Str("kind", claims.Kind).Msg("non-refresh token presented for refresh")
		return nil, ErrInvalidToken
	}
	return s.IssuePair(claims.UserID, claims.Email, claims.Role, claims.Portal, claims.Permissions)
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		// Logs distinguish expiry from tampering; the caller never does.
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug().Msg("token rejected: expired")
		} else {
			s.logger.Warn().Err(err).Msg("token rejected: invalid signature or malformed")
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}
