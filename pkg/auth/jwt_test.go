package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticheck/screening-api/pkg/authz"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService("test-signing-secret", 30*time.Minute, 7*24*time.Hour, zerolog.Nop())
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()

	pair, err := svc.IssuePair(userID, "nurse@school.test", authz.RoleNurse, "medical", []string{"screening:read"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)

	claims, err := svc.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "nurse@school.test", claims.Email)
	assert.Equal(t, authz.RoleNurse, claims.Role)
	assert.Equal(t, TokenKindAccess, claims.Kind)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	svc := newTestService(t)
	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	pair, err := svc.IssuePair(uuid.New(), "doc@clinic.test", authz.RoleDoctor, "medical", nil)
	require.NoError(t, err)

	// One second before expiry the token is still good.
	svc.now = func() time.Time { return issuedAt.Add(svc.accessTTL - time.Second) }
	_, err = svc.Verify(pair.AccessToken)
	assert.NoError(t, err)

	// One second past expiry it is rejected with the generic error.
	svc.now = func() time.Time { return issuedAt.Add(svc.accessTTL + time.Second) }
	_, err = svc.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTamperedToken(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.IssuePair(uuid.New(), "admin@district.test", authz.RoleAdmin, "medical", nil)
	require.NoError(t, err)

	tampered := []byte(pair.AccessToken)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	_, err = svc.Verify(string(tampered))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	svc := newTestService(t)
	other := NewService("a-different-secret", 30*time.Minute, 7*24*time.Hour, zerolog.Nop())

	pair, err := other.IssuePair(uuid.New(), "x@y.test", authz.RoleUser, "parent", nil)
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenCannotActAsAccessToken(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.IssuePair(uuid.New(), "parent@home.test", authz.RoleParent, "parent", nil)
	require.NoError(t, err)

	// Valid signature, unexpired, wrong kind.
	_, err = svc.Verify(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.IssuePair(uuid.New(), "parent@home.test", authz.RoleParent, "parent", nil)
	require.NoError(t, err)

	_, err = svc.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshIssuesWorkingPair(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()

	pair, err := svc.IssuePair(userID, "sa@district.test", authz.RoleSuperAdmin, "medical", []string{"patient:delete"})
	require.NoError(t, err)

	fresh, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.Verify(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, authz.RoleSuperAdmin, claims.Role)
	assert.Equal(t, []string{"patient:delete"}, claims.Permissions)
	assert.Equal(t, TokenKindAccess, claims.Kind)
}
