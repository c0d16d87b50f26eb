package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
	"github.com/opticheck/screening-api/internal/service/audit"
	pkgauth "github.com/opticheck/screening-api/pkg/auth"
	"github.com/opticheck/screening-api/pkg/authz"
	"github.com/opticheck/screening-api/pkg/security"
)

type fakeUsers struct {
	byEmail map[string]*model.User
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, model.ErrInvalidCredentials
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, model.ErrInvalidCredentials
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, _ uuid.UUID) error { return nil }
func (f *fakeUsers) List(_ context.Context, _ *model.UserFilters) ([]*model.User, error) {
	return nil, nil
}

type fakeTokens struct {
	byToken map[string]uuid.UUID
}

var _ repository.TokenRepository = (*fakeTokens)(nil)

func (f *fakeTokens) StoreResetToken(_ context.Context, userID uuid.UUID, token string, _ time.Time) error {
	if f.byToken == nil {
		f.byToken = map[string]uuid.UUID{}
	}
	f.byToken[token] = userID
	return nil
}

func (f *fakeTokens) ValidateResetToken(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := f.byToken[token]
	if !ok {
		return uuid.Nil, model.ErrInvalidCredentials
	}
	return id, nil
}

func (f *fakeTokens) InvalidateResetToken(_ context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

type recordingAuditRepo struct {
	events []*model.SecurityEvent
}

func (r *recordingAuditRepo) Create(_ context.Context, e *model.SecurityEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordingAuditRepo) List(_ context.Context, _ *model.SecurityEventFilters) ([]*model.SecurityEvent, error) {
	return r.events, nil
}

type fakeMail struct {
	sent []string
}

func (f *fakeMail) SendPasswordReset(to, _ string) error {
	f.sent = append(f.sent, to)
	return nil
}

func newFixture(t *testing.T) (*Service, *fakeUsers, *recordingAuditRepo, *fakeMail) {
	t.Helper()

	users := &fakeUsers{}
	tokens := &fakeTokens{}
	auditRepo := &recordingAuditRepo{}
	mail := &fakeMail{}

	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	jwtSvc := pkgauth.NewService("test-secret", 30*time.Minute, 7*24*time.Hour, zerolog.Nop())
	auditor := audit.NewService(auditRepo, "audit-secret", false, nil, zerolog.Nop())

	svc := NewService(users, tokens, jwtSvc, hasher, mail, auditor, zerolog.Nop())

	hash, err := hasher.Hash("correct-password")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        "nurse@school.test",
		Name:         "Screening Nurse",
		PasswordHash: hash,
		Role:         authz.RoleNurse,
		Portal:       "medical",
		Status:       model.UserStatusActive,
	}))

	return svc, users, auditRepo, mail
}

func TestLoginSuccess(t *testing.T) {
	svc, _, auditRepo, _ := newFixture(t)

	pair, err := svc.Login(context.Background(), "nurse@school.test", "correct-password", RequestMeta{IPAddress: "10.0.0.9"})
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	require.Len(t, auditRepo.events, 1)
	assert.Equal(t, model.EventTypeLogin, auditRepo.events[0].EventType)
	assert.Equal(t, "10.0.0.9", auditRepo.events[0].IPAddress)
}

func TestLoginTokenCarriesStoredRole(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	pair, err := svc.Login(context.Background(), "nurse@school.test", "correct-password", RequestMeta{})
	require.NoError(t, err)

	jwtSvc := pkgauth.NewService("test-secret", 30*time.Minute, 7*24*time.Hour, zerolog.Nop())
	claims, err := jwtSvc.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleNurse, claims.Role)
	assert.Equal(t, "nurse@school.test", claims.Email)
}

func TestLoginWrongPasswordAndUnknownUserFailAlike(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	_, errWrong := svc.Login(context.Background(), "nurse@school.test", "wrong-password", RequestMeta{})
	_, errUnknown := svc.Login(context.Background(), "nobody@school.test", "wrong-password", RequestMeta{})

	assert.ErrorIs(t, errWrong, model.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, model.ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error(), "failure detail must not reveal which field was wrong")
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	svc, users, _, _ := newFixture(t)
	ctx := context.Background()

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(ctx, "nurse@school.test", "wrong-password", RequestMeta{})
		assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	}

	u, err := users.GetByEmail(ctx, "nurse@school.test")
	require.NoError(t, err)
	assert.Equal(t, model.UserStatusLocked, u.Status)

	_, err = svc.Login(ctx, "nurse@school.test", "correct-password", RequestMeta{})
	assert.ErrorIs(t, err, model.ErrAccountLocked)
}

func TestRefreshFlow(t *testing.T) {
	svc, _, auditRepo, _ := newFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "nurse@school.test", "correct-password", RequestMeta{})
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken, RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// Access token must not be usable for refresh.
	_, err = svc.Refresh(ctx, pair.AccessToken, RequestMeta{})
	assert.ErrorIs(t, err, pkgauth.ErrInvalidToken)

	var refreshEvents int
	for _, e := range auditRepo.events {
		if e.EventType == model.EventTypeTokenRefresh {
			refreshEvents++
		}
	}
	assert.Equal(t, 1, refreshEvents)
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, _, _, mail := newFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, "nurse@school.test"))
	require.Len(t, mail.sent, 1)

	// Unknown address: silent success, no mail.
	require.NoError(t, svc.ForgotPassword(ctx, "ghost@school.test"))
	assert.Len(t, mail.sent, 1)

	var token string
	for tok := range svc.tokenRepo.(*fakeTokens).byToken {
		token = tok
	}
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(ctx, token, "brand-new-password", RequestMeta{}))

	_, err := svc.Login(ctx, "nurse@school.test", "correct-password", RequestMeta{})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	pair, err := svc.Login(ctx, "nurse@school.test", "brand-new-password", RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}
