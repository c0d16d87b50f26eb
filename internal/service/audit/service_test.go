package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
)

type fakeAuditRepo struct {
	events    []*model.SecurityEvent
	createErr error
}

var _ repository.AuditRepository = (*fakeAuditRepo)(nil)

func (f *fakeAuditRepo) Create(_ context.Context, event *model.SecurityEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _ *model.SecurityEventFilters) ([]*model.SecurityEvent, error) {
	return f.events, nil
}

func testActor() Actor {
	return Actor{
		ID:        uuid.New(),
		Email:     "nurse@school.test",
		Portal:    "medical",
		IPAddress: "10.0.0.9",
		UserAgent: "screening-app/2.1",
	}
}

func TestRecordWritesEntry(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewService(repo, "audit-secret", false, nil, zerolog.Nop())

	err := svc.Record(context.Background(), model.EventTypePatientDelete, "patient 42 deleted", testActor())
	require.NoError(t, err)
	require.Len(t, repo.events, 1)

	entry := repo.events[0]
	assert.Equal(t, model.EventTypePatientDelete, entry.EventType)
	assert.Equal(t, "medical", entry.Portal)
	assert.Len(t, entry.AuditHash, 64, "sha256 hex digest")
	assert.False(t, entry.OccurredAt.IsZero())
}

func TestRecordIsNotIdempotent(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewService(repo, "audit-secret", false, nil, zerolog.Nop())
	actor := testActor()

	require.NoError(t, svc.Record(context.Background(), model.EventTypeLogin, "login", actor))
	require.NoError(t, svc.Record(context.Background(), model.EventTypeLogin, "login", actor))

	require.Len(t, repo.events, 2)
	assert.NotEqual(t, repo.events[0].ID, repo.events[1].ID)
}

func TestRecordBestEffortSwallowsPersistenceFailure(t *testing.T) {
	repo := &fakeAuditRepo{createErr: errors.New("store down")}
	svc := NewService(repo, "audit-secret", false, nil, zerolog.Nop())

	err := svc.Record(context.Background(), model.EventTypeLogin, "login", testActor())
	assert.NoError(t, err, "best-effort mode must not propagate store errors")
}

func TestRecordFailClosedPropagates(t *testing.T) {
	repo := &fakeAuditRepo{createErr: errors.New("store down")}
	svc := NewService(repo, "audit-secret", true, nil, zerolog.Nop())

	err := svc.Record(context.Background(), model.EventTypeLogin, "login", testActor())
	assert.Error(t, err)
}

func TestHashIsDeterministicPerContent(t *testing.T) {
	svc := NewService(&fakeAuditRepo{}, "audit-secret", false, nil, zerolog.Nop())
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	a := svc.hash("login", "ok", "actor-1", ts)
	b := svc.hash("login", "ok", "actor-1", ts)
	c := svc.hash("login", "ok", "actor-2", ts)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	other := NewService(&fakeAuditRepo{}, "different-secret", false, nil, zerolog.Nop())
	assert.NotEqual(t, a, other.hash("login", "ok", "actor-1", ts),
		"hash must depend on the server secret")
}
