package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
	"github.com/opticheck/screening-api/internal/service/audit"
	apperrors "github.com/opticheck/screening-api/pkg/errors"
)

type fakePatients struct {
	byID      map[uuid.UUID]*model.Patient
	deleteErr error
}

var _ repository.PatientRepository = (*fakePatients)(nil)

func (f *fakePatients) Create(_ context.Context, p *model.Patient) error {
	if f.byID == nil {
		f.byID = map[uuid.UUID]*model.Patient{}
	}
	cpy := *p
	f.byID[p.ID] = &cpy
	return nil
}

func (f *fakePatients) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	c := *p
	return &c, nil
}

func (f *fakePatients) Update(_ context.Context, p *model.Patient) error {
	if _, ok := f.byID[p.ID]; !ok {
		return apperrors.NotFound("patient", nil)
	}
	cpy := *p
	f.byID[p.ID] = &cpy
	return nil
}

func (f *fakePatients) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return apperrors.NotFound("patient", nil)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakePatients) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range f.byID {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

type fakeOutbox struct {
	events []*model.OutboxEvent
}

var _ repository.OutboxRepository = (*fakeOutbox)(nil)

func (f *fakeOutbox) Create(_ context.Context, e *model.OutboxEvent) error {
	f.events = append(f.events, e)
	return nil
}
func (f *fakeOutbox) GetPending(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return f.events, nil
}
func (f *fakeOutbox) MarkProcessed(_ context.Context, _ uuid.UUID) error        { return nil }
func (f *fakeOutbox) MarkFailed(_ context.Context, _ uuid.UUID, _ string) error { return nil }

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

func newFixture(t *testing.T) (*Service, *fakePatients, *fakeOutbox, *recordingAuditRepo) {
	t.Helper()
	patients := &fakePatients{}
	outbox := &fakeOutbox{}
	auditRepo := &recordingAuditRepo{}
	auditor := audit.NewService(auditRepo, "audit-secret", false, nil, zerolog.Nop())
	return NewService(patients, outbox, auditor, zerolog.Nop()), patients, outbox, auditRepo
}

func TestCreateAssignsIDAndStatus(t *testing.T) {
	svc, patients, outbox, _ := newFixture(t)

	created, err := svc.Create(context.Background(), &model.Patient{
		FirstName: "Ada",
		LastName:  "Nguyen",
		School:    "Lincoln Elementary",
		Grade:     "3",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, string(model.PatientStatusActive), created.Status)
	assert.Contains(t, patients.byID, created.ID)

	require.Len(t, outbox.events, 1)
	assert.Equal(t, "PATIENT_CREATE", outbox.events[0].EventType)
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	created, err := svc.Create(context.Background(), &model.Patient{
		FirstName: "Ada", LastName: "Nguyen", School: "Lincoln Elementary", Grade: "3",
	})
	require.NoError(t, err)

	grade := "4"
	glasses := true
	updated, err := svc.Update(context.Background(), created.ID, &model.UpdatePatientRequest{
		Grade:        &grade,
		WearsGlasses: &glasses,
	})
	require.NoError(t, err)
	assert.Equal(t, "4", updated.Grade)
	assert.True(t, updated.WearsGlasses)
	assert.Equal(t, "Ada", updated.FirstName, "unset fields stay untouched")
}

func TestDeleteRecordsAuditEntry(t *testing.T) {
	svc, patients, _, auditRepo := newFixture(t)

	created, err := svc.Create(context.Background(), &model.Patient{
		FirstName: "Ada", LastName: "Nguyen", School: "Lincoln Elementary", Grade: "3",
	})
	require.NoError(t, err)

	actor := audit.Actor{ID: uuid.New(), Email: "sa@district.test", Portal: "medical"}
	require.NoError(t, svc.Delete(context.Background(), created.ID, actor))

	assert.NotContains(t, patients.byID, created.ID)
	require.Len(t, auditRepo.events, 1)
	assert.Equal(t, model.EventTypePatientDelete, auditRepo.events[0].EventType)
	assert.Equal(t, actor.Email, auditRepo.events[0].ActorEmail)
}

func TestDeleteFailurePropagatesAndSkipsAudit(t *testing.T) {
	svc, patients, _, auditRepo := newFixture(t)

	created, err := svc.Create(context.Background(), &model.Patient{
		FirstName: "Ada", LastName: "Nguyen", School: "Lincoln Elementary", Grade: "3",
	})
	require.NoError(t, err)

	patients.deleteErr = errors.New("store down")
	err = svc.Delete(context.Background(), created.ID, audit.Actor{})
	assert.Error(t, err)
	assert.Empty(t, auditRepo.events)
}
