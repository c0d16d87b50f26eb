package screening

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
	"github.com/opticheck/screening-api/internal/service/audit"
	apperrors "github.com/opticheck/screening-api/pkg/errors"
)

type fakeScreenings struct {
	byID      map[uuid.UUID]*model.Screening
	deleteErr error
}

var _ repository.ScreeningRepository = (*fakeScreenings)(nil)

func (f *fakeScreenings) Create(_ context.Context, s *model.Screening) error {
	if f.byID == nil {
		f.byID = map[uuid.UUID]*model.Screening{}
	}
	cpy := *s
	f.byID[s.ID] = &cpy
	return nil
}

func (f *fakeScreenings) Get(_ context.Context, id uuid.UUID) (*model.Screening, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("screening", nil)
	}
	c := *s
	return &c, nil
}

func (f *fakeScreenings) Update(_ context.Context, s *model.Screening) error {
	if _, ok := f.byID[s.ID]; !ok {
		return apperrors.NotFound("screening", nil)
	}
	cpy := *s
	f.byID[s.ID] = &cpy
	return nil
}

func (f *fakeScreenings) SoftDelete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	s, ok := f.byID[id]
	if !ok {
		return apperrors.NotFound("screening", nil)
	}
	s.Status = string(model.ScreeningStatusInactive)
	return nil
}

func (f *fakeScreenings) HardDelete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return apperrors.NotFound("screening", nil)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeScreenings) List(_ context.Context, _ *model.ScreeningFilters) ([]*model.Screening, error) {
	var out []*model.Screening
	for _, s := range f.byID {
		c := *s
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeScreenings) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Screening, error) {
	var out []*model.Screening
	for _, s := range f.byID {
		if s.PatientID == patientID {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakePatients struct {
	byID map[uuid.UUID]*model.Patient
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

func (f *fakePatients) Update(_ context.Context, _ *model.Patient) error { return nil }
func (f *fakePatients) Delete(_ context.Context, _ uuid.UUID) error      { return nil }
func (f *fakePatients) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
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
func (f *fakeOutbox) MarkProcessed(_ context.Context, _ uuid.UUID) error      { return nil }
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

func newFixture(t *testing.T) (*Service, *fakeScreenings, *fakePatients, *fakeOutbox, *recordingAuditRepo) {
	t.Helper()
	screenings := &fakeScreenings{}
	patients := &fakePatients{}
	outbox := &fakeOutbox{}
	auditRepo := &recordingAuditRepo{}
	auditor := audit.NewService(auditRepo, "audit-secret", false, nil, zerolog.Nop())
	svc := NewService(screenings, patients, outbox, auditor, zerolog.Nop())
	return svc, screenings, patients, outbox, auditRepo
}

func seedScreening(t *testing.T, svc *Service, patients *fakePatients) *model.Screening {
	t.Helper()
	patient := &model.Patient{Base: model.Base{ID: uuid.New()}}
	require.NoError(t, patients.Create(context.Background(), patient))

	created, err := svc.Create(context.Background(), &model.Screening{
		PatientID:     patient.ID,
		ScreenedBy:    uuid.New(),
		ScreeningDate: time.Now(),
		VisualAcuityL: "20/20",
		VisualAcuityR: "20/25",
	})
	require.NoError(t, err)
	return created
}

func TestCreateRejectsUnknownPatient(t *testing.T) {
	svc, _, _, _, _ := newFixture(t)

	_, err := svc.Create(context.Background(), &model.Screening{PatientID: uuid.New()})
	assert.Error(t, err)
}

func TestSoftDeleteMarksInactive(t *testing.T) {
	svc, screenings, patients, _, auditRepo := newFixture(t)
	created := seedScreening(t, svc, patients)

	err := svc.Delete(context.Background(), created.ID, false, audit.Actor{ID: uuid.New()})
	require.NoError(t, err)

	stored := screenings.byID[created.ID]
	require.NotNil(t, stored, "soft delete must keep the row")
	assert.Equal(t, string(model.ScreeningStatusInactive), stored.Status)

	require.Len(t, auditRepo.events, 1)
	assert.Equal(t, model.EventTypeScreeningDelete, auditRepo.events[0].EventType)
	assert.Contains(t, auditRepo.events[0].Description, "soft")
}

func TestHardDeleteRemovesRow(t *testing.T) {
	svc, screenings, patients, _, auditRepo := newFixture(t)
	created := seedScreening(t, svc, patients)

	err := svc.Delete(context.Background(), created.ID, true, audit.Actor{ID: uuid.New()})
	require.NoError(t, err)

	assert.NotContains(t, screenings.byID, created.ID)
	require.Len(t, auditRepo.events, 1)
	assert.Contains(t, auditRepo.events[0].Description, "hard")
}

func TestDeletePersistenceFailurePropagates(t *testing.T) {
	svc, screenings, patients, _, auditRepo := newFixture(t)
	created := seedScreening(t, svc, patients)

	screenings.deleteErr = errors.New("store down")
	err := svc.Delete(context.Background(), created.ID, true, audit.Actor{})
	assert.Error(t, err, "a failed delete must not report success")
	assert.Empty(t, auditRepo.events, "no audit entry for an aborted delete")
}

func TestUpdateSetsCompletedAt(t *testing.T) {
	svc, _, patients, _, _ := newFixture(t)
	created := seedScreening(t, svc, patients)

	status := string(model.ScreeningStatusCompleted)
	updated, err := svc.Update(context.Background(), created.ID, &model.UpdateScreeningRequest{Status: &status})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
}

func TestDeleteEmitsOutboxEvent(t *testing.T) {
	svc, _, patients, outbox, _ := newFixture(t)
	created := seedScreening(t, svc, patients)

	require.NoError(t, svc.Delete(context.Background(), created.ID, false, audit.Actor{}))

	var found bool
	for _, e := range outbox.events {
		if e.EventType == "SCREENING_DELETE" {
			found = true
		}
	}
	assert.True(t, found)
}
