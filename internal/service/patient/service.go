package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
	"github.com/opticheck/screening-api/internal/service/audit"
)

type Service struct {
	repo       repository.PatientRepository
	outboxRepo repository.OutboxRepository
	auditor    *audit.Service
	logger     zerolog.Logger
}

func NewService(repo repository.PatientRepository, outboxRepo repository.OutboxRepository, auditor *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
		auditor:    auditor,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, patient *model.Patient) (*model.Patient, error) {
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt
	if patient.Status == "" {
		patient.Status = string(model.PatientStatusActive)
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.emitEvent(ctx, "PATIENT_CREATE", patient)
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.School != nil {
		patient.School = *req.School
	}
	if req.Grade != nil {
		patient.Grade = *req.Grade
	}
	if req.ParentEmail != nil {
		patient.ParentEmail = req.ParentEmail
	}
	if req.WearsGlasses != nil {
		patient.WearsGlasses = *req.WearsGlasses
	}
	if req.Notes != nil {
		patient.Notes = req.Notes
	}
	if req.Status != nil {
		patient.Status = *req.Status
	}
	patient.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	s.emitEvent(ctx, "PATIENT_UPDATE", patient)
	return patient, nil
}

// Delete destroys the patient record and its screenings. The route
// gate has already checked the caller's role; a persistence failure
// here aborts the request.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor audit.Actor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(ctx, model.EventTypePatientDelete,
		fmt.Sprintf("patient %s deleted", id), actor)
	s.emitEvent(ctx, "PATIENT_DELETE", map[string]string{"id": id.String()})
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return s.repo.List(ctx, filters)
}

// emitEvent is best-effort: the outbox row rides along for downstream
// consumers, it never fails the primary write.
func (s *Service) emitEvent(ctx context.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal outbox payload")
		return
	}
	if err := s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to create outbox event")
	}
}
