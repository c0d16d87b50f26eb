package screening

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
	repo        repository.ScreeningRepository
	patientRepo repository.PatientRepository
	outboxRepo  repository.OutboxRepository
	auditor     *audit.Service
	logger      zerolog.Logger
}

func NewService(
	repo repository.ScreeningRepository,
	patientRepo repository.PatientRepository,
	outboxRepo repository.OutboxRepository,
	auditor *audit.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		outboxRepo:  outboxRepo,
		auditor:     auditor,
		logger:      logger,
	}
}

func (s *Service) Create(ctx context.Context, screening *model.Screening) (*model.Screening, error) {
	// The session must belong to a known patient.
	if _, err := s.patientRepo.Get(ctx, screening.PatientID); err != nil {
		return nil, err
	}

	screening.ID = uuid.New()
	screening.CreatedAt = time.Now()
	screening.UpdatedAt = screening.CreatedAt
	if screening.Status == "" {
		screening.Status = string(model.ScreeningStatusScheduled)
	}

	if err := s.repo.Create(ctx, screening); err != nil {
		return nil, fmt.Errorf("failed to create screening: %w", err)
	}

	s.emitEvent(ctx, "SCREENING_CREATE", screening)
	return screening, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Screening, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateScreeningRequest) (*model.Screening, error) {
	screening, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.VisualAcuityL != nil {
		screening.VisualAcuityL = *req.VisualAcuityL
	}
	if req.VisualAcuityR != nil {
		screening.VisualAcuityR = *req.VisualAcuityR
	}
	if req.ColorVision != nil {
		screening.ColorVision = req.ColorVision
	}
	if req.Referral != nil {
		screening.Referral = *req.Referral
	}
	if req.ReferralReason != nil {
		screening.ReferralReason = req.ReferralReason
	}
	if req.Notes != nil {
		screening.Notes = req.Notes
	}
	if req.Status != nil {
		screening.Status = *req.Status
		if *req.Status == string(model.ScreeningStatusCompleted) && screening.CompletedAt == nil {
			now := time.Now()
			screening.CompletedAt = &now
		}
	}
	screening.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, screening); err != nil {
		return nil, fmt.Errorf("failed to update screening: %w", err)
	}

	s.emitEvent(ctx, "SCREENING_UPDATE", screening)
	return screening, nil
}

// Delete removes a screening session. Soft deletion marks the session
// inactive and is reversible; force deletion destroys the row. A store
// failure propagates so the handler never reports a delete that did
// not happen.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, force bool, actor audit.Actor) error {
	var err error
	mode := "soft"
	if force {
		mode = "hard"
		err = s.repo.HardDelete(ctx, id)
	} else {
		err = s.repo.SoftDelete(ctx, id)
	}
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, model.EventTypeScreeningDelete,
		fmt.Sprintf("screening %s deleted (%s)", id, mode), actor)
	s.emitEvent(ctx, "SCREENING_DELETE", map[string]string{"id": id.String(), "mode": mode})
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.ScreeningFilters) ([]*model.Screening, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Screening, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

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
