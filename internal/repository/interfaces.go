package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/opticheck/screening-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
}

type ScreeningRepository interface {
	Create(ctx context.Context, screening *model.Screening) error
	Get(ctx context.Context, id uuid.UUID) (*model.Screening, error)
	Update(ctx context.Context, screening *model.Screening) error
	// SoftDelete marks the screening inactive; HardDelete removes the row.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.ScreeningFilters) ([]*model.Screening, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Screening, error)
}

// AuditRepository is append-only: entries are never updated or removed.
type AuditRepository interface {
	Create(ctx context.Context, event *model.SecurityEvent) error
	List(ctx context.Context, filters *model.SecurityEventFilters) ([]*model.SecurityEvent, error)
}

type TokenRepository interface {
	StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
	ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
	InvalidateResetToken(ctx context.Context, token string) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}
