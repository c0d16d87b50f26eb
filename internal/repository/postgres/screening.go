package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
	apperrors "github.com/opticheck/screening-api/pkg/errors"
)

type screeningRepository struct {
	BaseRepository
}

func NewScreeningRepository(base BaseRepository) repository.ScreeningRepository {
	return &screeningRepository{base}
}

func (r *screeningRepository) Create(ctx context.Context, screening *model.Screening) error {
	query := `
		INSERT INTO screenings (
			id, patient_id, screened_by, screening_date,
			visual_acuity_left, visual_acuity_right, color_vision,
			referral, referral_reason, notes, status, completed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		screening.ID, screening.PatientID, screening.ScreenedBy, screening.ScreeningDate,
		screening.VisualAcuityL, screening.VisualAcuityR, screening.ColorVision,
		screening.Referral, screening.ReferralReason, screening.Notes,
		screening.Status, screening.CompletedAt,
		screening.CreatedAt, screening.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create screening: %w", err)
	}
	return nil
}

func (r *screeningRepository) Get(ctx context.Context, id uuid.UUID) (*model.Screening, error) {
	var screening model.Screening
	err := r.GetDB().GetContext(ctx, &screening, `SELECT * FROM screenings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("screening", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screening: %w", err)
	}
	return &screening, nil
}

func (r *screeningRepository) Update(ctx context.Context, screening *model.Screening) error {
	query := `
		UPDATE screenings SET
			visual_acuity_left = $2, visual_acuity_right = $3, color_vision = $4,
			referral = $5, referral_reason = $6, notes = $7, status = $8,
			completed_at = $9, updated_at = $10
		WHERE id = $1
	`
	result, err := r.GetDB().ExecContext(ctx, query,
		screening.ID, screening.VisualAcuityL, screening.VisualAcuityR,
		screening.ColorVision, screening.Referral, screening.ReferralReason,
		screening.Notes, screening.Status, screening.CompletedAt, screening.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update screening: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("screening", nil)
	}
	return nil
}

func (r *screeningRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE screenings SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.GetDB().ExecContext(ctx, query, id, model.ScreeningStatusInactive)
	if err != nil {
		return fmt.Errorf("failed to soft delete screening: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("screening", nil)
	}
	return nil
}

func (r *screeningRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.GetDB().ExecContext(ctx, `DELETE FROM screenings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete screening: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("screening", nil)
	}
	return nil
}

func (r *screeningRepository) List(ctx context.Context, filters *model.ScreeningFilters) ([]*model.Screening, error) {
	query := `SELECT * FROM screenings WHERE 1=1`
	var args []interface{}

	if filters != nil {
		if filters.PatientID != "" {
			args = append(args, filters.PatientID)
			query += fmt.Sprintf(" AND patient_id = $%d", len(args))
		}
		if filters.Status != "" {
			args = append(args, filters.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filters.From != "" {
			args = append(args, filters.From)
			query += fmt.Sprintf(" AND screening_date >= $%d", len(args))
		}
		if filters.To != "" {
			args = append(args, filters.To)
			query += fmt.Sprintf(" AND screening_date <= $%d", len(args))
		}
	}
	query += " ORDER BY screening_date DESC"

	var screenings []*model.Screening
	if err := r.GetDB().SelectContext(ctx, &screenings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list screenings: %w", err)
	}
	return screenings, nil
}

func (r *screeningRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Screening, error) {
	var screenings []*model.Screening
	query := `SELECT * FROM screenings WHERE patient_id = $1 ORDER BY screening_date DESC`
	if err := r.GetDB().SelectContext(ctx, &screenings, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list screenings for patient: %w", err)
	}
	return screenings, nil
}
