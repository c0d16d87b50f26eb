package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
	apperrors "github.com/opticheck/screening-api/pkg/errors"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, first_name, last_name, date_of_birth, gender, school, grade,
			parent_id, teacher_id, parent_email, wears_glasses, notes, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		patient.ID, patient.FirstName, patient.LastName, patient.DateOfBirth,
		patient.Gender, patient.School, patient.Grade,
		patient.ParentID, patient.TeacherID, patient.ParentEmail,
		patient.WearsGlasses, patient.Notes, patient.Status,
		patient.CreatedAt, patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	err := r.GetDB().GetContext(ctx, &patient, `SELECT * FROM patients WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients SET
			first_name = $2, last_name = $3, school = $4, grade = $5,
			parent_id = $6, teacher_id = $7, parent_email = $8,
			wears_glasses = $9, notes = $10, status = $11, updated_at = $12
		WHERE id = $1
	`
	result, err := r.GetDB().ExecContext(ctx, query,
		patient.ID, patient.FirstName, patient.LastName, patient.School,
		patient.Grade, patient.ParentID, patient.TeacherID, patient.ParentEmail,
		patient.WearsGlasses, patient.Notes, patient.Status, patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("patient", nil)
	}
	return nil
}

// Delete removes the patient row and its screenings in one transaction.
func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM screenings WHERE patient_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete patient screenings: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperrors.NotFound("patient", nil)
		}
		return nil
	})
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `SELECT * FROM patients WHERE 1=1`
	var args []interface{}

	if filters != nil {
		if filters.School != "" {
			args = append(args, filters.School)
			query += fmt.Sprintf(" AND school = $%d", len(args))
		}
		if filters.Grade != "" {
			args = append(args, filters.Grade)
			query += fmt.Sprintf(" AND grade = $%d", len(args))
		}
		if filters.Status != "" {
			args = append(args, filters.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filters.SearchTerm != "" {
			args = append(args, "%"+filters.SearchTerm+"%")
			query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d)", len(args), len(args))
		}
	}
	query += " ORDER BY last_name, first_name"

	var patients []*model.Patient
	if err := r.GetDB().SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
