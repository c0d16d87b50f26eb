package model

import (
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

// Patient is a screened student. Parent and school links are plain
// references; guardianship bookkeeping lives with the school system.
type Patient struct {
	Base
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	DateOfBirth  time.Time  `json:"date_of_birth" db:"date_of_birth"`
	Gender       *string    `json:"gender" db:"gender"`
	School       string     `json:"school" db:"school"`
	Grade        string     `json:"grade" db:"grade"`
	ParentID     *uuid.UUID `json:"parent_id" db:"parent_id"`
	TeacherID    *uuid.UUID `json:"teacher_id" db:"teacher_id"`
	ParentEmail  *string    `json:"parent_email" db:"parent_email"`
	WearsGlasses bool       `json:"wears_glasses" db:"wears_glasses"`
	Notes        *string    `json:"notes" db:"notes"`
	Status       string     `json:"status" db:"status"`
}

type CreatePatientRequest struct {
	FirstName    string  `json:"first_name" binding:"required"`
	LastName     string  `json:"last_name" binding:"required"`
	DateOfBirth  string  `json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	Gender       *string `json:"gender"`
	School       string  `json:"school" binding:"required"`
	Grade        string  `json:"grade" binding:"required"`
	ParentID     *string `json:"parent_id"`
	TeacherID    *string `json:"teacher_id"`
	ParentEmail  *string `json:"parent_email" binding:"omitempty,email"`
	WearsGlasses bool    `json:"wears_glasses"`
	Notes        *string `json:"notes"`
}

type UpdatePatientRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	School       *string `json:"school"`
	Grade        *string `json:"grade"`
	ParentEmail  *string `json:"parent_email" binding:"omitempty,email"`
	WearsGlasses *bool   `json:"wears_glasses"`
	Notes        *string `json:"notes"`
	Status       *string `json:"status" binding:"omitempty,oneof=active inactive"`
}

type PatientFilters struct {
	School     string `json:"school" form:"school"`
	Grade      string `json:"grade" form:"grade"`
	Status     string `json:"status" form:"status"`
	SearchTerm string `json:"search_term" form:"search_term"`
}
