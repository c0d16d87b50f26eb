package model

import (
	"time"

	"github.com/google/uuid"
)

type ScreeningStatus string

const (
	ScreeningStatusScheduled ScreeningStatus = "scheduled"
	ScreeningStatusCompleted ScreeningStatus = "completed"
	ScreeningStatusInactive  ScreeningStatus = "inactive"
)

// Screening is one vision-screening session for a patient. Soft
// deletion flips Status to inactive; hard deletion removes the row.
type Screening struct {
	Base
	PatientID      uuid.UUID  `json:"patient_id" db:"patient_id"`
	ScreenedBy     uuid.UUID  `json:"screened_by" db:"screened_by"`
	ScreeningDate  time.Time  `json:"screening_date" db:"screening_date"`
	VisualAcuityL  string     `json:"visual_acuity_left" db:"visual_acuity_left"`
	VisualAcuityR  string     `json:"visual_acuity_right" db:"visual_acuity_right"`
	ColorVision    *string    `json:"color_vision" db:"color_vision"`
	Referral       bool       `json:"referral" db:"referral"`
	ReferralReason *string    `json:"referral_reason" db:"referral_reason"`
	Notes          *string    `json:"notes" db:"notes"`
	Status         string     `json:"status" db:"status"`
	CompletedAt    *time.Time `json:"completed_at" db:"completed_at"`
}

type CreateScreeningRequest struct {
	PatientID      string  `json:"patient_id" binding:"required,uuid"`
	ScreeningDate  string  `json:"screening_date" binding:"required,datetime=2006-01-02"`
	VisualAcuityL  string  `json:"visual_acuity_left" binding:"required,acuity"`
	VisualAcuityR  string  `json:"visual_acuity_right" binding:"required,acuity"`
	ColorVision    *string `json:"color_vision"`
	Referral       bool    `json:"referral"`
	ReferralReason *string `json:"referral_reason"`
	Notes          *string `json:"notes"`
}

type UpdateScreeningRequest struct {
	VisualAcuityL  *string `json:"visual_acuity_left" binding:"omitempty,acuity"`
	VisualAcuityR  *string `json:"visual_acuity_right" binding:"omitempty,acuity"`
	ColorVision    *string `json:"color_vision"`
	Referral       *bool   `json:"referral"`
	ReferralReason *string `json:"referral_reason"`
	Notes          *string `json:"notes"`
	Status         *string `json:"status" binding:"omitempty,oneof=scheduled completed inactive"`
}

type ScreeningFilters struct {
	PatientID string `json:"patient_id" form:"patient_id"`
	Status    string `json:"status" form:"status"`
	From      string `json:"from" form:"from"`
	To        string `json:"to" form:"to"`
}
