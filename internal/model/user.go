package model

import (
	"time"

	"github.com/opticheck/screening-api/pkg/authz"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusPending  = "pending"
	UserStatusLocked   = "locked"
)

// User represents a portal account: staff, clinician, teacher or parent.
// Role values come from the canonical authz set; nothing else is
// accepted at the API boundary.
type User struct {
	Base
	Email            string     `json:"email" db:"email"`
	Name             string     `json:"name" db:"name"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Phone            *string    `json:"phone" db:"phone"`
	Role             authz.Role `json:"role" db:"role"`
	Portal           string     `json:"portal" db:"portal"`
	Status           string     `json:"status" db:"status"`
	Permissions      []string   `json:"permissions,omitempty" db:"-"`
	LastLoginAt      *time.Time `json:"last_login_at" db:"last_login_at"`
	LoginAttempts    int        `json:"-" db:"login_attempts"`
	LastLoginAttempt time.Time  `json:"-" db:"last_login_attempt"`
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
	Portal   string `json:"portal" binding:"required,oneof=medical school parent"`
}

// UpdateUserRequest represents user update parameters
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Phone  *string `json:"phone"`
	Status *string `json:"status" binding:"omitempty,oneof=active inactive pending locked"`
	Role   *string `json:"role"`
}

// UserFilters narrows user listings.
type UserFilters struct {
	Role       string `json:"role" form:"role"`
	Status     string `json:"status" form:"status"`
	SearchTerm string `json:"search_term" form:"search_term"`
}
