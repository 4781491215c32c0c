package user

import (
	"net/http"
	"time"

	"github.com/roomhub/meeting-room-backend/internal/identity"
	"github.com/roomhub/meeting-room-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrInactiveUser       = apperror.New(http.StatusForbidden, "user is inactive")
	ErrEmailRequired      = apperror.New(http.StatusBadRequest, "email is required")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, "password must be at least 8 characters")
)

// User represents an account in the system.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Role         identity.Role
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Filter defines filter options for listing users.
type Filter struct {
	Email    string
	Role     string
	IsActive *bool
	Page     int
	PageSize int
}
