package reservation

import (
	"fmt"
	"net/http"
	"time"

	"github.com/roomhub/meeting-room-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "reservation not found")
	ErrRoomNotFound      = apperror.New(http.StatusNotFound, "room not found")
	ErrTimeConflict      = apperror.New(http.StatusConflict, "time slot already booked")
	ErrInvalidTimeRange  = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrStartTimePast     = apperror.New(http.StatusBadRequest, "cannot create reservation in the past")
	ErrInvalidPartySize  = apperror.New(http.StatusBadRequest, "party size must be at least 1")
	ErrCapacityExceeded  = apperror.New(http.StatusBadRequest, "party size exceeds room capacity")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvalidTransition = apperror.New(http.StatusBadRequest, "invalid status transition")
	ErrCancelConfirmed   = apperror.New(http.StatusBadRequest, "cannot cancel an approved reservation, contact an admin")
	ErrCancelWindowClosed = apperror.New(http.StatusBadRequest, "cannot cancel within 30 minutes of the start time, contact an admin")
)

// ExpiredReason is the fixed system reason written by the expiry sweep.
const ExpiredReason = "not approved before start time"

// StartGrace is how far in the past a start time may lie before creation is
// rejected. It absorbs client and network clock skew.
const StartGrace = 5 * time.Minute

// CancelWindow is the cutoff before the start time after which non-admin
// owners may no longer cancel.
const CancelWindow = 30 * time.Minute

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Active reports whether the status participates in the no-overlap invariant.
// Cancelled reservations are historical records only.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Reservation is a request to occupy a room for [Start, End).
// Status is mutated only by the Service's transition operations.
type Reservation struct {
	ID           string
	RoomID       string
	RoomName     string
	UserID       string
	UserName     string
	Start        time.Time
	End          time.Time
	PartySize    int
	Purpose      string
	Status       Status
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filter defines parameters for listing reservations.
type Filter struct {
	RoomID    string
	UserID    string
	Status    string
	StartFrom *time.Time // reservations starting at or after this time
	StartTo   *time.Time // reservations starting at or before this time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ConflictError reports which active reservation blocks a requested interval.
// It unwraps to ErrTimeConflict so callers can match with errors.Is.
type ConflictError struct {
	ConflictingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time slot already booked by reservation %s", e.ConflictingID)
}

func (e *ConflictError) Unwrap() error {
	return ErrTimeConflict
}

// CapacityError reports a party size over the room capacity.
// It unwraps to ErrCapacityExceeded.
type CapacityError struct {
	PartySize int
	Capacity  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("party size %d exceeds room capacity %d", e.PartySize, e.Capacity)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// TransitionError reports a transition attempted from the wrong status.
// It unwraps to ErrInvalidTransition.
type TransitionError struct {
	From   Status
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a reservation with status %q", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
