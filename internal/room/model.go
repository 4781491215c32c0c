package room

import (
	"net/http"
	"time"

	"github.com/roomhub/meeting-room-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "room not found")
	ErrEmptyName       = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrEmptyCode       = apperror.New(http.StatusBadRequest, "code cannot be empty")
	ErrInvalidType     = apperror.New(http.StatusBadRequest, "invalid room type")
	ErrInvalidCapacity = apperror.New(http.StatusBadRequest, "capacity must be at least 1")
	ErrCodeTaken       = apperror.New(http.StatusConflict, "room code already in use")
	ErrInvalidImage    = apperror.New(http.StatusBadRequest, "invalid image file")
)

type Type string

const (
	TypeSmall  Type = "small"
	TypeMedium Type = "medium"
	TypeLarge  Type = "large"
)

// ValidTypes lists the accepted room sizes.
var ValidTypes = []Type{TypeSmall, TypeMedium, TypeLarge}

// Room is a bookable meeting room with a fixed capacity. Its effective
// availability is never stored here; it is computed from active reservations
// at query time by the reservation package.
type Room struct {
	ID          string
	Code        string
	Name        string
	Type        Type
	Capacity    int
	Description string
	Equipment   []string
	ImagePath   string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter defines parameters for listing rooms.
type Filter struct {
	Type      string
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
