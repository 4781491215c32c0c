package http

import (
	"time"

	"github.com/roomhub/meeting-room-backend/internal/reservation"
	"github.com/roomhub/meeting-room-backend/internal/room"
)

type CreateRoomBody struct {
	Code        string   `json:"code" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Type        string   `json:"type" binding:"required,oneof=small medium large"`
	Capacity    int      `json:"capacity" binding:"required,min=1"`
	Description string   `json:"description"`
	Equipment   []string `json:"equipment"`
}

type UpdateRoomBody struct {
	Name        *string   `json:"name"`
	Type        *string   `json:"type" binding:"omitempty,oneof=small medium large"`
	Capacity    *int      `json:"capacity" binding:"omitempty,min=1"`
	Description *string   `json:"description"`
	Equipment   *[]string `json:"equipment"`
	IsActive    *bool     `json:"is_active"`
}

type RoomResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
	Equipment   []string  `json:"equipment"`
	ImagePath   string    `json:"image_path,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewRoomResponse(rm *room.Room) RoomResponse {
	equipment := rm.Equipment
	if equipment == nil {
		equipment = []string{}
	}
	return RoomResponse{
		ID:          rm.ID,
		Code:        rm.Code,
		Name:        rm.Name,
		Type:        string(rm.Type),
		Capacity:    rm.Capacity,
		Description: rm.Description,
		Equipment:   equipment,
		ImagePath:   rm.ImagePath,
		IsActive:    rm.IsActive,
		CreatedAt:   rm.CreatedAt,
		UpdatedAt:   rm.UpdatedAt,
	}
}

// RoomTag is the minimal room reference embedded in other responses.
type RoomTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type OccupantTag struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type AvailabilityResponse struct {
	Status   string       `json:"status"`
	Occupant *OccupantTag `json:"occupant,omitempty"`
}

func NewAvailabilityResponse(av *reservation.Availability) AvailabilityResponse {
	resp := AvailabilityResponse{Status: string(av.Status)}
	if av.OccupantID != "" {
		resp.Occupant = &OccupantTag{ID: av.OccupantID, Name: av.OccupantName}
	}
	return resp
}
