package http

import (
	"time"

	"github.com/roomhub/meeting-room-backend/internal/reservation"
	roomHttp "github.com/roomhub/meeting-room-backend/internal/room/http"
	userHttp "github.com/roomhub/meeting-room-backend/internal/user/http"
)

type CreateReservationBody struct {
	RoomID    string    `json:"room_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	PartySize int       `json:"party_size" binding:"required,min=1"`
	Purpose   string    `json:"purpose"`
}

type EditReservationBody struct {
	RoomID    *string    `json:"room_id" binding:"omitempty,uuid"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	PartySize *int       `json:"party_size" binding:"omitempty,min=1"`
	Purpose   *string    `json:"purpose"`
}

type ReasonBody struct {
	Reason string `json:"reason"`
}

type ReservationResponse struct {
	ID           string            `json:"id"`
	Room         roomHttp.RoomTag  `json:"room"`
	User         userHttp.UserTag  `json:"user"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	PartySize    int               `json:"party_size"`
	Purpose      string            `json:"purpose,omitempty"`
	Status       string            `json:"status"`
	CancelReason string            `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func NewReservationResponse(rsv *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:           rsv.ID,
		Room:         roomHttp.RoomTag{ID: rsv.RoomID, Name: rsv.RoomName},
		User:         userHttp.UserTag{ID: rsv.UserID, Name: rsv.UserName},
		StartTime:    rsv.Start,
		EndTime:      rsv.End,
		PartySize:    rsv.PartySize,
		Purpose:      rsv.Purpose,
		Status:       string(rsv.Status),
		CancelReason: rsv.CancelReason,
		CreatedAt:    rsv.CreatedAt,
		UpdatedAt:    rsv.UpdatedAt,
	}
}
