// Package notify publishes reservation lifecycle events to interested
// consumers (mail workers, dashboards). Delivery is fire-and-forget: a
// failed publish is logged by the implementation and never fails the
// transition that produced it.
package notify

import (
	"context"
	"time"
)

type Kind string

const (
	KindCreated   Kind = "reservation.created"
	KindApproved  Kind = "reservation.approved"
	KindRejected  Kind = "reservation.rejected"
	KindCancelled Kind = "reservation.cancelled"
	KindExpired   Kind = "reservation.expired"
)

// Event is the payload emitted on every reservation state transition.
type Event struct {
	Kind          Kind      `json:"kind"`
	ReservationID string    `json:"reservation_id"`
	RoomID        string    `json:"room_id"`
	UserID        string    `json:"user_id"`
	Start         time.Time `json:"start_time"`
	End           time.Time `json:"end_time"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Notifier interface {
	Publish(ctx context.Context, e Event) error
}
