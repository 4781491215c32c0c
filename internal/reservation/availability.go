package reservation

import "context"

// RoomStatus is a room's effective availability, derived from its active
// reservations at query time. It is never stored on the room record.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "available"
	RoomPending   RoomStatus = "pending"
	RoomBooked    RoomStatus = "booked"
)

// Availability is the resolved display status of a room, with the occupant
// when one exists.
type Availability struct {
	Status       RoomStatus
	OccupantID   string
	OccupantName string
}

// ResolveAvailability computes the room's effective status: a confirmed
// reservation that is current or upcoming means booked, otherwise an
// unstarted pending one means pending, otherwise available. The result
// depends on wall-clock time and must be recomputed per query, never cached.
func (s *service) ResolveAvailability(ctx context.Context, roomID string) (*Availability, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}

	if err := s.sweep(ctx, roomID); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()

	confirmed, err := s.repo.FindConfirmedEndingAfter(ctx, roomID, now)
	if err != nil {
		return nil, err
	}
	if confirmed != nil {
		return &Availability{Status: RoomBooked, OccupantID: confirmed.UserID, OccupantName: confirmed.UserName}, nil
	}

	pending, err := s.repo.FindPendingStartingFrom(ctx, roomID, now)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return &Availability{Status: RoomPending, OccupantID: pending.UserID, OccupantName: pending.UserName}, nil
	}

	return &Availability{Status: RoomAvailable}, nil
}
