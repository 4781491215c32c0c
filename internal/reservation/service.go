package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/roomhub/meeting-room-backend/internal/audit"
	"github.com/roomhub/meeting-room-backend/internal/identity"
	"github.com/roomhub/meeting-room-backend/internal/notify"
	"github.com/roomhub/meeting-room-backend/internal/pkg/clock"
	"github.com/roomhub/meeting-room-backend/internal/room"
)

type CreateRequest struct {
	RoomID    string
	Start     time.Time
	End       time.Time
	PartySize int
	Purpose   string
}

type EditRequest struct {
	RoomID    *string
	Start     *time.Time
	End       *time.Time
	PartySize *int
	Purpose   *string
}

// RoomGetter is the slice of the room service the engine needs: capacity and
// existence checks. Keeping it narrow also keeps the dependency one-way.
type RoomGetter interface {
	GetByID(ctx context.Context, id string) (*room.Room, error)
}

// Service owns the reservation lifecycle. It is the sole writer of Status;
// no other code path assigns that field.
type Service interface {
	Create(ctx context.Context, actor identity.Actor, req CreateRequest) (*Reservation, error)
	Edit(ctx context.Context, actor identity.Actor, id string, req EditRequest) (*Reservation, error)
	Cancel(ctx context.Context, actor identity.Actor, id string, reason string) (*Reservation, error)
	Approve(ctx context.Context, actor identity.Actor, id string) (*Reservation, error)
	Reject(ctx context.Context, actor identity.Actor, id string, reason string) (*Reservation, error)
	List(ctx context.Context, actor identity.Actor, filter Filter) ([]*Reservation, int, error)
	GetByID(ctx context.Context, actor identity.Actor, id string) (*Reservation, error)
	ResolveAvailability(ctx context.Context, roomID string) (*Availability, error)
}

type service struct {
	repo     Repository
	rooms    RoomGetter
	clock    clock.Clock
	notifier notify.Notifier
	auditlog audit.Recorder
}

func NewService(repo Repository, rooms RoomGetter, clk clock.Clock, notifier notify.Notifier, auditlog audit.Recorder) Service {
	return &service{
		repo:     repo,
		rooms:    rooms,
		clock:    clk,
		notifier: notifier,
		auditlog: auditlog,
	}
}

func (s *service) Create(ctx context.Context, actor identity.Actor, req CreateRequest) (*Reservation, error) {
	now := s.clock.Now().UTC()

	if !req.End.After(req.Start) {
		return nil, ErrInvalidTimeRange
	}
	if req.Start.Before(now.Add(-StartGrace)) {
		return nil, ErrStartTimePast
	}

	rm, err := s.activeRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if req.PartySize < 1 {
		return nil, ErrInvalidPartySize
	}
	if req.PartySize > rm.Capacity {
		return nil, &CapacityError{PartySize: req.PartySize, Capacity: rm.Capacity}
	}

	// Admin reservations are auto-approved.
	status := StatusPending
	if actor.IsAdmin() {
		status = StatusConfirmed
	}

	rsv := &Reservation{
		RoomID:    req.RoomID,
		UserID:    actor.ID,
		Start:     req.Start,
		End:       req.End,
		PartySize: req.PartySize,
		Purpose:   req.Purpose,
		Status:    status,
	}

	var expired []*Reservation
	err = s.writeWithRetry(ctx, req.RoomID, func(tx Repository) error {
		var txErr error
		// Expire stale pendings first so they cannot veto the new interval.
		expired, txErr = tx.ExpireStale(ctx, req.RoomID, now)
		if txErr != nil {
			return txErr
		}
		conflict, txErr := tx.FindConflict(ctx, req.RoomID, req.Start, req.End, "")
		if txErr != nil {
			return txErr
		}
		if conflict != nil {
			return &ConflictError{ConflictingID: conflict.ID}
		}
		return tx.Create(ctx, rsv)
	})
	if err != nil {
		return nil, err
	}

	s.emitExpired(ctx, expired)
	kind := notify.KindCreated
	if rsv.Status == StatusConfirmed {
		kind = notify.KindApproved
	}
	s.emit(ctx, kind, rsv, "")
	s.record(ctx, actor.ID, "reservation.created", rsv)

	rsv.RoomName = rm.Name
	return rsv, nil
}

func (s *service) Edit(ctx context.Context, actor identity.Actor, id string, req EditRequest) (*Reservation, error) {
	now := s.clock.Now().UTC()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && current.UserID != actor.ID {
		return nil, ErrPermissionDenied
	}

	targetRoomID := current.RoomID
	if req.RoomID != nil {
		targetRoomID = *req.RoomID
	}
	newStart := current.Start
	if req.Start != nil {
		newStart = *req.Start
	}
	newEnd := current.End
	if req.End != nil {
		newEnd = *req.End
	}
	newPartySize := current.PartySize
	if req.PartySize != nil {
		newPartySize = *req.PartySize
	}

	if !newEnd.After(newStart) {
		return nil, ErrInvalidTimeRange
	}
	if req.Start != nil && newStart.Before(now.Add(-StartGrace)) {
		return nil, ErrStartTimePast
	}

	rm, err := s.activeRoom(ctx, targetRoomID)
	if err != nil {
		return nil, err
	}
	if newPartySize < 1 {
		return nil, ErrInvalidPartySize
	}
	if newPartySize > rm.Capacity {
		return nil, &CapacityError{PartySize: newPartySize, Capacity: rm.Capacity}
	}

	var updated *Reservation
	var expired []*Reservation
	err = s.writeWithRetry(ctx, targetRoomID, func(tx Repository) error {
		expired = expired[:0]
		swept, txErr := tx.ExpireStale(ctx, targetRoomID, now)
		if txErr != nil {
			return txErr
		}
		expired = append(expired, swept...)
		if current.RoomID != targetRoomID {
			swept, txErr = tx.ExpireStale(ctx, current.RoomID, now)
			if txErr != nil {
				return txErr
			}
			expired = append(expired, swept...)
		}

		fresh, txErr := tx.GetByID(ctx, id)
		if txErr != nil {
			return txErr
		}
		if fresh.Status == StatusCancelled {
			return &TransitionError{From: fresh.Status, Action: "edit"}
		}

		conflict, txErr := tx.FindConflict(ctx, targetRoomID, newStart, newEnd, id)
		if txErr != nil {
			return txErr
		}
		if conflict != nil {
			return &ConflictError{ConflictingID: conflict.ID}
		}

		fresh.RoomID = targetRoomID
		fresh.Start = newStart
		fresh.End = newEnd
		fresh.PartySize = newPartySize
		if req.Purpose != nil {
			fresh.Purpose = *req.Purpose
		}
		if txErr := tx.Update(ctx, fresh); txErr != nil {
			return txErr
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitExpired(ctx, expired)
	s.record(ctx, actor.ID, "reservation.edited", updated)
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, actor identity.Actor, id string, reason string) (*Reservation, error) {
	now := s.clock.Now().UTC()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && current.UserID != actor.ID {
		return nil, ErrPermissionDenied
	}

	var updated *Reservation
	var expired []*Reservation
	err = s.repo.InRoomTx(ctx, current.RoomID, func(tx Repository) error {
		var txErr error
		expired, txErr = tx.ExpireStale(ctx, current.RoomID, now)
		if txErr != nil {
			return txErr
		}

		fresh, txErr := tx.GetByID(ctx, id)
		if txErr != nil {
			return txErr
		}
		if fresh.Status == StatusCancelled {
			return &TransitionError{From: fresh.Status, Action: "cancel"}
		}
		if txErr := CancelAllowed(actor.Role, fresh.Status, now, fresh.Start); txErr != nil {
			return txErr
		}

		fresh.Status = StatusCancelled
		fresh.CancelReason = reason
		if txErr := tx.Update(ctx, fresh); txErr != nil {
			return txErr
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitExpired(ctx, expired)
	s.emit(ctx, notify.KindCancelled, updated, reason)
	s.record(ctx, actor.ID, "reservation.cancelled", updated)
	return updated, nil
}

func (s *service) Approve(ctx context.Context, actor identity.Actor, id string) (*Reservation, error) {
	return s.review(ctx, actor, id, "approve", "")
}

func (s *service) Reject(ctx context.Context, actor identity.Actor, id string, reason string) (*Reservation, error) {
	return s.review(ctx, actor, id, "reject", reason)
}

// review handles the two admin-only decisions on a pending reservation.
func (s *service) review(ctx context.Context, actor identity.Actor, id, action, reason string) (*Reservation, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	now := s.clock.Now().UTC()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *Reservation
	var expired []*Reservation
	err = s.repo.InRoomTx(ctx, current.RoomID, func(tx Repository) error {
		var txErr error
		// A stale pending must expire before it can be approved.
		expired, txErr = tx.ExpireStale(ctx, current.RoomID, now)
		if txErr != nil {
			return txErr
		}

		fresh, txErr := tx.GetByID(ctx, id)
		if txErr != nil {
			return txErr
		}
		if fresh.Status != StatusPending {
			return &TransitionError{From: fresh.Status, Action: action}
		}

		if action == "approve" {
			fresh.Status = StatusConfirmed
		} else {
			fresh.Status = StatusCancelled
			fresh.CancelReason = reason
		}
		if txErr := tx.Update(ctx, fresh); txErr != nil {
			return txErr
		}
		updated = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitExpired(ctx, expired)
	if action == "approve" {
		s.emit(ctx, notify.KindApproved, updated, "")
		s.record(ctx, actor.ID, "reservation.approved", updated)
	} else {
		s.emit(ctx, notify.KindRejected, updated, reason)
		s.record(ctx, actor.ID, "reservation.rejected", updated)
	}
	return updated, nil
}

func (s *service) List(ctx context.Context, actor identity.Actor, filter Filter) ([]*Reservation, int, error) {
	// Non-admins only ever see their own reservations.
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}

	if err := s.sweep(ctx, filter.RoomID); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

func (s *service) GetByID(ctx context.Context, actor identity.Actor, id string) (*Reservation, error) {
	rsv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && rsv.UserID != actor.ID {
		return nil, ErrPermissionDenied
	}

	if err := s.sweep(ctx, rsv.RoomID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// sweep lazily expires stale pendings on the room (or all rooms when roomID
// is empty) and publishes the resulting events. Every read path goes through
// here before returning results.
func (s *service) sweep(ctx context.Context, roomID string) error {
	expired, err := s.repo.ExpireStale(ctx, roomID, s.clock.Now().UTC())
	if err != nil {
		return err
	}
	s.emitExpired(ctx, expired)
	return nil
}

// activeRoom loads a room and hides inactive ones from the engine.
func (s *service) activeRoom(ctx context.Context, roomID string) (*room.Room, error) {
	rm, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !rm.IsActive {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// writeWithRetry runs fn inside the per-room atomic unit, retrying exactly
// once when the store reports a concurrent overlapping write.
func (s *service) writeWithRetry(ctx context.Context, roomID string, fn func(tx Repository) error) error {
	err := s.repo.InRoomTx(ctx, roomID, fn)
	if errors.Is(err, errConcurrentWrite) {
		err = s.repo.InRoomTx(ctx, roomID, fn)
		if errors.Is(err, errConcurrentWrite) {
			return ErrTimeConflict
		}
	}
	return err
}

func (s *service) emit(ctx context.Context, kind notify.Kind, rsv *Reservation, reason string) {
	// Fire-and-forget: the notifier logs its own failures.
	_ = s.notifier.Publish(ctx, notify.Event{
		Kind:          kind,
		ReservationID: rsv.ID,
		RoomID:        rsv.RoomID,
		UserID:        rsv.UserID,
		Start:         rsv.Start,
		End:           rsv.End,
		Status:        string(rsv.Status),
		Reason:        reason,
		OccurredAt:    s.clock.Now().UTC(),
	})
}

func (s *service) emitExpired(ctx context.Context, expired []*Reservation) {
	for _, rsv := range expired {
		s.emit(ctx, notify.KindExpired, rsv, ExpiredReason)
		s.auditlog.Record(ctx, audit.Entry{
			ActorID:    "system",
			Action:     "reservation.expired",
			EntityType: "reservation",
			EntityID:   rsv.ID,
			Details:    map[string]any{"room_id": rsv.RoomID, "reason": ExpiredReason},
		})
	}
}

func (s *service) record(ctx context.Context, actorID, action string, rsv *Reservation) {
	s.auditlog.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: "reservation",
		EntityID:   rsv.ID,
		Details: map[string]any{
			"room_id":    rsv.RoomID,
			"start_time": rsv.Start,
			"end_time":   rsv.End,
			"status":     string(rsv.Status),
		},
	})
}
