package reservation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and local
// development. InRoomTx serializes on a per-room mutex, which gives the same
// atomicity guarantee the pgx implementation gets from advisory locks.
type MemoryRepository struct {
	mu        sync.RWMutex
	items     map[string]*Reservation
	roomLocks sync.Map // roomID -> *sync.Mutex

	roomNames map[string]string
	userNames map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items:     make(map[string]*Reservation),
		roomNames: make(map[string]string),
		userNames: make(map[string]string),
	}
}

// SetRoomName registers a display name used to populate RoomName on reads.
func (r *MemoryRepository) SetRoomName(roomID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roomNames[roomID] = name
}

// SetUserName registers a display name used to populate UserName on reads.
func (r *MemoryRepository) SetUserName(userID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userNames[userID] = name
}

func (r *MemoryRepository) roomLock(roomID string) *sync.Mutex {
	lock, _ := r.roomLocks.LoadOrStore(roomID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// clone returns a copy with display names filled in, so callers can never
// mutate stored state directly.
func (r *MemoryRepository) clone(rsv *Reservation) *Reservation {
	cp := *rsv
	cp.RoomName = r.roomNames[rsv.RoomID]
	cp.UserName = r.userNames[rsv.UserID]
	return &cp
}

func (r *MemoryRepository) Create(_ context.Context, rsv *Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rsv.ID = uuid.NewString()
	now := time.Now().UTC()
	rsv.CreatedAt = now
	rsv.UpdatedAt = now

	stored := *rsv
	r.items[rsv.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rsv, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clone(rsv), nil
}

func (r *MemoryRepository) List(_ context.Context, filter Filter) ([]*Reservation, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Reservation
	for _, rsv := range r.items {
		if filter.RoomID != "" && rsv.RoomID != filter.RoomID {
			continue
		}
		if filter.UserID != "" && rsv.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && string(rsv.Status) != filter.Status {
			continue
		}
		if filter.StartFrom != nil && rsv.Start.Before(*filter.StartFrom) {
			continue
		}
		if filter.StartTo != nil && rsv.Start.After(*filter.StartTo) {
			continue
		}
		matched = append(matched, r.clone(rsv))
	}

	desc := strings.EqualFold(filter.SortOrder, "desc")
	sort.Slice(matched, func(i, j int) bool {
		if desc {
			return matched[i].Start.After(matched[j].Start)
		}
		return matched[i].Start.Before(matched[j].Start)
	})

	total := len(matched)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	if offset >= total {
		return nil, total, nil
	}
	end := offset + pageSize
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *MemoryRepository) Update(_ context.Context, rsv *Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[rsv.ID]; !ok {
		return ErrNotFound
	}
	rsv.UpdatedAt = time.Now().UTC()
	stored := *rsv
	stored.RoomName = ""
	stored.UserName = ""
	r.items[rsv.ID] = &stored
	return nil
}

func (r *MemoryRepository) FindConflict(_ context.Context, roomID string, start, end time.Time, excludeID string) (*Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *Reservation
	for _, rsv := range r.items {
		if rsv.RoomID != roomID || rsv.ID == excludeID || !rsv.Status.Active() {
			continue
		}
		if !Overlaps(rsv.Start, rsv.End, start, end) {
			continue
		}
		if found == nil || rsv.Start.Before(found.Start) {
			found = rsv
		}
	}
	if found == nil {
		return nil, nil
	}
	return r.clone(found), nil
}

func (r *MemoryRepository) ExpireStale(_ context.Context, roomID string, now time.Time) ([]*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Reservation
	for _, rsv := range r.items {
		if roomID != "" && rsv.RoomID != roomID {
			continue
		}
		if rsv.Status != StatusPending || rsv.Start.After(now) {
			continue
		}
		rsv.Status = StatusCancelled
		rsv.CancelReason = ExpiredReason
		rsv.UpdatedAt = time.Now().UTC()
		expired = append(expired, r.clone(rsv))
	}
	return expired, nil
}

func (r *MemoryRepository) FindConfirmedEndingAfter(_ context.Context, roomID string, now time.Time) (*Reservation, error) {
	return r.findFirst(roomID, func(rsv *Reservation) bool {
		return rsv.Status == StatusConfirmed && rsv.End.After(now)
	})
}

func (r *MemoryRepository) FindPendingStartingFrom(_ context.Context, roomID string, now time.Time) (*Reservation, error) {
	return r.findFirst(roomID, func(rsv *Reservation) bool {
		return rsv.Status == StatusPending && !rsv.Start.Before(now)
	})
}

func (r *MemoryRepository) findFirst(roomID string, match func(*Reservation) bool) (*Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *Reservation
	for _, rsv := range r.items {
		if rsv.RoomID != roomID || !match(rsv) {
			continue
		}
		if found == nil || rsv.Start.Before(found.Start) {
			found = rsv
		}
	}
	if found == nil {
		return nil, nil
	}
	return r.clone(found), nil
}

func (r *MemoryRepository) InRoomTx(_ context.Context, roomID string, fn func(tx Repository) error) error {
	lock := r.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()
	return fn(r)
}
