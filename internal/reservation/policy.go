package reservation

import (
	"time"

	"github.com/roomhub/meeting-room-backend/internal/identity"
)

// CancelAllowed decides whether an actor with the given role may cancel a
// reservation in the given status at time now. It is pure: no clock reads,
// no store access, only the answer.
//
// Admins may always cancel. Non-admins may not cancel a confirmed
// reservation, and may not cancel a pending one once fewer than CancelWindow
// remain before a start time that has not yet passed.
func CancelAllowed(role identity.Role, status Status, now, start time.Time) error {
	if role == identity.RoleAdmin {
		return nil
	}
	if status == StatusConfirmed {
		return ErrCancelConfirmed
	}
	untilStart := start.Sub(now)
	if untilStart > 0 && untilStart < CancelWindow {
		return ErrCancelWindowClosed
	}
	return nil
}
