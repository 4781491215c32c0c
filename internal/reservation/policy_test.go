package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roomhub/meeting-room-backend/internal/identity"
)

func TestCancelAllowed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := func(d time.Duration) time.Time { return now.Add(d) }

	tests := []struct {
		name    string
		role    identity.Role
		status  Status
		start   time.Time
		wantErr error
	}{
		{"admin cancels confirmed", identity.RoleAdmin, StatusConfirmed, in(10 * time.Minute), nil},
		{"admin cancels pending inside window", identity.RoleAdmin, StatusPending, in(10 * time.Minute), nil},
		{"member cancels confirmed", identity.RoleMember, StatusConfirmed, in(2 * time.Hour), ErrCancelConfirmed},
		{"member cancels pending well in advance", identity.RoleMember, StatusPending, in(2 * time.Hour), nil},
		{"member cancels pending exactly at window", identity.RoleMember, StatusPending, in(30 * time.Minute), nil},
		{"member cancels pending inside window", identity.RoleMember, StatusPending, in(29 * time.Minute), ErrCancelWindowClosed},
		{"member cancels pending one minute before start", identity.RoleMember, StatusPending, in(time.Minute), ErrCancelWindowClosed},
		{"member cancels pending that already started", identity.RoleMember, StatusPending, in(-10 * time.Minute), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CancelAllowed(tt.role, tt.status, now, tt.start)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
