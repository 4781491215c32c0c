package notify

import (
	"context"
	"log"
)

// LogNotifier writes events to the process log. Used when no broker is
// configured, and in tests.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Publish(_ context.Context, e Event) error {
	log.Printf("notify: %s reservation=%s room=%s user=%s", e.Kind, e.ReservationID, e.RoomID, e.UserID)
	return nil
}
