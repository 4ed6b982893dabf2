// Package notify carries "your spot was booked" events from the booking
// workflow to whoever delivers them to the spot owner.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventTypeSpotBooked identifies SpotBooked payloads on the wire.
const EventTypeSpotBooked = "spot.booked"

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("dispatcher closed")

// SpotBooked tells a spot owner that a client reserved their spot.
type SpotBooked struct {
	EventID         string    `json:"event_id"`
	OwnerExternalID int64     `json:"owner_external_id"`
	SpotID          int64     `json:"spot_id"`
	SpotLabel       string    `json:"spot_label"`
	BookerName      string    `json:"booker_name"`
	BookerUsername  string    `json:"booker_username,omitempty"`
	Hours           int       `json:"hours"`
	TotalPrice      int       `json:"total_price"`
	BookedAt        time.Time `json:"booked_at"`
}

// NewSpotBooked stamps a fresh event id on e.
func NewSpotBooked(e SpotBooked) SpotBooked {
	e.EventID = uuid.NewString()
	if e.BookedAt.IsZero() {
		e.BookedAt = time.Now().UTC()
	}
	return e
}

// Text renders the message the owner receives.
func (e SpotBooked) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your spot %s has been booked by %s", e.SpotLabel, e.BookerName)
	if e.BookerUsername != "" {
		fmt.Fprintf(&b, " (@%s)", e.BookerUsername)
	}
	fmt.Fprintf(&b, " for %d h. Total: %d", e.Hours, e.TotalPrice)
	return b.String()
}

// Dispatcher delivers booking events. Implementations must be safe for
// concurrent use.
type Dispatcher interface {
	Dispatch(ctx context.Context, e SpotBooked) error
	Close() error
}
