package booking

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrSlotTaken is returned when another booking already holds the slot text.
var ErrSlotTaken = errors.New("booking: slot already taken")

// Booking is an immutable ledger entry.
type Booking struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Contact     string    `json:"contact"`
	SlotText    string    `json:"slot_text"`
	CallerPhone string    `json:"caller_phone"`
	CreatedAt   time.Time `json:"created_at"`
}

// Request carries the fields collected by the dialogue.
type Request struct {
	Name        string
	Contact     string
	SlotText    string
	CallerPhone string
}

// Ledger is the shared list of confirmed bookings.
//
// Reserve must perform the availability check and the append as one atomic
// step across all callers: of two concurrent reservations for the same slot
// key at most one succeeds and the other gets ErrSlotTaken.
type Ledger interface {
	IsAvailable(ctx context.Context, slotText string) (bool, error)
	Reserve(ctx context.Context, req Request) (Booking, error)
	List(ctx context.Context) ([]Booking, error)
}

// SlotKey is the comparison key for slot text. Matching is textual and
// case-insensitive only; "3pm" and "15:00" are different slots.
func SlotKey(slotText string) string {
	return strings.ToLower(slotText)
}
