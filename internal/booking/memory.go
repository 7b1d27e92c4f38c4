package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger keeps bookings in process memory. Entries are lost on restart.
type MemoryLedger struct {
	mu       sync.RWMutex
	bookings []Booking
	byKey    map[string]int
	now      func() time.Time
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		byKey: make(map[string]int),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// IsAvailable reports whether no booking holds slotText.
func (l *MemoryLedger) IsAvailable(_ context.Context, slotText string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, taken := l.byKey[SlotKey(slotText)]
	return !taken, nil
}

// Reserve appends a booking unless the slot is already held.
func (l *MemoryLedger) Reserve(_ context.Context, req Request) (Booking, error) {
	key := SlotKey(req.SlotText)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.byKey[key]; taken {
		return Booking{}, ErrSlotTaken
	}
	b := Booking{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Contact:     req.Contact,
		SlotText:    req.SlotText,
		CallerPhone: req.CallerPhone,
		CreatedAt:   l.now(),
	}
	l.byKey[key] = len(l.bookings)
	l.bookings = append(l.bookings, b)
	return b, nil
}

// List returns the bookings in the order they were made.
func (l *MemoryLedger) List(_ context.Context) ([]Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Booking, len(l.bookings))
	copy(out, l.bookings)
	return out, nil
}

// Len returns the number of bookings.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.bookings)
}
