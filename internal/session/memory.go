package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rickd5991-stack/jenny-bot/internal/dialogue"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

// ErrSessionNotFound is returned by Get for unknown or expired ids.
var ErrSessionNotFound = errors.New("session: not found")

type entry struct {
	record   *dialogue.Session
	lastSeen time.Time
}

// MemoryStore keeps sessions in process memory. Records idle longer than
// the TTL are treated as absent and removed by Sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*entry
	ttl     time.Duration
	now     func() time.Time
	logger  *logging.Logger
}

var _ dialogue.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates a store. A ttl of zero disables expiry.
func NewMemoryStore(ttl time.Duration, logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{
		records: make(map[string]*entry),
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
}

func (s *MemoryStore) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}

// GetOrCreate returns a copy of the record for id, creating it at
// StageStart when absent. callerPhone is ignored for existing records.
func (s *MemoryStore) GetOrCreate(_ context.Context, id, callerPhone string) (*dialogue.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.records[id]; ok && !s.expired(e, now) {
		e.lastSeen = now
		return e.record.Clone(), nil
	}
	record := dialogue.NewSession(id, callerPhone, now)
	s.records[id] = &entry{record: record, lastSeen: now}
	return record.Clone(), nil
}

// Get returns a copy of a live record.
func (s *MemoryStore) Get(_ context.Context, id string) (*dialogue.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.records[id]
	if !ok || s.expired(e, s.now()) {
		return nil, ErrSessionNotFound
	}
	return e.record.Clone(), nil
}

// Save replaces the whole record.
func (s *MemoryStore) Save(_ context.Context, record *dialogue.Session) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = &entry{record: record.Clone(), lastSeen: s.now()}
	return nil
}

// Delete removes id. Deleting an unknown id is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

// Len counts records, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Sweep removes expired records and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.records {
		if s.expired(e, now) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("expired idle sessions", "count", n)
			}
		}
	}
}
