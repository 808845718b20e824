package memcache

import (
	"sync"
	"time"
)

// ProcessedEventStore remembers recently handled gateway event ids. State
// writes are idempotent on their own; this cache only stops duplicate
// deliveries from re-emitting analytics and log noise.
type ProcessedEventStore interface {
	// MarkProcessed records an event id and reports whether it was new.
	MarkProcessed(eventID string, ttl time.Duration) bool
	Seen(eventID string) bool
}

type entry struct {
	expiresAt time.Time
}

type ProcessedEvents struct {
	mu   sync.Mutex
	data map[string]entry
}

func NewProcessedEvents() *ProcessedEvents {
	return &ProcessedEvents{
		data: make(map[string]entry),
	}
}

func (s *ProcessedEvents) MarkProcessed(eventID string, ttl time.Duration) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.data[eventID]; ok && now.Before(e.expiresAt) {
		return false
	}
	s.data[eventID] = entry{expiresAt: now.Add(ttl)}

	// Opportunistic sweep keeps the map from growing unbounded.
	if len(s.data) > 4096 {
		for id, e := range s.data {
			if now.After(e.expiresAt) {
				delete(s.data, id)
			}
		}
	}
	return true
}

func (s *ProcessedEvents) Seen(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[eventID]
	return ok && time.Now().Before(e.expiresAt)
}
