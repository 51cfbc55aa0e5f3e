package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepEvery is the number of Allow calls between sweeps of idle keys.
const sweepEvery = 1024

// InMemoryStore keeps a sliding window of timestamps per key. It is local to
// the process and serves as the fallback when Redis is unavailable.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	calls   int
	now     func() time.Time
}

type slidingWindow struct {
	stamps []time.Time
	length time.Duration
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		windows: make(map[string]*slidingWindow),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.calls++
	if s.calls%sweepEvery == 0 {
		s.sweep(now)
	}

	var stamps []time.Time
	if w, ok := s.windows[key]; ok {
		stamps = prune(w.stamps, now.Add(-window))
	}
	res := Result{Limit: limit}
	if len(stamps) < limit {
		stamps = append(stamps, now)
		res.Allowed = true
	}
	res.Remaining = max(limit-len(stamps), 0)
	res.ResetAt = now.Add(window)
	if len(stamps) == 0 {
		delete(s.windows, key)
		return res, nil
	}
	res.ResetAt = stamps[0].Add(window)
	s.windows[key] = &slidingWindow{stamps: stamps, length: window}
	return res, nil
}

// sweep drops keys whose every timestamp has left its window.
func (s *InMemoryStore) sweep(now time.Time) {
	for key, w := range s.windows {
		if w.stamps = prune(w.stamps, now.Add(-w.length)); len(w.stamps) == 0 {
			delete(s.windows, key)
		}
	}
}

// prune drops timestamps at or before cutoff. stamps is in ascending order.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
