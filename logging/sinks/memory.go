package sinks

import (
	"context"
	"sync"

	"floorsight/dashboard/logging"
)

// Memory retains events in a slice, for tests and diagnostics.
type Memory struct {
	mu     sync.RWMutex
	events []logging.Event
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{events: make([]logging.Event, 0)}
}

func (s *Memory) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events copies the retained events.
func (s *Memory) Events() []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]logging.Event, len(s.events))
	copy(copied, s.events)
	return copied
}

// Reset clears the buffer.
func (s *Memory) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = s.events[:0]
}

func (s *Memory) Close(context.Context) error {
	return nil
}
