package events

import (
	"log/slog"
	"slices"
	"sync"
)

// InMemoryEventStore keeps one stream per run plus a global log in append
// order. Subscribers run on their own goroutine; their errors are logged and
// never reach the writer.
type InMemoryEventStore struct {
	mu       sync.RWMutex
	runs     map[string][]Event
	log      []Event
	handlers map[string][]EventHandler
	logger   *slog.Logger
	inflight sync.WaitGroup
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return NewInMemoryEventStoreWithLogger(slog.Default())
}

func NewInMemoryEventStoreWithLogger(logger *slog.Logger) *InMemoryEventStore {
	return &InMemoryEventStore{
		runs:     make(map[string][]Event),
		handlers: make(map[string][]EventHandler),
		logger:   logger,
	}
}

// AppendEvent stamps event with the next version of streamID and stores it
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mu.Lock()
	stamped := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.runs[streamID]) + 1,
	}
	s.runs[streamID] = append(s.runs[streamID], stamped)
	s.log = append(s.log, stamped)
	targets := slices.Clone(s.handlers[stamped.EventType])
	s.mu.Unlock()

	if len(targets) > 0 {
		s.inflight.Add(1)
		go s.dispatch(stamped, targets)
	}
	return nil
}

// ReadEvents returns the events of streamID starting at fromVersion (1-based)
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(s.runs[streamID], fromVersion-1), nil
}

// ReadAllEvents returns the global log starting at fromPosition (0-based)
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(s.log, fromPosition), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eventType := range eventTypes {
		s.handlers[eventType] = append(s.handlers[eventType], handler)
	}
	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for eventType, registered := range s.handlers {
		s.handlers[eventType] = slices.DeleteFunc(registered, func(h EventHandler) bool { return h == handler })
	}
	return nil
}

// Position returns the number of events appended so far
func (s *InMemoryEventStore) Position() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}

// Count returns the number of events recorded for one run
func (s *InMemoryEventStore) Count(streamID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs[streamID])
}

// Flush blocks until every subscriber notification has been handled
func (s *InMemoryEventStore) Flush() {
	s.inflight.Wait()
}

func (s *InMemoryEventStore) dispatch(event Event, targets []EventHandler) {
	defer s.inflight.Done()
	for _, handler := range targets {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			s.logger.Warn("event handler failed",
				slog.String("type", event.Type()),
				slog.String("run", event.StreamID()),
				slog.Any("error", err))
		}
	}
}

func tail(events []Event, from int) []Event {
	if from < 0 {
		from = 0
	}
	if from >= len(events) {
		return []Event{}
	}
	return slices.Clone(events[from:])
}
