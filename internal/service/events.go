package service

import (
	"github.com/google/uuid"

	"github.com/rhinstaller/diskplanner/internal/partitioning"
)

// EventKind enumerates the state changes the service announces.
type EventKind int

const (
	// EventStorageChanged fires when the primary tree is replaced,
	// either by a rescan or by a successful apply.
	EventStorageChanged EventKind = iota
	// EventPartitioningCreated fires when a new session is opened.
	EventPartitioningCreated
	// EventPartitioningConfigured fires when a session's strategy ran
	// successfully.
	EventPartitioningConfigured
	// EventPartitioningValidated fires after a validation run.
	EventPartitioningValidated
	// EventPartitioningApplied fires when a session's playground
	// became the primary tree.
	EventPartitioningApplied
	// EventPartitioningDiscarded fires when a session is dropped.
	EventPartitioningDiscarded
)

func (k EventKind) String() string {
	switch k {
	case EventStorageChanged:
		return "storage-changed"
	case EventPartitioningCreated:
		return "partitioning-created"
	case EventPartitioningConfigured:
		return "partitioning-configured"
	case EventPartitioningValidated:
		return "partitioning-validated"
	case EventPartitioningApplied:
		return "partitioning-applied"
	case EventPartitioningDiscarded:
		return "partitioning-discarded"
	}
	return "unknown"
}

// Event is one typed change notification.
type Event struct {
	Kind    EventKind
	Session uuid.UUID
	Method  partitioning.Method
}

// Subscribe registers a listener. The returned channel is buffered;
// a slow listener loses events rather than blocking the service.
func (s *Service) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, 16)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

func (s *Service) emit(ev Event) {
	s.mu.Lock()
	subscribers := make([]chan Event, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
