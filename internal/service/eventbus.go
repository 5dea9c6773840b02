package service

import (
	"sync"
	"time"

	"github.com/bnema/retell/internal/domain"
)

const (
	EventStage     = "stage"
	EventDegraded  = "degraded"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Event is one progress notification for a job.
type Event struct {
	Type    string          `json:"type"`
	JobID   string          `json:"jobId"`
	Stage   domain.Stage    `json:"stage,omitempty"`
	State   domain.JobState `json:"state,omitempty"`
	Status  string          `json:"status,omitempty"` // "started" or "done" for stage events
	Message string          `json:"message,omitempty"`
	Time    time.Time       `json:"time"`
}

// Terminal reports whether no further events follow for the job.
func (e Event) Terminal() bool {
	return e.Type == EventCompleted || e.Type == EventFailed
}

type EventPublisher interface {
	Publish(jobID string, event Event)
}

type EventBus struct {
	subscribers map[string][]chan Event
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
	}
}

func (eb *EventBus) Subscribe(jobID string) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 16)
	eb.subscribers[jobID] = append(eb.subscribers[jobID], ch)
	return ch
}

func (eb *EventBus) Unsubscribe(jobID string, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[jobID]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[jobID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(eb.subscribers[jobID]) == 0 {
		delete(eb.subscribers, jobID)
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the event.
func (eb *EventBus) Publish(jobID string, event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, ch := range eb.subscribers[jobID] {
		select {
		case ch <- event:
		default:
		}
	}
}
