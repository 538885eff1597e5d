// Package events publishes decision lifecycle events: escalations to human
// reviewers and result notifications for downstream consumers.
//
// The engine receives an EventEmitter by injection at construction; nothing
// reaches for a global bus. Publication is fire-and-forget: a failed publish
// is logged and never alters an already-computed decision.
package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Well-known event subjects emitted by the engine. Decision results are
// published under a per-type subject ("autonomy.decision.lead_qualification");
// subscribing to the bare SubjectDecision prefix receives all of them.
const (
	SubjectEscalation = "autonomy.escalation"
	SubjectDecision   = "autonomy.decision"
)

// DecisionSubject returns the typed subject for a decision result.
func DecisionSubject(decisionType string) string {
	return SubjectDecision + "." + decisionType
}

// EventEmitter is the interface the engine publishes through. Satisfied by
// the in-memory Bus and the Pub/Sub-backed bus.
type EventEmitter interface {
	Emit(subject, source, contextID string, data map[string]any)
}

// Event is the envelope for all autonomy events.
type Event struct {
	ID        string         `json:"id"`
	Subject   string         `json:"subject"`
	Source    string         `json:"source"`
	ContextID string         `json:"context_id,omitempty"`
	Time      time.Time      `json:"time"`
	Data      map[string]any `json:"data"`
}

// NewEvent builds an event envelope with a fresh id.
func NewEvent(subject, source, contextID string, data map[string]any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Subject:   subject,
		Source:    source,
		ContextID: contextID,
		Time:      time.Now().UTC(),
		Data:      data,
	}
}

// JSON serializes the event.
func (e *Event) JSON() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.ID, err)
	}
	return payload, nil
}

// Bus is an in-process pub/sub bus. Subscribers receive events in real
// time; slow subscribers drop rather than block the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *Event // subject → channels
	allSubs     []chan *Event
	bufferSize  int
}

// NewBus creates an in-memory event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string][]chan *Event),
		bufferSize:  100,
	}
}

// Subscribe returns a channel receiving events for the given subjects.
// Pass no subjects to receive all events.
func (b *Bus) Subscribe(subjects ...string) chan *Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *Event, b.bufferSize)
	if len(subjects) == 0 {
		b.allSubs = append(b.allSubs, ch)
	} else {
		for _, s := range subjects {
			b.subscribers[s] = append(b.subscribers[s], ch)
		}
	}
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (b *Bus) Unsubscribe(ch chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s, subs := range b.subscribers {
		filtered := make([]chan *Event, 0, len(subs))
		for _, c := range subs {
			if c != ch {
				filtered = append(filtered, c)
			}
		}
		b.subscribers[s] = filtered
	}

	filtered := make([]chan *Event, 0, len(b.allSubs))
	for _, c := range b.allSubs {
		if c != ch {
			filtered = append(filtered, c)
		}
	}
	b.allSubs = filtered

	close(ch)
}

// Publish delivers an event to all matching subscribers. A subscription
// matches its exact subject and any dot-separated subject beneath it.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := make(map[chan *Event]bool)
	for subject, subs := range b.subscribers {
		if event.Subject != subject && !strings.HasPrefix(event.Subject, subject+".") {
			continue
		}
		for _, ch := range subs {
			if delivered[ch] {
				continue
			}
			delivered[ch] = true
			select {
			case ch <- event:
			default:
				// Subscriber buffer full, drop.
			}
		}
	}
	for _, ch := range b.allSubs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Emit creates and publishes an event.
func (b *Bus) Emit(subject, source, contextID string, data map[string]any) {
	b.Publish(NewEvent(subject, source, contextID, data))
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := len(b.allSubs)
	for _, subs := range b.subscribers {
		count += len(subs)
	}
	return count
}

var _ EventEmitter = (*Bus)(nil)
