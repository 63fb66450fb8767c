// Package logging is the asynchronous diagnostic channel: components publish
// structured events, a router fans them out to configured sinks without ever
// blocking the publisher.
package logging

import (
	"context"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

// EntityKind tags which mirrored object a diagnostic event refers to.
type EntityKind string

const (
	EntityKindUnknown  EntityKind = "unknown"
	EntityKindOperator EntityKind = "operator"
	EntityKindMachine  EntityKind = "machine"
	EntityKindCamera   EntityKind = "camera"
	EntityKindConveyor EntityKind = "conveyor"
	EntityKindAgent    EntityKind = "agent"
	EntityKindSystem   EntityKind = "system"
)

const (
	CategoryStream    = "stream"
	CategoryReconcile = "reconcile"
	CategoryJournal   = "journal"
	CategoryGateway   = "gateway"
	CategorySystem    = "system"
)

// Event is one diagnostic record flowing through the router.
type Event struct {
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Entity   EntityRef      `json:"entity"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// EntityRef points at the mirrored object an event concerns.
type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

// WithExtra returns the event with an extra field set.
func (e Event) WithExtra(key string, value any) Event {
	if e.Extra == nil {
		e.Extra = make(map[string]any, 1)
	}
	e.Extra[key] = value
	return e
}

// Publisher accepts events for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// PublisherFunc adapts a function into a Publisher.
type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

// NopPublisher returns a publisher that discards everything.
func NopPublisher() Publisher {
	return nopPublisher{}
}

type fieldPublisher struct {
	next   Publisher
	fields map[string]any
}

func (p *fieldPublisher) Publish(ctx context.Context, event Event) {
	if p.next == nil {
		return
	}
	if len(p.fields) > 0 {
		event = cloneEvent(event)
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(p.fields))
		}
		for k, v := range p.fields {
			if _, exists := event.Extra[k]; !exists {
				event.Extra[k] = v
			}
		}
	}
	p.next.Publish(ctx, event)
}

// WithFields returns a publisher that stamps the given fields onto every
// event that does not already carry them.
func WithFields(p Publisher, fields map[string]any) Publisher {
	if p == nil {
		return NopPublisher()
	}
	if len(fields) == 0 {
		return p
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &fieldPublisher{next: p, fields: copied}
}

func cloneEvent(event Event) Event {
	cloned := event
	if event.Extra != nil {
		copied := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			copied[k] = v
		}
		cloned.Extra = copied
	}
	return cloned
}
