// Package events publishes workflow notifications to a message broker.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event routing keys
const (
	NGORegistered    = "ngo.registered"
	NGOApproved      = "ngo.approved"
	ProjectApproved  = "project.approved"
	DonationRecorded = "donation.recorded"
	EvidenceAttached = "donation.evidence_attached"
	DonationRejected = "donation.rejected"

	PasswordResetRequested = "user.password_reset_requested"
)

// Event is one notification. Subject is the id of the record it concerns.
type Event struct {
	Type       string            `json:"type"`
	Subject    string            `json:"subject"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// New stamps an event with the current time
func New(eventType, subject string, attrs map[string]string) Event {
	return Event{Type: eventType, Subject: subject, Attributes: attrs, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events. Publishing is best effort: callers log failures
// and never roll back the change that produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Emit publishes e and logs a failure instead of returning it. A nil
// publisher drops the event.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logrus.WithFields(logrus.Fields{
			"event":   e.Type,
			"subject": e.Subject,
			"error":   err.Error(),
		}).Warn("Event publish failed")
	}
}

// NopPublisher drops every event; used when no broker is configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the routing keys published so far, in order
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
