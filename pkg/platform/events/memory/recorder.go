package memory

import (
	"context"
	"sync"

	"exportdocs/pkg/platform/events"
)

// Recorder keeps published events in memory, in publish order.
type Recorder struct {
	mu     sync.RWMutex
	events []events.Envelope
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, evs ...events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evs...)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []events.Envelope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]events.Envelope(nil), r.events...)
}

// OfType returns the recorded events of one type.
func (r *Recorder) OfType(eventType string) []events.Envelope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []events.Envelope
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
