package notify

import (
	"context"
	"sync"
)

type Emission struct {
	Room  string
	Event Event
}

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mu        sync.Mutex
	emissions []Emission
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(ctx context.Context, room string, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = append(r.emissions, Emission{Room: room, Event: event})
	return nil
}

func (r *Recorder) All() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Emission(nil), r.emissions...)
}

// Named returns the emissions of one event type, in order.
func (r *Recorder) Named(name string) []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Emission
	for _, e := range r.emissions {
		if e.Event.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// To returns the events emitted to room, in order.
func (r *Recorder) To(room string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, e := range r.emissions {
		if e.Room == room {
			out = append(out, e.Event)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = nil
}
