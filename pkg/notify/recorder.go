package notify

import (
	"context"
	"sync"
)

// Recorder keeps every event and text in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	texts  map[uint][]string
	Err    error // returned from every call when set
}

func NewRecorder() *Recorder { return &Recorder{texts: map[uint][]string{}} }

func (r *Recorder) Notify(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *Recorder) SendText(_ context.Context, userID uint, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.texts == nil {
		r.texts = map[uint][]string{}
	}
	r.texts[userID] = append(r.texts[userID], text)
	return r.Err
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Of returns the recorded events of one kind.
func (r *Recorder) Of(kind Kind) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Recorder) Texts(userID uint) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts[userID]...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.texts = map[uint][]string{}
}
