package seeding

import (
	"sync"
)

// Handler fans workflow events out to the progress state and any number of
// listeners. Its Handle method is the workflow sink.
type Handler struct {
	Progress *ProgressState

	mu        sync.Mutex
	listeners []func(Event)
	events    []Event
	record    bool
}

// NewHandler returns a Handler with a fresh ProgressState.
func NewHandler(listeners ...func(Event)) *Handler {
	return &Handler{Progress: NewProgressState(), listeners: listeners}
}

// Record keeps every handled event for later inspection.
func (h *Handler) Record() *Handler {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record = true
	return h
}

// Subscribe adds a listener.
func (h *Handler) Subscribe(fn func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Handle applies ev to the progress state and forwards it to every listener.
func (h *Handler) Handle(ev Event) {
	h.Progress.Apply(ev)

	h.mu.Lock()
	if h.record {
		h.events = append(h.events, ev)
	}
	listeners := h.listeners
	h.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

// Events returns the recorded events.
func (h *Handler) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

// States returns the states announced so far, in order.
func (h *Handler) States() []State {
	var out []State
	for _, ev := range h.Events() {
		if ev.Type == EventState {
			out = append(out, ev.State)
		}
	}
	return out
}
