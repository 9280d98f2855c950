package authority

import (
	"fmt"
	"sync"

	"github.com/displayhub/displayhub/internal/display"
)

// Fake is an in-memory Authority for tests. Displays are added, removed
// and changed by the test; the fake emits the matching events and keeps
// the validity flags of the snapshots it handed out in line with its own
// state, the way a real backend does.
type Fake struct {
	mu           sync.Mutex
	displays     map[int]display.Info
	materialized map[int][]*display.Display
	failing      map[int]bool
	calls        map[int]int
	events       chan display.Event
	closed       bool
}

// NewFake creates an empty fake authority.
func NewFake() *Fake {
	return &Fake{
		displays:     make(map[int]display.Info),
		materialized: make(map[int][]*display.Display),
		failing:      make(map[int]bool),
		calls:        make(map[int]int),
		events:       make(chan display.Event, 64),
	}
}

// AddDisplay registers a display and emits an added event.
func (f *Fake) AddDisplay(info display.Info) {
	f.mu.Lock()
	f.displays[info.ID] = info
	f.mu.Unlock()
	f.emit(display.Event{Kind: display.EventAdded, ID: info.ID})
}

// RemoveDisplay drops a display, invalidates every snapshot handed out for
// it, and emits a removed event.
func (f *Fake) RemoveDisplay(id int) {
	f.mu.Lock()
	delete(f.displays, id)
	for _, d := range f.materialized[id] {
		d.Invalidate()
	}
	delete(f.materialized, id)
	f.mu.Unlock()
	f.emit(display.Event{Kind: display.EventRemoved, ID: id})
}

// ChangeDisplay updates a display's properties and emits a changed event.
func (f *Fake) ChangeDisplay(info display.Info) {
	f.mu.Lock()
	f.displays[info.ID] = info
	f.mu.Unlock()
	f.emit(display.Event{Kind: display.EventChanged, ID: info.ID})
}

// FailMaterialize makes Materialize return an error for id, simulating an
// unreachable authority for that display.
func (f *Fake) FailMaterialize(id int, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[id] = fail
}

// MaterializeCount reports how many times id has been materialized.
func (f *Fake) MaterializeCount(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

// DisplayIDs implements Authority.
func (f *Fake) DisplayIDs() ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.displays))
	for id := range f.displays {
		ids = append(ids, id)
	}
	return ids, nil
}

// Materialize implements Authority.
func (f *Fake) Materialize(id int, compat display.CompatParams) (*display.Display, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[id]++
	if f.failing[id] {
		return nil, fmt.Errorf("authority unavailable for display %d", id)
	}
	info, ok := f.displays[id]
	if !ok {
		return nil, nil
	}

	d := display.New(compat.Apply(info))
	f.materialized[id] = append(f.materialized[id], d)
	return d, nil
}

// Events implements Authority.
func (f *Fake) Events() <-chan display.Event {
	return f.events
}

// Close implements Authority.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *Fake) emit(ev display.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.events <- ev
}
