package lightbox

import "sync"

// FocusTracker reads and moves the viewer's input focus. The session
// remembers the active element when it opens and gives focus back on close.
type FocusTracker interface {
	ActiveElement() string
	Focus(id string)
}

// FocusRecorder is a FocusTracker for remote clients: the client reports its
// focused element with each open and reads back where focus should return.
type FocusRecorder struct {
	mu       sync.Mutex
	active   string
	restored string
}

// NewFocusRecorder creates an empty recorder
func NewFocusRecorder() *FocusRecorder {
	return &FocusRecorder{}
}

// SetActive records the element the client currently has focused
func (r *FocusRecorder) SetActive(id string) {
	r.mu.Lock()
	r.active = id
	r.mu.Unlock()
}

// ActiveElement implements FocusTracker
func (r *FocusRecorder) ActiveElement() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Focus implements FocusTracker
func (r *FocusRecorder) Focus(id string) {
	r.mu.Lock()
	r.restored = id
	r.mu.Unlock()
}

// TakeRestored returns the element focus was last restored to and clears it
func (r *FocusRecorder) TakeRestored() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.restored
	r.restored = ""
	return id
}
