// Package popup serializes transient overlays so at most one is active at a time.
//
// The queue head (index 0) is the active modal. New modals go to index 1: they
// are shown right after the active one without preempting it.
package popup

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/target/onboard-ui/internal/domain/observe"
)

var (
	// ErrDuplicateID is returned when a descriptor reuses the ID of a queued one.
	ErrDuplicateID = errors.New("popup: modal id already queued")
	// ErrMissingType is returned when a descriptor has no Type.
	ErrMissingType = errors.New("popup: modal type is required")
)

// Type selects the modal variant to render.
type Type string

const (
	TypeAlert   Type = "alert"
	TypeBusy    Type = "busy"
	TypeConfirm Type = "confirm"
)

// Action is a button on a modal; pressing it issues Method to URL.
type Action struct {
	Label  string `json:"label"`
	Method string `json:"method,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Props is the variant-specific data of a modal.
type Props struct {
	Title   string   `json:"title,omitempty"`
	Message string   `json:"message,omitempty"`
	Icon    string   `json:"icon,omitempty"`
	Code    string   `json:"code,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// Descriptor is one queued modal.
type Descriptor struct {
	ID    string `json:"id"`
	Type  Type   `json:"type"`
	Props Props  `json:"props"`
}

func (d Descriptor) clone() Descriptor {
	if d.Props.Actions != nil {
		d.Props.Actions = append([]Action(nil), d.Props.Actions...)
	}
	return d
}

// Alert builds an alert descriptor.
func Alert(title, message string) Descriptor {
	return Descriptor{Type: TypeAlert, Props: Props{Title: title, Message: message, Icon: "warning"}}
}

// Busy builds a busy overlay descriptor with no actions.
func Busy(message string) Descriptor {
	return Descriptor{Type: TypeBusy, Props: Props{Message: message, Icon: "spinner"}}
}

// Option configures a Queue.
type Option func(*Queue)

// WithIDGenerator replaces the UUID generator used for descriptors without an ID.
func WithIDGenerator(fn func() string) Option {
	return func(q *Queue) {
		if fn != nil {
			q.newID = fn
		}
	}
}

// Queue is the modal queue of one application instance.
type Queue struct {
	mu        sync.Mutex
	items     []Descriptor
	newID     func() string
	listeners observe.Listeners[[]Descriptor]
}

// NewQueue returns an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{newID: uuid.NewString}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue inserts d at index 1 (index 0 when the queue is empty) and returns its ID.
// An empty ID is generated. A duplicate ID or a missing Type is rejected and the
// queue is left unchanged.
func (q *Queue) Enqueue(d Descriptor) (string, error) {
	if d.Type == "" {
		return "", ErrMissingType
	}
	d = d.clone()

	q.mu.Lock()
	if d.ID == "" {
		d.ID = q.newID()
	}
	if q.indexOf(d.ID) >= 0 {
		q.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
	}

	if len(q.items) == 0 {
		q.items = append(q.items, d)
	} else {
		q.items = append(q.items, Descriptor{})
		copy(q.items[2:], q.items[1:])
		q.items[1] = d
	}
	snap := q.snapshotLocked()
	q.mu.Unlock()

	q.listeners.Notify(snap)
	return d.ID, nil
}

// Hide removes the first descriptor with id from any position and reports whether
// one was removed.
func (q *Queue) Hide(id string) bool {
	q.mu.Lock()
	i := q.indexOf(id)
	if i < 0 {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items[:i:i], q.items[i+1:]...)
	snap := q.snapshotLocked()
	q.mu.Unlock()

	q.listeners.Notify(snap)
	return true
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()

	q.listeners.Notify([]Descriptor{})
}

// Modals returns a snapshot of the queue, head first.
func (q *Queue) Modals() []Descriptor {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Active returns the modal currently displayed.
func (q *Queue) Active() (Descriptor, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Descriptor{}, false
	}
	return q.items[0].clone(), true
}

// Len reports the number of queued modals.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Subscribe registers fn to receive the queue after every mutation.
func (q *Queue) Subscribe(fn func([]Descriptor)) func() {
	return q.listeners.Add(fn)
}

func (q *Queue) indexOf(id string) int {
	for i := range q.items {
		if q.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (q *Queue) snapshotLocked() []Descriptor {
	out := make([]Descriptor, len(q.items))
	for i := range q.items {
		out[i] = q.items[i].clone()
	}
	return out
}
