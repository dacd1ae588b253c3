// Package instance keeps one application instance per browser: the session
// store, modal queue, staged pictures and (while mounted) the setup wizard.
package instance

import (
	"sync"
	"time"

	"github.com/target/onboard-ui/internal/domain/observe"
	"github.com/target/onboard-ui/internal/domain/popup"
	"github.com/target/onboard-ui/internal/domain/session"
	"github.com/target/onboard-ui/internal/domain/setup"
	"github.com/target/onboard-ui/internal/imaging"
)

// EventKind names what changed on an instance.
type EventKind string

const (
	EventSession EventKind = "session"
	EventModals  EventKind = "modals"
	EventStep    EventKind = "step"
	EventClosed  EventKind = "closed"
)

// Event is published to subscribers (the SSE stream) after a state change.
type Event struct {
	Kind EventKind
}

// Instance is the state of one running application in one browser.
type Instance struct {
	ID       string
	Session  *session.Store
	Modals   *popup.Queue
	Pictures *imaging.Staging

	mu            sync.Mutex
	setup         *setup.Controller
	setupEntry    setup.Progress
	unsubSetup    func()
	authSessionID string
	lastSeen      time.Time
	closed        bool

	// signMu serializes sign-in tracking; signedIn mirrors the store as last observed.
	signMu   sync.Mutex
	signedIn bool

	events observe.Listeners[Event]
	unsubs []func()
}

func newInstance(id string, now time.Time, stagingLimit int, queueOpts ...popup.Option) *Instance {
	in := &Instance{
		ID:       id,
		Session:  session.NewStore(),
		Modals:   popup.NewQueue(queueOpts...),
		Pictures: imaging.NewStaging(stagingLimit),
		lastSeen: now,
	}

	in.unsubs = append(in.unsubs,
		in.Session.Subscribe(in.sessionChanged),
		in.Modals.Subscribe(func([]popup.Descriptor) { in.publish(EventModals) }),
	)
	return in
}

// sessionChanged reads the store rather than the notified value: concurrent
// Sets may deliver their notifications out of order.
func (in *Instance) sessionChanged(session.Session) {
	in.signMu.Lock()
	now := in.Session.Get().SignedIn()
	was := in.signedIn
	in.signedIn = now
	if was && !now {
		in.resetOnSignOut()
	}
	in.signMu.Unlock()

	in.publish(EventSession)
}

// resetOnSignOut drops everything tied to the signed-out user.
func (in *Instance) resetOnSignOut() {
	in.Modals.Clear()
	in.Pictures.Clear()
	in.UnmountSetup()
	in.mu.Lock()
	in.authSessionID = ""
	in.mu.Unlock()
}

// Setup returns the mounted setup controller.
func (in *Instance) Setup() (*setup.Controller, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.setup, in.setup != nil
}

// SetupEntry returns the progress the setup flow was mounted with.
func (in *Instance) SetupEntry() setup.Progress {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.setupEntry
}

// MountSetup mounts the setup flow at the step p resumes from. A flow that is
// already mounted is returned unchanged.
func (in *Instance) MountSetup(p setup.Progress) *setup.Controller {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.setup != nil {
		return in.setup
	}
	c := setup.NewController(p)
	in.setup = c
	in.setupEntry = p
	in.unsubSetup = c.Subscribe(func(setup.Transition) { in.publish(EventStep) })
	return c
}

// UnmountSetup discards the setup controller.
func (in *Instance) UnmountSetup() {
	in.mu.Lock()
	unsub := in.unsubSetup
	in.setup = nil
	in.setupEntry = setup.Progress{}
	in.unsubSetup = nil
	in.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// AuthSessionID returns the persisted sign-in bound to this instance.
func (in *Instance) AuthSessionID() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.authSessionID
}

// BindAuthSession records the persisted sign-in id for this instance.
func (in *Instance) BindAuthSession(id string) {
	in.mu.Lock()
	in.authSessionID = id
	in.mu.Unlock()
}

// Subscribe registers fn for instance events.
func (in *Instance) Subscribe(fn func(Event)) func() {
	return in.events.Add(fn)
}

// LastSeen reports when the instance last served a request.
func (in *Instance) LastSeen() time.Time {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.lastSeen
}

// Closed reports whether the instance has been evicted.
func (in *Instance) Closed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closed
}

func (in *Instance) touch(now time.Time) {
	in.mu.Lock()
	if now.After(in.lastSeen) {
		in.lastSeen = now
	}
	in.mu.Unlock()
}

func (in *Instance) publish(kind EventKind) {
	in.events.Notify(Event{Kind: kind})
}

// close releases the instance and tells subscribers it is gone.
func (in *Instance) close() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	unsubs := in.unsubs
	in.unsubs = nil
	in.mu.Unlock()

	in.UnmountSetup()
	for _, u := range unsubs {
		u()
	}
	in.Pictures.Clear()
	in.publish(EventClosed)
}
