// Package wizard implements a linear step flow whose current step may be set to any
// declared step. Flows are closed sets; anything outside the set is rejected before
// state changes.
package wizard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/target/onboard-ui/internal/domain/observe"
)

var (
	// ErrUnknownStep is returned when a step is not part of the flow.
	ErrUnknownStep = errors.New("wizard: step is not declared in flow")
	// ErrEmptyFlow is returned when a flow declares no steps.
	ErrEmptyFlow = errors.New("wizard: flow declares no steps")
	// ErrDuplicateStep is returned when a flow declares the same step twice.
	ErrDuplicateStep = errors.New("wizard: flow declares a step twice")
)

// Flow is an ordered, closed set of step identifiers.
// The first step is the entry step and the last step is terminal.
type Flow[S comparable] struct {
	steps []S
	index map[S]int
}

// NewFlow declares a flow from steps in their intended order.
func NewFlow[S comparable](steps ...S) (*Flow[S], error) {
	if len(steps) == 0 {
		return nil, ErrEmptyFlow
	}
	index := make(map[S]int, len(steps))
	for i, s := range steps {
		if _, dup := index[s]; dup {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateStep, s)
		}
		index[s] = i
	}
	return &Flow[S]{steps: append([]S(nil), steps...), index: index}, nil
}

// MustFlow is like NewFlow but panics on an invalid declaration.
// It is meant for package-level flow variables.
func MustFlow[S comparable](steps ...S) *Flow[S] {
	f, err := NewFlow(steps...)
	if err != nil {
		panic(err)
	}
	return f
}

// Steps returns the declared steps in order.
func (f *Flow[S]) Steps() []S { return append([]S(nil), f.steps...) }

// Contains reports whether s is declared in the flow.
func (f *Flow[S]) Contains(s S) bool {
	_, ok := f.index[s]
	return ok
}

// Entry returns the first declared step.
func (f *Flow[S]) Entry() S { return f.steps[0] }

// Terminal returns the last declared step.
func (f *Flow[S]) Terminal() S { return f.steps[len(f.steps)-1] }

// Position returns the zero-based position of s, or -1 when s is not declared.
func (f *Flow[S]) Position(s S) int {
	if i, ok := f.index[s]; ok {
		return i
	}
	return -1
}

// Next returns the step after s in declared order.
// It reports false for the terminal step and for undeclared steps.
func (f *Flow[S]) Next(s S) (S, bool) {
	var zero S
	i, ok := f.index[s]
	if !ok || i == len(f.steps)-1 {
		return zero, false
	}
	return f.steps[i+1], true
}

// Transition describes a completed step change.
type Transition[S comparable] struct {
	From S
	To   S
}

// Controller tracks the current step of one running flow.
type Controller[S comparable] struct {
	flow      *Flow[S]
	mu        sync.Mutex
	current   S
	listeners observe.Listeners[Transition[S]]
}

// NewController starts flow at start, which must be declared in flow.
func NewController[S comparable](flow *Flow[S], start S) (*Controller[S], error) {
	if flow == nil {
		return nil, ErrEmptyFlow
	}
	if !flow.Contains(start) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownStep, start)
	}
	return &Controller[S]{flow: flow, current: start}, nil
}

// Flow returns the flow this controller runs.
func (c *Controller[S]) Flow() *Flow[S] { return c.flow }

// CurrentStep returns the current step.
func (c *Controller[S]) CurrentStep() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetCurrentStep moves the flow to exactly step. Any declared step is reachable,
// including non-adjacent ones; that is how steps are skipped.
// An undeclared step is rejected and the current step is left unchanged.
func (c *Controller[S]) SetCurrentStep(step S) error {
	if !c.flow.Contains(step) {
		return fmt.Errorf("%w: %v", ErrUnknownStep, step)
	}
	c.mu.Lock()
	prev := c.current
	c.current = step
	c.mu.Unlock()

	c.listeners.Notify(Transition[S]{From: prev, To: step})
	return nil
}

// MustSetCurrentStep is SetCurrentStep for steps known to be declared; it panics otherwise.
func (c *Controller[S]) MustSetCurrentStep(step S) {
	if err := c.SetCurrentStep(step); err != nil {
		panic(err)
	}
}

// IsComplete reports whether the flow sits on its terminal step.
func (c *Controller[S]) IsComplete() bool {
	return c.CurrentStep() == c.flow.Terminal()
}

// Subscribe registers fn for step changes and returns a function that removes it.
func (c *Controller[S]) Subscribe(fn func(Transition[S])) func() {
	return c.listeners.Add(fn)
}
