package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenersNotifyOrder(t *testing.T) {
	var l Listeners[int]
	var got []string

	l.Add(func(v int) { got = append(got, "first") })
	l.Add(func(v int) { got = append(got, "second") })
	l.Notify(1)

	assert.Equal(t, []string{"first", "second"}, got)
	assert.Equal(t, 2, l.Len())
}

func TestListenersRemove(t *testing.T) {
	var l Listeners[int]
	var a, b int

	removeA := l.Add(func(v int) { a += v })
	l.Add(func(v int) { b += v })

	removeA()
	removeA()
	l.Notify(3)

	assert.Equal(t, 0, a)
	assert.Equal(t, 3, b)
	assert.Equal(t, 1, l.Len())
}

func TestListenersNilFunc(t *testing.T) {
	var l Listeners[string]
	remove := l.Add(nil)
	remove()
	assert.Equal(t, 0, l.Len())
	assert.NotPanics(t, func() { l.Notify("x") })
}

func TestListenersReentrantSubscribe(t *testing.T) {
	var l Listeners[int]
	var inner int
	l.Add(func(int) {
		l.Add(func(int) { inner++ })
	})

	l.Notify(1)
	assert.Equal(t, 0, inner, "listener added during notify runs from the next notify")

	l.Notify(1)
	assert.Equal(t, 1, inner)
}
