package popup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(ds []Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func alertWithID(id string) Descriptor {
	d := Alert("t", "m")
	d.ID = id
	return d
}

func mustEnqueue(t *testing.T, q *Queue, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := q.Enqueue(alertWithID(id))
		require.NoError(t, err)
	}
}

func TestEnqueueOrdering(t *testing.T) {
	t.Run("empty queue then two", func(t *testing.T) {
		q := NewQueue()
		mustEnqueue(t, q, "A", "B")
		assert.Equal(t, []string{"A", "B"}, ids(q.Modals()))
	})

	t.Run("insert at index one", func(t *testing.T) {
		q := NewQueue()
		mustEnqueue(t, q, "A", "B")
		q.Hide("B")
		mustEnqueue(t, q, "C", "B")
		// built [A, B, C]
		require.Equal(t, []string{"A", "B", "C"}, ids(q.Modals()))

		mustEnqueue(t, q, "D")
		assert.Equal(t, []string{"A", "D", "B", "C"}, ids(q.Modals()))
	})

	t.Run("head never changes on enqueue", func(t *testing.T) {
		q := NewQueue()
		for i := 0; i < 20; i++ {
			mustEnqueue(t, q, fmt.Sprintf("m-%d", i))
			modals := q.Modals()
			assert.Len(t, modals, i+1)
			assert.Equal(t, "m-0", modals[0].ID)
		}
	})
}

func TestEnqueueGeneratesID(t *testing.T) {
	n := 0
	q := NewQueue(WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}))

	id, err := q.Enqueue(Alert("Oops", "something broke"))
	require.NoError(t, err)
	assert.Equal(t, "gen-1", id)

	active, ok := q.Active()
	require.True(t, ok)
	assert.Equal(t, "gen-1", active.ID)
	assert.Equal(t, TypeAlert, active.Type)
}

func TestEnqueueDefaultIDsAreUnique(t *testing.T) {
	q := NewQueue()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := q.Enqueue(Busy("working"))
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, 50, q.Len())
}

func TestEnqueueContractViolations(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		q := NewQueue()
		mustEnqueue(t, q, "A", "B")

		_, err := q.Enqueue(alertWithID("A"))
		assert.ErrorIs(t, err, ErrDuplicateID)
		assert.Equal(t, []string{"A", "B"}, ids(q.Modals()))
	})

	t.Run("missing type", func(t *testing.T) {
		q := NewQueue()
		_, err := q.Enqueue(Descriptor{ID: "x"})
		assert.ErrorIs(t, err, ErrMissingType)
		assert.Zero(t, q.Len())
	})
}

func TestHide(t *testing.T) {
	q := NewQueue()
	mustEnqueue(t, q, "A", "B")
	mustEnqueue(t, q, "C")
	// [A, C, B]

	assert.True(t, q.Hide("B"))
	assert.Equal(t, []string{"A", "C"}, ids(q.Modals()))

	assert.False(t, q.Hide("missing"))
	assert.Len(t, q.Modals(), 2)

	assert.True(t, q.Hide("A"))
	active, ok := q.Active()
	require.True(t, ok)
	assert.Equal(t, "C", active.ID)
}

func TestClear(t *testing.T) {
	q := NewQueue()
	q.Clear()
	assert.Empty(t, q.Modals())

	mustEnqueue(t, q, "A", "B", "C")
	q.Clear()
	assert.Empty(t, q.Modals())
	_, ok := q.Active()
	assert.False(t, ok)
}

func TestModalsSnapshotIsReadOnly(t *testing.T) {
	q := NewQueue()
	d := alertWithID("A")
	d.Props.Actions = []Action{{Label: "OK", Method: "DELETE", URL: "/modals/A"}}
	_, err := q.Enqueue(d)
	require.NoError(t, err)

	snap := q.Modals()
	snap[0].ID = "changed"
	snap[0].Props.Actions[0].Label = "changed"

	got := q.Modals()
	assert.Equal(t, "A", got[0].ID)
	assert.Equal(t, "OK", got[0].Props.Actions[0].Label)

	// caller-held descriptor does not alias the queue either
	d.Props.Actions[0].Label = "changed"
	assert.Equal(t, "OK", q.Modals()[0].Props.Actions[0].Label)
}

func TestSubscribe(t *testing.T) {
	q := NewQueue()
	var lengths []int
	unsubscribe := q.Subscribe(func(ds []Descriptor) { lengths = append(lengths, len(ds)) })

	mustEnqueue(t, q, "A", "B")
	q.Hide("A")
	q.Hide("nope")
	q.Clear()
	unsubscribe()
	mustEnqueue(t, q, "C")

	assert.Equal(t, []int{1, 2, 1, 0}, lengths)
}

func TestBusyOverlayWithAlerts(t *testing.T) {
	q := NewQueue()
	busyID, err := q.Enqueue(Busy("Uploading"))
	require.NoError(t, err)

	firstID, err := q.Enqueue(Alert("Heads up", "first"))
	require.NoError(t, err)
	secondID, err := q.Enqueue(Alert("Heads up", "second"))
	require.NoError(t, err)

	active, _ := q.Active()
	assert.Equal(t, busyID, active.ID, "busy overlay stays on screen")
	assert.Equal(t, TypeBusy, active.Type)

	require.True(t, q.Hide(busyID))

	// alerts are shown most recent first, each in front of older pending ones
	active, ok := q.Active()
	require.True(t, ok)
	assert.Equal(t, secondID, active.ID)
	assert.Equal(t, TypeAlert, active.Type)
	assert.Equal(t, []string{secondID, firstID}, ids(q.Modals()))
}
