package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/target/onboard-ui/internal/errors"
)

func TestEmitAuth(t *testing.T) {
	rec := &Recorder{}
	EmitAuth(rec, AuthMetric{Action: "signup", Result: ResultError, Duration: 5 * time.Millisecond, Err: apperrors.SignupRejected(nil)})

	counts := rec.Named("auth.attempt")
	require.Len(t, counts, 1)
	assert.Equal(t, "signup", counts[0].Tags["action"])
	assert.Equal(t, "err_signup_rejected", counts[0].Tags["error_class"])

	timings := rec.Named("auth.duration")
	require.Len(t, timings, 1)
	assert.Equal(t, float64(5), timings[0].Value)
}

func TestEmitAuthSkipsClassOnSuccess(t *testing.T) {
	rec := &Recorder{}
	EmitAuth(rec, AuthMetric{Action: "signin", Result: ResultSuccess})
	counts := rec.Named("auth.attempt")
	require.Len(t, counts, 1)
	_, ok := counts[0].Tags["error_class"]
	assert.False(t, ok)
	assert.Empty(t, rec.Named("auth.duration"))
}

func TestEmitModalAndInstances(t *testing.T) {
	rec := &Recorder{}
	EmitModal(rec, "alert", 3)
	EmitInstances(rec, 7, 0)
	EmitInstances(rec, 5, 2)
	EmitStepTransition(rec, "setup", "username", "complete")

	assert.Len(t, rec.Named("modal.enqueued"), 1)
	depth := rec.Named("modal.queue_depth")
	require.Len(t, depth, 1)
	assert.Equal(t, float64(3), depth[0].Value)
	assert.Len(t, rec.Named("instance.live"), 2)
	evicted := rec.Named("instance.evicted")
	require.Len(t, evicted, 1)
	assert.Equal(t, float64(2), evicted[0].Value)
	assert.Equal(t, "complete", rec.Named("wizard.transition")[0].Tags["to"])
}

func TestNilSinkIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitAuth(nil, AuthMetric{})
		EmitModal(nil, "alert", 1)
		EmitInstances(nil, 1, 1)
		EmitStepTransition(nil, "setup", "a", "b")
		EmitCollaboratorCall(nil, "op", time.Second, nil)
	})
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	assert.Equal(t, map[string]string{"a": "1"}, CloneTags(map[string]string{"a": "1", " ": "x"}))
}
