// Package metrics emits the onboarding flow's StatsD metrics.
package metrics

import (
	"strings"
	"sync"
	"time"

	obserrors "github.com/target/onboard-ui/internal/observability/errors"
	"github.com/target/onboard-ui/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// AuthMetric captures one sign-in, sign-up or sign-out attempt.
type AuthMetric struct {
	Action   string // signin, signup, sso, signout
	Result   string
	Duration time.Duration
	Err      error
}

// EmitAuth emits standardised auth attempt metrics.
func EmitAuth(sink statsd.Sink, in AuthMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"action": in.Action,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.attempt", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.duration", in.Duration, CloneTags(tags))
	}
}

// EmitStepTransition counts a wizard step change.
func EmitStepTransition(sink statsd.Sink, flow, from, to string) {
	if sink == nil {
		return
	}
	sink.Count("wizard.transition", 1, map[string]string{
		"flow": flow,
		"from": from,
		"to":   to,
	})
}

// EmitModal counts an enqueued modal and records the resulting queue depth.
func EmitModal(sink statsd.Sink, modalType string, depth int) {
	if sink == nil {
		return
	}
	sink.Count("modal.enqueued", 1, map[string]string{"type": modalType})
	sink.Gauge("modal.queue_depth", float64(depth), nil)
}

// EmitInstances records the number of live application instances and how many were evicted.
func EmitInstances(sink statsd.Sink, live, evicted int) {
	if sink == nil {
		return
	}
	sink.Gauge("instance.live", float64(live), nil)
	if evicted > 0 {
		sink.Count("instance.evicted", int64(evicted), nil)
	}
}

// EmitCollaboratorCall times a call to the auth or profile collaborator.
func EmitCollaboratorCall(sink statsd.Sink, op string, d time.Duration, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"op": op, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Timing("collaborator.duration", d, tags)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Recorded is one metric captured by a Recorder.
type Recorded struct {
	Kind  string // count, gauge, timing
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder is an in-memory statsd.Sink for tests and the dev server.
type Recorder struct {
	mu      sync.Mutex
	metrics []Recorded
}

var _ statsd.Sink = (*Recorder)(nil)

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Recorded{Kind: "count", Name: name, Value: float64(value), Tags: CloneTags(tags)})
}

func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(Recorded{Kind: "gauge", Name: name, Value: value, Tags: CloneTags(tags)})
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Recorded{Kind: "timing", Name: name, Value: float64(value.Milliseconds()), Tags: CloneTags(tags)})
}

func (r *Recorder) add(m Recorded) {
	r.mu.Lock()
	r.metrics = append(r.metrics, m)
	r.mu.Unlock()
}

// Named returns the captured metrics with the given name, oldest first.
func (r *Recorder) Named(name string) []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Recorded
	for _, m := range r.metrics {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}
