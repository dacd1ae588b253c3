package instance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/target/onboard-ui/internal/domain/popup"
	"github.com/target/onboard-ui/internal/observability/metrics"
	"github.com/target/onboard-ui/internal/observability/statsd"
)

const (
	DefaultIdleTTL       = 2 * time.Hour
	DefaultSweepInterval = time.Minute
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	StagingLimit  int
	Logger        *slog.Logger
	Metrics       statsd.Sink
	// Now overrides the clock (tests).
	Now func() time.Time
	// QueueOptions are applied to every new modal queue.
	QueueOptions []popup.Option
}

// Registry maps instance ids (the app_instance cookie) to instances and evicts idle ones.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*Instance

	idleTTL  time.Duration
	interval time.Duration
	staging  int
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
	queueOps []popup.Option
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	r := &Registry{
		instances: make(map[string]*Instance),
		idleTTL:   opts.IdleTTL,
		interval:  opts.SweepInterval,
		staging:   opts.StagingLimit,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
		queueOps:  opts.QueueOptions,
	}
	if r.idleTTL <= 0 {
		r.idleTTL = DefaultIdleTTL
	}
	if r.interval <= 0 {
		r.interval = DefaultSweepInterval
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Get returns the live instance for id and marks it as seen.
func (r *Registry) Get(id string) (*Instance, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	in, ok := r.instances[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	in.touch(r.now())
	return in, true
}

// Create starts a new instance with a fresh id.
func (r *Registry) Create() *Instance {
	in := newInstance(uuid.NewString(), r.now(), r.staging, r.queueOps...)

	r.mu.Lock()
	r.instances[in.ID] = in
	r.mu.Unlock()

	r.logger.Debug("instance created", "instance_id", in.ID)
	return in
}

// GetOrCreate returns the instance for id, or a new one when id is unknown.
// created reports whether a new instance was started.
func (r *Registry) GetOrCreate(id string) (in *Instance, created bool) {
	if in, ok := r.Get(id); ok {
		return in, false
	}
	return r.Create(), true
}

// Remove closes and forgets the instance for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	in, ok := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()
	if ok {
		in.close()
	}
}

// Len reports the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Sweep evicts instances idle for longer than the idle TTL and returns how many were evicted.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var stale []*Instance
	for id, in := range r.instances {
		if in.LastSeen().Before(cutoff) {
			stale = append(stale, in)
			delete(r.instances, id)
		}
	}
	live := len(r.instances)
	r.mu.Unlock()

	for _, in := range stale {
		in.close()
	}
	metrics.EmitInstances(r.metrics, live, len(stale))
	if len(stale) > 0 {
		r.logger.Info("evicted idle instances", "evicted", len(stale), "live", live)
	}
	return len(stale)
}

// Run sweeps on every interval until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("instance janitor started", "idle_ttl", r.idleTTL, "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("instance janitor stopped")
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close evicts every instance.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.instances
	r.instances = make(map[string]*Instance)
	r.mu.Unlock()

	for _, in := range all {
		in.close()
	}
}
