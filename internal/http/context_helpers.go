package httpx

import (
	"context"
	"net/http"

	"github.com/target/onboard-ui/internal/domain/session"
	"github.com/target/onboard-ui/internal/instance"
)

// instanceKey is an unexported context key type to avoid collisions across packages.
type instanceKey struct{}

// WithInstance returns a child context that carries the application instance.
// A nil instance returns ctx unchanged.
func WithInstance(ctx context.Context, in *instance.Instance) context.Context {
	if in == nil {
		return ctx
	}
	return context.WithValue(ctx, instanceKey{}, in)
}

// InstanceFromContext returns the application instance and whether one is present.
func InstanceFromContext(ctx context.Context) (*instance.Instance, bool) {
	in, ok := ctx.Value(instanceKey{}).(*instance.Instance)
	return in, ok && in != nil
}

// CurrentUser returns the signed-in user of the request's instance, or nil.
func CurrentUser(r *http.Request) *session.User {
	in, ok := InstanceFromContext(r.Context())
	if !ok {
		return nil
	}
	return in.Session.Get().User
}
