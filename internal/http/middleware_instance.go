package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/target/onboard-ui/internal/domain/auth"
	"github.com/target/onboard-ui/internal/instance"
	"github.com/target/onboard-ui/internal/ports"
	"github.com/target/onboard-ui/internal/service"
)

// PersistedSessions re-hydrates and ends persisted sign-ins.
type PersistedSessions interface {
	Restore(ctx context.Context, sessionID string) (*domainauth.Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

// InstanceConfig configures the Instances middleware.
type InstanceConfig struct {
	Registry     *instance.Registry
	Auth         PersistedSessions // optional
	CookieDomain string
	Logger       *slog.Logger
}

// Instances attaches the browser's application instance to the request
// context, creating one (and its cookie) on first contact. A signed-out
// instance whose browser still holds a persisted sign-in is signed back in.
func Instances(cfg InstanceConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jar := cookieJar{Domain: cfg.CookieDomain}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") || r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			in, created := cfg.Registry.GetOrCreate(cookieValue(r, InstanceCookieName))
			if created {
				jar.set(w, r, cookieSpec{Name: InstanceCookieName, Value: in.ID})
			}
			syncPersistedSession(r, w, syncParams{In: in, Auth: cfg.Auth, Jar: jar, Logger: logger})

			next.ServeHTTP(w, r.WithContext(WithInstance(r.Context(), in)))
		})
	}
}

type syncParams struct {
	In     *instance.Instance
	Auth   PersistedSessions
	Jar    cookieJar
	Logger *slog.Logger
}

// syncPersistedSession reconciles the instance's Session Store with the session cookie.
func syncPersistedSession(r *http.Request, w http.ResponseWriter, p syncParams) {
	sid := cookieValue(r, SessionCookieName)
	in := p.In

	if in.Session.Get().SignedIn() {
		// The browser no longer carries the bound sign-in; end it before the
		// instance forgets which one it was.
		if bound := in.AuthSessionID(); bound != "" && bound != sid {
			if p.Auth != nil {
				if err := p.Auth.SignOut(r.Context(), bound); err != nil {
					p.Logger.WarnContext(r.Context(), "end dropped session failed", "instance", in.ID, "error", err)
				}
			}
			in.Session.Clear()
		}
		return
	}
	if sid == "" || p.Auth == nil {
		return
	}

	sess, err := p.Auth.Restore(r.Context(), sid)
	if err != nil {
		if !errors.Is(err, ports.ErrSessionNotFound) {
			p.Logger.DebugContext(r.Context(), "restore session failed", "instance", in.ID, "error", err)
		}
		p.Jar.clear(w, r, SessionCookieName)
		return
	}
	in.BindAuthSession(sess.ID)
	in.Session.Set(service.SessionUser(sess))
}

// RequireSession sends signed-out requests to the sign-in page. Plain requests
// get a 303, so the gated URL never lands in history; htmx requests get a
// full refresh that goes through the same redirect.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) != nil {
			next.ServeHTTP(w, r)
			return
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/"):
			WriteAppError(w, service.ErrNotSignedIn)
		case IsHTMX(r):
			HTMX(w).Refresh()
		default:
			http.Redirect(w, r, PathSignIn, http.StatusSeeOther)
		}
	})
}

// RedirectIfSignedIn keeps signed-in users off the sign-in and sign-up pages.
func RedirectIfSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) == nil {
			next.ServeHTTP(w, r)
			return
		}
		Navigate(w, r, PathHome)
	})
}

// BodyLimit caps request bodies at n bytes.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if n > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
