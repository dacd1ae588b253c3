package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"

	onboard "github.com/target/onboard-ui"
	"github.com/target/onboard-ui/internal/cryptoutil"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/observability/statsd"
	"github.com/target/onboard-ui/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth    AuthServiceInterface
	Setup   SetupServiceInterface
	Avatars ports.AvatarStore // optional; only local profile backends store pictures

	Health       map[string]HealthCheck
	Sealer       cryptoutil.Sealer // seals the SSO flow cookie; required when SSO is enabled
	CookieDomain string
	MaxUpload    int64
	Metrics      statsd.Sink

	IsDev  bool         // Development mode flag for hot reloading, etc.
	Logger *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures the application's HTTP router.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services.IsDev),
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	ui := &UIHandlers{T: tr, Logger: logger}

	auth := &AuthHandlers{
		Svc:          services.Auth,
		UI:           ui,
		Sealer:       services.Sealer,
		CookieDomain: services.CookieDomain,
		Metrics:      services.Metrics,
		Logger:       logger,
	}
	setup := &SetupHandlers{
		Svc:            services.Setup,
		UI:             ui,
		Metrics:        services.Metrics,
		MaxUploadBytes: services.MaxUpload,
		Logger:         logger,
	}
	modals := &ModalHandlers{UI: ui, Metrics: services.Metrics, Logger: logger}
	events := &EventHandlers{T: tr, Logger: logger}

	mux := http.NewServeMux()
	health := &HealthHandler{Checks: services.Health}
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /static/", staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS(services.IsDev))))))

	mux.HandleFunc("GET /{$}", ui.Root)
	mux.Handle("GET /home", RequireSession(http.HandlerFunc(ui.Home)))

	registerAuthRoutes(mux, auth)
	registerSetupRoutes(mux, setup)
	registerModalRoutes(mux, modals)
	mux.HandleFunc("GET /events", events.Stream)

	if services.Avatars != nil {
		media := &MediaHandlers{Avatars: services.Avatars, Logger: logger}
		mux.HandleFunc("GET /media/avatars/{id}", media.Avatar)
	}

	return &notFoundHandler{mux: mux, ui: ui}, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.Handle("GET /auth/signin", RedirectIfSignedIn(http.HandlerFunc(h.SignInPage)))
	mux.Handle("POST /auth/signin", RedirectIfSignedIn(http.HandlerFunc(h.SignIn)))
	mux.Handle("GET /auth/signup", RedirectIfSignedIn(http.HandlerFunc(h.SignUpPage)))
	mux.Handle("POST /auth/signup", RedirectIfSignedIn(http.HandlerFunc(h.SignUp)))
	mux.HandleFunc("POST /auth/signout", h.SignOut)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("GET /auth/sso/login", h.SSOLogin)
	mux.HandleFunc("GET /auth/sso/callback", h.SSOCallback)
}

func registerSetupRoutes(mux *http.ServeMux, h *SetupHandlers) {
	gated := func(fn http.HandlerFunc) http.Handler { return RequireSession(fn) }
	mux.Handle("GET /setup", gated(h.Page))
	mux.Handle("GET /setup/username/check", gated(h.CheckUsername))
	mux.Handle("POST /setup/username", gated(h.ClaimUsername))
	mux.Handle("POST /setup/picture", gated(h.UploadPicture))
	mux.Handle("GET /setup/picture/preview/{token}", gated(h.Preview))
	mux.Handle("POST /setup/picture/crop", gated(h.Crop))
	mux.Handle("POST /setup/skip", gated(h.Skip))
	mux.Handle("POST /setup/step", gated(h.GoTo))
	mux.Handle("POST /setup/finish", gated(h.Finish))
}

func registerModalRoutes(mux *http.ServeMux, h *ModalHandlers) {
	mux.HandleFunc("GET /modals", h.Host)
	mux.HandleFunc("DELETE /modals/{id}", h.Hide)
	mux.HandleFunc("GET /api/modals", h.List)
	mux.HandleFunc("POST /api/modals", h.Enqueue)
}

func templateFS(isDev bool) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(onboard.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

func staticFS(isDev bool) fs.FS {
	if isDev {
		return os.DirFS("frontend/static")
	}
	sub, err := fs.Sub(onboard.StaticFS, "frontend/static")
	if err != nil {
		return os.DirFS("frontend/static")
	}
	return sub
}

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	// content-hashed filenames, e.g. app.abc12345.js or styles.def45678.css.map
	hashedFilePattern := regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}

// notFoundHandler renders the not-found page for requests no route matches.
type notFoundHandler struct {
	mux *http.ServeMux
	ui  *UIHandlers
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := h.mux.Handler(r); pattern == "" && !strings.HasPrefix(r.URL.Path, "/static/") {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			WriteAppError(w, apperrors.NotFound("no such endpoint"))
			return
		}
		h.ui.NotFound(w, r)
		return
	}
	h.mux.ServeHTTP(w, r)
}
