package httpx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/target/onboard-ui/internal/adapters/devauth"
	"github.com/target/onboard-ui/internal/adapters/memory"
	"github.com/target/onboard-ui/internal/cryptoutil"
	"github.com/target/onboard-ui/internal/domain/session"
	"github.com/target/onboard-ui/internal/imaging"
	"github.com/target/onboard-ui/internal/instance"
	"github.com/target/onboard-ui/internal/observability/metrics"
	"github.com/target/onboard-ui/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// testEnv wires the router to in-memory collaborators, the way the memory
// backend does in production.
type testEnv struct {
	Registry *instance.Registry
	Profiles *memory.Profiles
	Auth     *service.AuthService
	Setup    *service.SetupService
	Metrics  *metrics.Recorder
	Handler  http.Handler

	instanceID string
	cookies    map[string]*http.Cookie
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rec := &metrics.Recorder{}
	profiles := memory.NewProfiles("/media/avatars/")
	auth := service.NewAuthService(service.AuthServiceOptions{
		Accounts: memory.NewAccounts(bcrypt.MinCost),
		Profiles: profiles,
		Sessions: memory.NewSessions(),
		Metrics:  rec,
		Logger:   quietLogger(),
	})
	setupSvc := service.NewSetupService(service.SetupServiceOptions{
		Profiles: profiles,
		Images:   imaging.NewProcessor(imaging.ProcessorOptions{}),
		Auth:     auth,
		Metrics:  rec,
		Logger:   quietLogger(),
	})
	reg := instance.NewRegistry(instance.RegistryOptions{Logger: quietLogger(), Metrics: rec})

	router, err := NewRouter(RouterServices{
		Auth:    auth,
		Setup:   setupSvc,
		Avatars: profiles,
		Metrics: rec,
		Logger:  quietLogger(),
	})
	require.NoError(t, err)

	return &testEnv{
		Registry: reg,
		Profiles: profiles,
		Auth:     auth,
		Setup:    setupSvc,
		Metrics:  rec,
		Handler:  Instances(InstanceConfig{Registry: reg, Auth: auth, Logger: quietLogger()})(router),
	}
}

// instance returns the env's browser instance, creating it on first use.
func (e *testEnv) instance(t *testing.T) *instance.Instance {
	t.Helper()
	if e.instanceID == "" {
		e.instanceID = e.Registry.Create().ID
	}
	in, ok := e.Registry.Get(e.instanceID)
	require.True(t, ok)
	return in
}

// signIn puts a user on the env's instance without going through the forms.
func (e *testEnv) signIn(t *testing.T, u *session.User) *instance.Instance {
	t.Helper()
	in := e.instance(t)
	in.Session.Set(u)
	return in
}

// do serves r like a browser would: the instance cookie and any cookie an
// earlier response set are sent back unless r already carries one by that name.
func (e *testEnv) do(t *testing.T, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if e.instanceID != "" {
		r.AddCookie(&http.Cookie{Name: InstanceCookieName, Value: e.instanceID})
	}
	for name, c := range e.cookies {
		if _, err := r.Cookie(name); err != nil {
			r.AddCookie(&http.Cookie{Name: name, Value: c.Value})
		}
	}
	rr := httptest.NewRecorder()
	e.Handler.ServeHTTP(rr, r)
	for _, c := range rr.Result().Cookies() {
		switch {
		case c.Name == InstanceCookieName:
			if c.Value != "" {
				e.instanceID = c.Value
			}
		case c.MaxAge < 0 || c.Value == "":
			delete(e.cookies, c.Name)
		default:
			if e.cookies == nil {
				e.cookies = make(map[string]*http.Cookie)
			}
			e.cookies[c.Name] = c
		}
	}
	return rr
}

// dropCookie forgets a cookie, as when it expires in the browser.
func (e *testEnv) dropCookie(name string) {
	delete(e.cookies, name)
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		r.Header.Set("Hx-Request", "true")
	}
	return e.do(t, r)
}

func multipartUpload(t *testing.T, field string, data []byte) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "me.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// RequireTemplateRenderer loads the templates from the source tree.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	return tr
}

func newTestSealer(t *testing.T) cryptoutil.Sealer {
	t.Helper()
	key, err := cryptoutil.RandomKey()
	require.NoError(t, err)
	s, err := cryptoutil.NewAESGCMSealer(key)
	require.NoError(t, err)
	return s
}

// newSSOAuth returns an auth service whose provider is the dev provider,
// sharing the env's profiles.
func newSSOAuth(t *testing.T, env *testEnv) *service.AuthService {
	t.Helper()
	provider, err := devauth.NewProvider(devauth.Config{UserID: "sso|ada", Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)
	return service.NewAuthService(service.AuthServiceOptions{
		Accounts: memory.NewAccounts(bcrypt.MinCost),
		Profiles: env.Profiles,
		Provider: provider,
		Sessions: memory.NewSessions(),
		Logger:   quietLogger(),
	})
}
