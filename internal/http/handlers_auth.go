package httpx

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/onboard-ui/internal/cryptoutil"
	domainauth "github.com/target/onboard-ui/internal/domain/auth"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/http/validation"
	"github.com/target/onboard-ui/internal/instance"
	"github.com/target/onboard-ui/internal/observability/statsd"
	"github.com/target/onboard-ui/internal/service"
)

// ssoFlowTTL bounds how long a browser may take at the identity provider.
const ssoFlowTTL = 10 * time.Minute

// AuthServiceInterface defines the auth operations the handlers need.
type AuthServiceInterface interface {
	SSOEnabled() bool
	SignUp(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error)
	SignIn(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error)
	BeginSSO(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteSSO(ctx context.Context, input service.CompleteLoginInput) (*domainauth.Session, error)
	Restore(ctx context.Context, sessionID string) (*domainauth.Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	UI           *UIHandlers
	Sealer       cryptoutil.Sealer // seals the SSO flow cookie; required when SSO is enabled
	CookieDomain string
	Metrics      statsd.Sink
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) cookies() cookieJar { return cookieJar{Domain: h.CookieDomain} }

// authForm is the parsed sign-in/sign-up form.
type authForm struct {
	Email    string
	Password string
}

func parseAuthForm(r *http.Request) authForm {
	return authForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
}

func (f authForm) validate(forSignUp bool) *validation.FieldValidator {
	fv := validation.New().
		Validate("email", f.Email, validation.Required("Email", 254), validation.Email("Email")).
		Validate("password", f.Password, validation.Optional("Password", 128))
	creds := domainauth.Credentials{Email: f.Email, Password: f.Password}
	for field, msg := range creds.Validate(forSignUp) {
		fv.Add(field, msg)
	}
	return fv
}

// SignInPage renders the sign-in form.
// GET /auth/signin.
func (h *AuthHandlers) SignInPage(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, authPageParams{Page: PageSignIn, Status: http.StatusOK})
}

// SignUpPage renders the sign-up form.
// GET /auth/signup.
func (h *AuthHandlers) SignUpPage(w http.ResponseWriter, r *http.Request) {
	h.renderAuthPage(w, r, authPageParams{Page: PageSignUp, Status: http.StatusOK})
}

// SignIn checks the submitted credentials.
// POST /auth/signin.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, submitParams{Page: PageSignIn, Op: h.Svc.SignIn, AlertTitle: "Sign in failed"})
}

// SignUp creates an account.
// POST /auth/signup.
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, submitParams{Page: PageSignUp, Op: h.Svc.SignUp, AlertTitle: "Sign up failed"})
}

type submitParams struct {
	Page       string
	Op         func(context.Context, domainauth.Credentials) (*domainauth.Session, error)
	AlertTitle string
}

// submit runs a credential operation. Field problems re-render the form inline;
// wrong credentials become a form error; everything else becomes an alert modal.
func (h *AuthHandlers) submit(w http.ResponseWriter, r *http.Request, p submitParams) {
	in, ok := InstanceFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Internal("no application instance"))
		return
	}

	form := parseAuthForm(r)
	fv := form.validate(p.Page == PageSignUp)
	if !fv.Valid() {
		h.renderAuthPage(w, r, authPageParams{Page: p.Page, Status: formStatus(r), Form: form, Errors: fv.Errors()})
		return
	}

	sess, err := p.Op(r.Context(), domainauth.Credentials{Email: form.Email, Password: form.Password})
	if err != nil {
		switch {
		case fv.AddError(err):
		case apperrors.IsUnauthorized(err):
			fv.Add("form", apperrors.UserMessage(err))
		default:
			if _, alertErr := service.AlertFor(h.Metrics, in.Modals, p.AlertTitle, err); alertErr != nil {
				h.logger().ErrorContext(r.Context(), "enqueue alert", "error", alertErr)
			}
			h.logger().InfoContext(r.Context(), "credential submit failed",
				"page", p.Page, "code", apperrors.PublicCodeOf(err), "error", err)
		}
		h.renderAuthPage(w, r, authPageParams{Page: p.Page, Status: formStatus(r), Form: form, Errors: fv.Errors()})
		return
	}

	h.beginBrowserSession(w, r, in, sess)
	Navigate(w, r, postAuthPath(sess))
}

type authPageParams struct {
	Page   string
	Status int
	Form   authForm
	Errors map[string]string
}

func (h *AuthHandlers) renderAuthPage(w http.ResponseWriter, r *http.Request, p authPageParams) {
	title := "Sign in"
	if p.Page == PageSignUp {
		title = "Create your account"
	}
	data := NewTemplateData(r, PageMeta{Title: title, PageTitle: title, CurrentPage: p.Page}).
		WithFieldErrors(p.Errors).
		With("Email", p.Form.Email).
		With("SSOEnabled", h.Svc.SSOEnabled()).
		Build()
	h.UI.RenderStatus(w, r, p.Status, data)
}

// beginBrowserSession writes the session cookie and signs the instance in.
func (h *AuthHandlers) beginBrowserSession(
	w http.ResponseWriter,
	r *http.Request,
	in *instance.Instance,
	sess *domainauth.Session,
) {
	h.cookies().set(w, r, cookieSpec{
		Name:   SessionCookieName,
		Value:  sess.ID,
		MaxAge: time.Until(sess.ExpiresAt),
	})
	in.BindAuthSession(sess.ID)
	in.Session.Set(service.SessionUser(sess))
}

// postAuthPath sends users without a username to setup and everyone else home.
func postAuthPath(sess *domainauth.Session) string {
	if sess.Username == "" {
		return PathSetup
	}
	return PathHome
}

// SignOut ends the persisted sign-in and clears the instance.
// POST /auth/signout.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	sid := cookieValue(r, SessionCookieName)
	in, ok := InstanceFromContext(r.Context())
	if ok && in.AuthSessionID() != "" {
		sid = in.AuthSessionID()
	}
	if err := h.Svc.SignOut(r.Context(), sid); err != nil {
		h.logger().WarnContext(r.Context(), "sign out failed", "error", err)
	}
	h.cookies().clear(w, r, SessionCookieName)
	if ok {
		in.Session.Clear()
	}

	switch {
	case IsHTMX(r):
		HTMX(w).Redirect(PathSignIn)
	case IsAJAX(r):
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": PathSignIn})
	default:
		http.Redirect(w, r, PathSignIn, http.StatusSeeOther)
	}
}

// ssoFlow is sealed into one cookie for the provider round trip.
type ssoFlow struct {
	State    string `json:"s"`
	Nonce    string `json:"n"`
	Redirect string `json:"r"`
}

// SSOLogin starts single sign-on.
// GET /auth/sso/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) SSOLogin(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.SSOEnabled() || h.Sealer == nil {
		h.UI.NotFound(w, r)
		return
	}
	redirect := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	res, err := h.Svc.BeginSSO(r.Context(), redirect)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin sso", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "login_failed", Err: err})
		return
	}

	sealed, err := cryptoutil.SealJSON(h.Sealer, SSOFlowCookieName, ssoFlow{
		State: res.State, Nonce: res.Nonce, Redirect: redirect,
	})
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "login_failed", Err: err})
		return
	}
	h.cookies().set(w, r, cookieSpec{Name: SSOFlowCookieName, Value: sealed, MaxAge: ssoFlowTTL})
	http.Redirect(w, r, res.AuthURL, http.StatusFound)
}

// SSOCallback completes single sign-on.
// GET /auth/sso/callback?code=<code>&state=<state>.
func (h *AuthHandlers) SSOCallback(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.SSOEnabled() || h.Sealer == nil {
		h.UI.NotFound(w, r)
		return
	}
	in, ok := InstanceFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Internal("no application instance"))
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "missing_code",
			Err: apperrors.Validation("authorization code and state are required"),
		})
		return
	}

	flow, err := cryptoutil.OpenJSON[ssoFlow](h.Sealer, SSOFlowCookieName, cookieValue(r, SSOFlowCookieName))
	h.cookies().clear(w, r, SSOFlowCookieName)
	if err != nil || subtle.ConstantTimeCompare([]byte(flow.State), []byte(state)) != 1 {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "invalid_state",
			Err: apperrors.Validation("invalid or missing state parameter"),
		})
		return
	}

	sess, err := h.Svc.CompleteSSO(r.Context(), service.CompleteLoginInput{Code: code, State: state, Nonce: flow.Nonce})
	if err != nil {
		h.logger().WarnContext(r.Context(), "complete sso", "error", err)
		if _, alertErr := service.AlertFor(h.Metrics, in.Modals, "Single sign-on failed", err); alertErr != nil {
			h.logger().ErrorContext(r.Context(), "enqueue alert", "error", alertErr)
		}
		http.Redirect(w, r, PathSignIn, http.StatusSeeOther)
		return
	}

	h.beginBrowserSession(w, r, in, sess)
	dest := postAuthPath(sess)
	if dest == PathHome && flow.Redirect != "/" {
		dest = flow.Redirect
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	body := map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName(),
			"avatar_url":   user.AvatarURL(),
		},
	}
	if in, ok := InstanceFromContext(r.Context()); ok && in.AuthSessionID() != "" {
		if sess, err := h.Svc.Restore(r.Context(), in.AuthSessionID()); err == nil {
			body["expires_at"] = sess.ExpiresAt
		} else if !errors.Is(err, context.Canceled) {
			h.logger().DebugContext(r.Context(), "status restore", "error", err)
		}
	}
	WriteJSON(w, http.StatusOK, body)
}

// formStatus keeps htmx swapping re-rendered forms; htmx ignores 4xx bodies by default.
func formStatus(r *http.Request) int {
	if IsHTMX(r) {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}
