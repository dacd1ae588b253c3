package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/onboard-ui/internal/domain/auth"
	"github.com/target/onboard-ui/internal/domain/profile"
	"github.com/target/onboard-ui/internal/domain/session"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/observability/metrics"
	"github.com/target/onboard-ui/internal/observability/statsd"
	"github.com/target/onboard-ui/internal/ports"
)

// DefaultSessionTTL is used when AuthServiceOptions.SessionTTL is unset.
const DefaultSessionTTL = 24 * time.Hour

// ErrSSODisabled is returned by the SSO operations when no provider is configured.
var ErrSSODisabled = apperrors.NotFound("single sign-on is not configured")

var errSessionExpired = errors.New("session expired")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Accounts   ports.Accounts
	Profiles   ports.Profiles
	Provider   ports.AuthProvider // optional; nil disables SSO
	Sessions   ports.SessionStore
	SessionTTL time.Duration
	Metrics    statsd.Sink
	Logger     *slog.Logger
	Now        func() time.Time
}

// AuthService signs users in and out and keeps their persisted sign-in.
type AuthService struct {
	accounts ports.Accounts
	profiles ports.Profiles
	provider ports.AuthProvider
	sessions ports.SessionStore
	ttl      time.Duration
	metrics  statsd.Sink
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		accounts: opts.Accounts,
		profiles: opts.Profiles,
		provider: opts.Provider,
		sessions: opts.Sessions,
		ttl:      ttl,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "auth_service"),
		now:      now,
	}
}

// SSOEnabled reports whether an identity provider is configured.
func (s *AuthService) SSOEnabled() bool { return s.provider != nil }

// SignUp creates an account and signs it in.
// Expected refusals come back as ERR_SIGNUP_REJECTED.
func (s *AuthService) SignUp(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
	start := s.now()
	sess, err := s.signUp(ctx, creds)
	s.emit("signup", start, err)
	return sess, err
}

func (s *AuthService) signUp(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
	creds = creds.Normalized()
	if err := firstFieldError(creds.Validate(true)); err != nil {
		return nil, err
	}

	res, err := s.callAccounts(ctx, "create_user", s.accounts.CreateUser, creds)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, apperrors.SignupRejected(resultCause(res))
	}
	return s.startSession(ctx, res.UserID, creds.Email, time.Time{})
}

// SignIn checks credentials and signs the account in.
// Wrong credentials are an Unauthorized error carrying the collaborator's message.
func (s *AuthService) SignIn(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
	start := s.now()
	sess, err := s.signIn(ctx, creds)
	s.emit("signin", start, err)
	return sess, err
}

func (s *AuthService) signIn(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error) {
	creds = creds.Normalized()
	if err := firstFieldError(creds.Validate(false)); err != nil {
		return nil, err
	}

	res, err := s.callAccounts(ctx, "sign_in", s.accounts.SignIn, creds)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Incorrect email or password"
		}
		return nil, apperrors.Unauthorized(msg)
	}
	return s.startSession(ctx, res.UserID, creds.Email, time.Time{})
}

func (s *AuthService) callAccounts(
	ctx context.Context,
	op string,
	fn func(context.Context, domainauth.Credentials) (domainauth.Result, error),
	creds domainauth.Credentials,
) (domainauth.Result, error) {
	start := s.now()
	res, err := fn(ctx, creds)
	metrics.EmitCollaboratorCall(s.metrics, "accounts."+op, s.now().Sub(start), err)
	if err != nil {
		return domainauth.Result{}, err
	}
	if res.Success && res.UserID == "" {
		return domainauth.Result{}, apperrors.Upstream(nil, "auth service returned success without a user id")
	}
	return res, nil
}

// BeginLoginResult contains the result of beginning an SSO flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginSSO initiates an SSO flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginSSO(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, ErrSSODisabled
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing an SSO flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteSSO exchanges the authorization code for an identity and persists a session.
func (s *AuthService) CompleteSSO(ctx context.Context, input CompleteLoginInput) (*domainauth.Session, error) {
	start := s.now()
	sess, err := s.completeSSO(ctx, input)
	s.emit("sso", start, err)
	return sess, err
}

func (s *AuthService) completeSSO(ctx context.Context, input CompleteLoginInput) (*domainauth.Session, error) {
	if s.provider == nil {
		return nil, ErrSSODisabled
	}
	switch {
	case input.Code == "":
		return nil, apperrors.Validation("authorization code is required")
	case input.State == "":
		return nil, apperrors.Validation("state parameter is required")
	case input.Nonce == "":
		return nil, apperrors.Validation("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "exchange authorization code")
	}
	return s.startSession(ctx, identity.UserID, identity.Email, identity.ExpiresAt)
}

// startSession loads the profile for userID and persists a new session.
// notAfter caps the expiry when non-zero.
func (s *AuthService) startSession(ctx context.Context, userID, email string, notAfter time.Time) (*domainauth.Session, error) {
	p, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	expires := s.now().Add(s.ttl)
	if !notAfter.IsZero() && notAfter.Before(expires) {
		expires = notAfter
	}

	sess := domainauth.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     email,
		Username:  p.Username,
		AvatarSrc: p.AvatarSrc,
		ExpiresAt: expires,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &sess, nil
}

// loadProfile fetches the profile for a freshly authenticated user. A user
// without a profile record yet gets an empty one.
func (s *AuthService) loadProfile(ctx context.Context, userID string) (profile.Profile, error) {
	if s.profiles == nil {
		return profile.Profile{ID: userID}, nil
	}
	start := s.now()
	p, err := s.profiles.GetProfile(ctx, userID)
	metrics.EmitCollaboratorCall(s.metrics, "profiles.get_profile", s.now().Sub(start), err)
	if apperrors.IsNotFound(err) {
		return profile.Profile{ID: userID}, nil
	}
	if err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

// Restore loads a persisted session by ID. Expired sessions are deleted.
func (s *AuthService) Restore(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ports.ErrSessionNotFound
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Expired(s.now()) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}
	return &sess, nil
}

// Refresh copies the profile's username and picture into the persisted session.
func (s *AuthService) Refresh(ctx context.Context, sessionID string, p profile.Profile) (*domainauth.Session, error) {
	sess, err := s.Restore(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if p.Username != "" {
		sess.Username = p.Username
	}
	if p.AvatarSrc != "" {
		sess.AvatarSrc = p.AvatarSrc
	}
	if err := s.sessions.Save(ctx, *sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// SignOut removes a persisted session.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) (err error) {
	start := s.now()
	defer func() { s.emit("signout", start, err) }()
	if sessionID == "" {
		return nil
	}
	if err = s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *AuthService) emit(action string, start time.Time, err error) {
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case apperrors.IsValidation(err), apperrors.IsUnauthorized(err), apperrors.IsConflict(err):
		result = metrics.ResultRejected
	default:
		result = metrics.ResultError
		s.logger.Error("auth operation failed", "action", action, "error", err)
	}
	metrics.EmitAuth(s.metrics, metrics.AuthMetric{
		Action:   action,
		Result:   result,
		Duration: s.now().Sub(start),
		Err:      err,
	})
}

// SessionUser converts a persisted session into the value held by a session store.
func SessionUser(sess *domainauth.Session) *session.User {
	if sess == nil {
		return nil
	}
	return &session.User{
		ID:        sess.UserID,
		Username:  sess.Username,
		AvatarSrc: sess.AvatarSrc,
	}
}

func firstFieldError(errs domainauth.FieldErrors) error {
	for _, field := range []string{"email", "password"} {
		if msg, ok := errs[field]; ok {
			return apperrors.ValidationField(field, msg)
		}
	}
	return nil
}

func resultCause(res domainauth.Result) error {
	if res.Message == "" {
		return nil
	}
	return errors.New(res.Message)
}
