// Package profileapi talks to a remote auth/profile API over HTTP.
//
// Responses are JSON envelopes. Fields are located with JMESPath expressions so
// the adapter can follow the upstream's shape without code changes.
package profileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"golang.org/x/net/publicsuffix"
)

// maxResponseBytes bounds how much of an upstream response is read.
const maxResponseBytes = 1 << 20

// Expressions locate envelope fields. Empty fields take DefaultExpressions.
type Expressions struct {
	Success     string `json:"success"`
	Message     string `json:"message"`
	Code        string `json:"code"`
	UserID      string `json:"user_id"`
	ProfileID   string `json:"profile_id"`
	Username    string `json:"username"`
	AvatarSrc   string `json:"avatar_src"`
	IsAvailable string `json:"is_available"`
	PictureSrc  string `json:"picture_src"`
}

// DefaultExpressions matches `{"success":..,"data":{..},"message":..,"code":..}`.
var DefaultExpressions = Expressions{
	Success:     "success",
	Message:     "message",
	Code:        "code || error.code",
	UserID:      "data.id",
	ProfileID:   "data.id",
	Username:    "data.username",
	AvatarSrc:   "data.avatarSrc",
	IsAvailable: "data.isAvailable",
	PictureSrc:  "data.src",
}

func (e Expressions) withDefaults() Expressions {
	d := DefaultExpressions
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return Expressions{
		Success:     pick(e.Success, d.Success),
		Message:     pick(e.Message, d.Message),
		Code:        pick(e.Code, d.Code),
		UserID:      pick(e.UserID, d.UserID),
		ProfileID:   pick(e.ProfileID, d.ProfileID),
		Username:    pick(e.Username, d.Username),
		AvatarSrc:   pick(e.AvatarSrc, d.AvatarSrc),
		IsAvailable: pick(e.IsAvailable, d.IsAvailable),
		PictureSrc:  pick(e.PictureSrc, d.PictureSrc),
	}
}

func (e Expressions) validate() error {
	for name, expr := range map[string]string{
		"success":      e.Success,
		"message":      e.Message,
		"code":         e.Code,
		"user_id":      e.UserID,
		"profile_id":   e.ProfileID,
		"username":     e.Username,
		"avatar_src":   e.AvatarSrc,
		"is_available": e.IsAvailable,
		"picture_src":  e.PictureSrc,
	} {
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("expression %s: %w", name, err)
		}
	}
	return nil
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	APIKey      string // optional; sent as a bearer token
	Timeout     time.Duration
	Expressions Expressions
	HTTPClient  *http.Client // optional; its Jar is replaced when nil
	Logger      *slog.Logger
}

// Client is the shared HTTP plumbing for Accounts and Profiles.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	exprs  Expressions
	logger *slog.Logger
}

// NewClient validates cfg and builds a Client with a cookie jar scoped by the public suffix list.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("profileapi: invalid base URL %q", cfg.BaseURL)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	exprs := cfg.Expressions.withDefaults()
	if err := exprs.validate(); err != nil {
		return nil, fmt.Errorf("profileapi: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("profileapi: cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   base,
		apiKey: cfg.APIKey,
		http:   hc,
		exprs:  exprs,
		logger: logger.With("component", "profileapi"),
	}, nil
}

// envelope is a decoded response body plus its status.
type envelope struct {
	status int
	body   any
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload any) (envelope, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return envelope{}, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(ctx, method, path, query, body, "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return envelope{}, ctxErr
		}
		return envelope{}, apperrors.Upstream(err, "profile API unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return envelope{}, apperrors.Upstream(err, "read profile API response")
	}

	env := envelope{status: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env.body); err != nil {
			c.logger.Warn("non-JSON response", "path", path, "status", resp.StatusCode)
			return envelope{}, apperrors.Upstream(err, "profile API returned malformed JSON")
		}
	}
	return env, nil
}

// failure turns a non-success envelope into an error. The upstream code decides
// the public code; anything unrecognized is ERR_UNEXPECTED_ERROR.
func (c *Client) failure(env envelope, op string) error {
	code, _ := c.str(env.body, c.exprs.Code)
	msg, _ := c.str(env.body, c.exprs.Message)
	cause := fmt.Errorf("%s: status %d: %s", op, env.status, msg)

	switch apperrors.ParsePublicCode(code) {
	case apperrors.PublicSignupRejected:
		return apperrors.SignupRejected(cause)
	case apperrors.PublicUsernameTaken:
		return apperrors.UsernameTaken(cause)
	}
	switch env.status {
	case http.StatusNotFound:
		return apperrors.Wrap(cause, apperrors.ErrCodeNotFound, op+": not found")
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Wrap(cause, apperrors.ErrCodeUnauthorized, op+": not authorized")
	}
	return apperrors.Upstream(cause, op+" failed")
}

// ok reports whether env is a success: a 2xx status and a success flag that is
// true when present.
func (c *Client) ok(env envelope) bool {
	if env.status < 200 || env.status >= 300 {
		return false
	}
	v, err := jmespath.Search(c.exprs.Success, env.body)
	if err != nil || v == nil {
		return true
	}
	b, isBool := v.(bool)
	return isBool && b
}

func (c *Client) search(body any, expr string) (any, error) {
	v, err := jmespath.Search(expr, body)
	if err != nil {
		return nil, apperrors.Upstream(err, "evaluate "+expr)
	}
	return v, nil
}

// str evaluates expr and requires a string result. found is false for a missing field.
func (c *Client) str(body any, expr string) (string, bool) {
	v, err := c.search(body, expr)
	if err != nil || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Client) requireStr(body any, expr string) (string, error) {
	s, ok := c.str(body, expr)
	if !ok || s == "" {
		return "", apperrors.Upstream(errors.New("missing or non-string "+expr), "unexpected profile API response")
	}
	return s, nil
}

func (c *Client) requireBool(body any, expr string) (bool, error) {
	v, err := c.search(body, expr)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, apperrors.Upstream(fmt.Errorf("%s is %T, want bool", expr, v), "unexpected profile API response")
	}
	return b, nil
}
