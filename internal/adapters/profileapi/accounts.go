package profileapi

import (
	"context"
	"net/http"

	domainauth "github.com/target/onboard-ui/internal/domain/auth"
	"github.com/target/onboard-ui/internal/ports"
)

var _ ports.Accounts = (*Accounts)(nil)

// Accounts calls the remote auth endpoints.
type Accounts struct {
	c *Client
}

// NewAccounts wraps c.
func NewAccounts(c *Client) *Accounts { return &Accounts{c: c} }

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser posts to /auth/signup.
func (a *Accounts) CreateUser(ctx context.Context, creds domainauth.Credentials) (domainauth.Result, error) {
	return a.call(ctx, "/auth/signup", "create user", creds)
}

// SignIn posts to /auth/signin.
func (a *Accounts) SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Result, error) {
	return a.call(ctx, "/auth/signin", "sign in", creds)
}

func (a *Accounts) call(ctx context.Context, path, op string, creds domainauth.Credentials) (domainauth.Result, error) {
	env, err := a.c.doJSON(ctx, http.MethodPost, path, nil, credentialsBody{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return domainauth.Result{}, err
	}

	if !a.c.ok(env) {
		// A well-formed refusal without a public code is an expected failure.
		if env.status < 500 {
			if code, _ := a.c.str(env.body, a.c.exprs.Code); code == "" {
				msg, _ := a.c.str(env.body, a.c.exprs.Message)
				return domainauth.Result{Success: false, Message: msg}, nil
			}
		}
		return domainauth.Result{}, a.c.failure(env, op)
	}

	id, err := a.c.requireStr(env.body, a.c.exprs.UserID)
	if err != nil {
		return domainauth.Result{}, err
	}
	return domainauth.Result{Success: true, UserID: id}, nil
}
