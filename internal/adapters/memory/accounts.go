// Package memory holds in-process implementations of the auth and profile
// collaborators for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	domainauth "github.com/target/onboard-ui/internal/domain/auth"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

var _ ports.Accounts = (*Accounts)(nil)

type account struct {
	id   string
	hash []byte
}

// Accounts keeps accounts in a map keyed by normalized email.
type Accounts struct {
	mu     sync.RWMutex
	byMail map[string]account
	cost   int
}

// NewAccounts returns an empty account set. cost is the bcrypt cost; zero uses bcrypt.DefaultCost.
func NewAccounts(cost int) *Accounts {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Accounts{byMail: make(map[string]account), cost: cost}
}

// CreateUser adds an account. An email already in use is rejected with ERR_SIGNUP_REJECTED.
func (a *Accounts) CreateUser(ctx context.Context, creds domainauth.Credentials) (domainauth.Result, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.Result{}, err
	}
	creds = creds.Normalized()
	if errs := creds.Validate(true); len(errs) > 0 {
		return domainauth.Result{Success: false, Message: "Invalid email or password"}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), a.cost)
	if err != nil {
		return domainauth.Result{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "hash password")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byMail[creds.Email]; ok {
		return domainauth.Result{}, apperrors.SignupRejected(nil)
	}
	acc := account{id: uuid.New().String(), hash: hash}
	a.byMail[creds.Email] = acc
	return domainauth.Result{Success: true, UserID: acc.id}, nil
}

// SignIn checks the password for the account with creds.Email.
func (a *Accounts) SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Result, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.Result{}, err
	}
	creds = creds.Normalized()

	a.mu.RLock()
	acc, ok := a.byMail[creds.Email]
	a.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(creds.Password)) != nil {
		return domainauth.Result{Success: false, Message: "Incorrect email or password"}, nil
	}
	return domainauth.Result{Success: true, UserID: acc.id}, nil
}
