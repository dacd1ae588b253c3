package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/target/onboard-ui/internal/data/pgxutil"
	domainauth "github.com/target/onboard-ui/internal/domain/auth"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

var _ ports.Accounts = (*AccountRepo)(nil)

// AccountRepo stores email/password accounts with bcrypt hashes.
type AccountRepo struct {
	DB   *sql.DB
	Cost int
}

// NewAccountRepo creates a new AccountRepo. cost zero uses bcrypt.DefaultCost.
func NewAccountRepo(db *sql.DB, cost int) *AccountRepo {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AccountRepo{DB: db, Cost: cost}
}

const (
	insertAccountSQL = `INSERT INTO accounts (id, email, password_hash) VALUES ($1, $2, $3)`
	insertProfileSQL = `INSERT INTO profiles (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`
	accountByEmail   = `SELECT id, password_hash FROM accounts WHERE email = $1`
)

// CreateUser inserts the account and its empty profile in one transaction.
// A duplicate email surfaces as ERR_SIGNUP_REJECTED.
func (r *AccountRepo) CreateUser(ctx context.Context, creds domainauth.Credentials) (domainauth.Result, error) {
	creds = creds.Normalized()
	if errs := creds.Validate(true); len(errs) > 0 {
		return domainauth.Result{Success: false, Message: "Invalid email or password"}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), r.Cost)
	if err != nil {
		return domainauth.Result{}, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.New().String()
	err = pgxutil.WithTx(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, execErr := tx.Exec(ctx, insertAccountSQL, id, creds.Email, hash); execErr != nil {
			return execErr
		}
		_, execErr := tx.Exec(ctx, insertProfileSQL, id)
		return execErr
	})
	if err != nil {
		return domainauth.Result{}, apperrors.MapDBError(err)
	}
	return domainauth.Result{Success: true, UserID: id}, nil
}

// SignIn compares the password against the stored hash.
func (r *AccountRepo) SignIn(ctx context.Context, creds domainauth.Credentials) (domainauth.Result, error) {
	creds = creds.Normalized()

	var (
		id   string
		hash []byte
	)
	err := r.DB.QueryRowContext(ctx, accountByEmail, creds.Email).Scan(&id, &hash)
	if pgxutil.IsNoRows(err) {
		return domainauth.Result{Success: false, Message: "Incorrect email or password"}, nil
	}
	if err != nil {
		return domainauth.Result{}, apperrors.MapDBError(err)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		return domainauth.Result{Success: false, Message: "Incorrect email or password"}, nil
	}
	return domainauth.Result{Success: true, UserID: id}, nil
}
