package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/onboard-ui/internal/domain/auth"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

func TestAccountRepo_CreateAndSignIn(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewAccountRepo(db, bcrypt.MinCost)
		ctx := context.Background()

		res, err := repo.CreateUser(ctx, domainauth.Credentials{Email: "Ada@Example.com", Password: "correct-horse"})
		require.NoError(t, err)
		require.True(t, res.Success)
		require.NotEmpty(t, res.UserID)

		// stored lowercased and hashed
		var email string
		var hash []byte
		require.NoError(t, db.QueryRow(`SELECT email, password_hash FROM accounts WHERE id = $1`, res.UserID).
			Scan(&email, &hash))
		assert.Equal(t, "ada@example.com", email)
		assert.NotEqual(t, "correct-horse", string(hash))

		// an empty profile row is created alongside
		profiles := NewProfileRepo(db, "/media/avatars")
		p, err := profiles.GetProfile(ctx, res.UserID)
		require.NoError(t, err)
		assert.Empty(t, p.Username)

		in, err := repo.SignIn(ctx, domainauth.Credentials{Email: "ada@example.com", Password: "correct-horse"})
		require.NoError(t, err)
		assert.True(t, in.Success)
		assert.Equal(t, res.UserID, in.UserID)

		wrong, err := repo.SignIn(ctx, domainauth.Credentials{Email: "ada@example.com", Password: "nope"})
		require.NoError(t, err)
		assert.False(t, wrong.Success)
		assert.Equal(t, "Incorrect email or password", wrong.Message)

		unknown, err := repo.SignIn(ctx, domainauth.Credentials{Email: "who@example.com", Password: "x"})
		require.NoError(t, err)
		assert.False(t, unknown.Success)
	})
}

func TestAccountRepo_DuplicateEmail(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewAccountRepo(db, bcrypt.MinCost)
		ctx := context.Background()

		_, err := repo.CreateUser(ctx, domainauth.Credentials{Email: "dup@example.com", Password: "correct-horse"})
		require.NoError(t, err)

		_, err = repo.CreateUser(ctx, domainauth.Credentials{Email: "DUP@example.com", Password: "other-horse"})
		require.Error(t, err)
		assert.Equal(t, apperrors.PublicSignupRejected, apperrors.PublicCodeOf(err))
	})
}

func TestAccountRepo_InvalidInput(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewAccountRepo(db, bcrypt.MinCost)
		res, err := repo.CreateUser(context.Background(), domainauth.Credentials{Email: "bad", Password: "x"})
		require.NoError(t, err)
		assert.False(t, res.Success)
	})
}
