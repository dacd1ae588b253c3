package data

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/target/onboard-ui/internal/data/pgxutil"
	"github.com/target/onboard-ui/internal/domain/profile"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/ports"
)

var (
	_ ports.Profiles    = (*ProfileRepo)(nil)
	_ ports.AvatarStore = (*ProfileRepo)(nil)
)

// ProfileRepo stores profiles and their pictures in postgres.
type ProfileRepo struct {
	DB         *sql.DB
	AvatarBase string
}

// NewProfileRepo creates a new ProfileRepo. Avatar sources are avatarBase + profile id.
func NewProfileRepo(db *sql.DB, avatarBase string) *ProfileRepo {
	if !strings.HasSuffix(avatarBase, "/") {
		avatarBase += "/"
	}
	return &ProfileRepo{DB: db, AvatarBase: avatarBase}
}

// profileRow mirrors the profiles table for pgx.RowToStructByName.
type profileRow struct {
	ID        string         `db:"id"`
	Username  sql.NullString `db:"username"`
	AvatarSrc sql.NullString `db:"avatar_src"`
}

func (r profileRow) toDomain() profile.Profile {
	return profile.Profile{ID: r.ID, Username: r.Username.String, AvatarSrc: r.AvatarSrc.String}
}

const (
	selectProfileSQL  = `SELECT id, username, avatar_src FROM profiles WHERE id = $1`
	upsertUsernameSQL = `
		INSERT INTO profiles (id, username) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, updated_at = now()
		RETURNING id, username, avatar_src`
	usernameTakenSQL = `SELECT EXISTS(SELECT 1 FROM profiles WHERE username = $1)`
	upsertAvatarSQL  = `
		INSERT INTO profiles (id, avatar_src) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET avatar_src = EXCLUDED.avatar_src, updated_at = now()`
	upsertPictureSQL = `
		INSERT INTO profile_pictures (profile_id, content_type, data) VALUES ($1, $2, $3)
		ON CONFLICT (profile_id) DO UPDATE
		SET content_type = EXCLUDED.content_type, data = EXCLUDED.data, updated_at = now()`
	selectPictureSQL = `SELECT content_type, data FROM profile_pictures WHERE profile_id = $1`
)

func (r *ProfileRepo) queryProfile(ctx context.Context, query string, args ...any) (profile.Profile, error) {
	row, err := pgxutil.QueryOne[profileRow](ctx, r.DB, query, args...)
	if err != nil {
		return profile.Profile{}, apperrors.MapDBError(err)
	}
	return row.toDomain(), nil
}

func (r *ProfileRepo) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	return r.queryProfile(ctx, selectProfileSQL, id)
}

// SetUsername claims a username; a name owned by another profile is ERR_USERNAME_TAKEN.
func (r *ProfileRepo) SetUsername(ctx context.Context, in profile.SetUsernameInput) (profile.Profile, error) {
	name := profile.NormalizeUsername(in.Username)
	if msg := profile.ValidateUsername(name); msg != "" {
		return profile.Profile{}, apperrors.ValidationField("username", msg)
	}
	return r.queryProfile(ctx, upsertUsernameSQL, in.ProfileID, name)
}

func (r *ProfileRepo) CheckUsernameAvailability(ctx context.Context, username string) (profile.UsernameAvailability, error) {
	name := profile.NormalizeUsername(username)
	var taken bool
	if err := r.DB.QueryRowContext(ctx, usernameTakenSQL, name).Scan(&taken); err != nil {
		return profile.UsernameAvailability{}, apperrors.MapDBError(err)
	}
	return profile.UsernameAvailability{Username: name, IsAvailable: !taken}, nil
}

// SetProfilePicture stores the bytes and points the profile at them.
func (r *ProfileRepo) SetProfilePicture(ctx context.Context, in profile.SetProfilePictureInput) (profile.Picture, error) {
	if len(in.Image) == 0 {
		return profile.Picture{}, apperrors.ValidationField("picture", "picture is empty")
	}
	ct := in.ContentType
	if ct == "" {
		ct = http.DetectContentType(in.Image)
	}
	src := r.AvatarBase + in.ProfileID

	err := pgxutil.WithTx(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertAvatarSQL, in.ProfileID, src); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, upsertPictureSQL, in.ProfileID, ct, in.Image)
		return err
	})
	if err != nil {
		return profile.Picture{}, apperrors.MapDBError(err)
	}
	return profile.Picture{Src: src}, nil
}

// Avatar loads the stored picture for a profile.
func (r *ProfileRepo) Avatar(ctx context.Context, id string) (profile.Avatar, error) {
	var a profile.Avatar
	err := r.DB.QueryRowContext(ctx, selectPictureSQL, id).Scan(&a.ContentType, &a.Data)
	if pgxutil.IsNoRows(err) {
		return profile.Avatar{}, apperrors.NotFoundf("no picture for profile %s", id)
	}
	if err != nil {
		return profile.Avatar{}, apperrors.MapDBError(err)
	}
	return a, nil
}
