package profileapi

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/target/onboard-ui/internal/domain/profile"
	"github.com/target/onboard-ui/internal/ports"
)

var _ ports.Profiles = (*Profiles)(nil)

// Profiles calls the remote profile endpoints.
type Profiles struct {
	c *Client
}

// NewProfiles wraps c.
func NewProfiles(c *Client) *Profiles { return &Profiles{c: c} }

func profilePath(id string, rest string) string {
	return "/profiles/" + url.PathEscape(id) + rest
}

// GetProfile fetches /profiles/{id}.
func (p *Profiles) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	env, err := p.c.doJSON(ctx, http.MethodGet, profilePath(id, ""), nil, nil)
	if err != nil {
		return profile.Profile{}, err
	}
	if !p.c.ok(env) {
		return profile.Profile{}, p.c.failure(env, "get profile")
	}
	return p.decodeProfile(env.body, id), nil
}

// SetUsername puts /profiles/{id}/username.
func (p *Profiles) SetUsername(ctx context.Context, in profile.SetUsernameInput) (profile.Profile, error) {
	body := map[string]string{"username": in.Username}
	env, err := p.c.doJSON(ctx, http.MethodPut, profilePath(in.ProfileID, "/username"), nil, body)
	if err != nil {
		return profile.Profile{}, err
	}
	if !p.c.ok(env) {
		return profile.Profile{}, p.c.failure(env, "set username")
	}
	got := p.decodeProfile(env.body, in.ProfileID)
	if got.Username == "" {
		got.Username = in.Username
	}
	return got, nil
}

// CheckUsernameAvailability gets /profiles/username-availability?username=.
func (p *Profiles) CheckUsernameAvailability(ctx context.Context, username string) (profile.UsernameAvailability, error) {
	q := url.Values{"username": {username}}
	env, err := p.c.doJSON(ctx, http.MethodGet, "/profiles/username-availability", q, nil)
	if err != nil {
		return profile.UsernameAvailability{}, err
	}
	if !p.c.ok(env) {
		return profile.UsernameAvailability{}, p.c.failure(env, "check username")
	}
	avail, err := p.c.requireBool(env.body, p.c.exprs.IsAvailable)
	if err != nil {
		return profile.UsernameAvailability{}, err
	}
	return profile.UsernameAvailability{Username: username, IsAvailable: avail}, nil
}

// SetProfilePicture puts the raw image to /profiles/{id}/picture.
func (p *Profiles) SetProfilePicture(ctx context.Context, in profile.SetProfilePictureInput) (profile.Picture, error) {
	ct := in.ContentType
	if ct == "" {
		ct = http.DetectContentType(in.Image)
	}
	env, err := p.c.do(ctx, http.MethodPut, profilePath(in.ProfileID, "/picture"), nil, bytes.NewReader(in.Image), ct)
	if err != nil {
		return profile.Picture{}, err
	}
	if !p.c.ok(env) {
		return profile.Picture{}, p.c.failure(env, "set picture")
	}
	src, err := p.c.requireStr(env.body, p.c.exprs.PictureSrc)
	if err != nil {
		return profile.Picture{}, err
	}
	return profile.Picture{Src: src}, nil
}

// decodeProfile reads the profile fields. Username and avatar are optional.
func (p *Profiles) decodeProfile(body any, fallbackID string) profile.Profile {
	out := profile.Profile{ID: fallbackID}
	if id, ok := p.c.str(body, p.c.exprs.ProfileID); ok && id != "" {
		out.ID = id
	}
	out.Username, _ = p.c.str(body, p.c.exprs.Username)
	out.AvatarSrc, _ = p.c.str(body, p.c.exprs.AvatarSrc)
	return out
}
