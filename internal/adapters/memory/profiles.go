package memory

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/target/onboard-ui/internal/domain/profile"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/ports"
)

// DefaultAvatarBase is the URL prefix avatars are served from.
const DefaultAvatarBase = "/media/avatars/"

var (
	_ ports.Profiles    = (*Profiles)(nil)
	_ ports.AvatarStore = (*Profiles)(nil)
)

// Profiles stores profiles and their pictures in memory. Usernames are unique.
type Profiles struct {
	mu         sync.RWMutex
	byID       map[string]profile.Profile
	owners     map[string]string // username -> profile id
	avatars    map[string]profile.Avatar
	avatarBase string
}

// NewProfiles returns an empty store serving avatars under avatarBase.
func NewProfiles(avatarBase string) *Profiles {
	if avatarBase == "" {
		avatarBase = DefaultAvatarBase
	}
	if !strings.HasSuffix(avatarBase, "/") {
		avatarBase += "/"
	}
	return &Profiles{
		byID:       make(map[string]profile.Profile),
		owners:     make(map[string]string),
		avatars:    make(map[string]profile.Avatar),
		avatarBase: avatarBase,
	}
}

func (p *Profiles) GetProfile(ctx context.Context, id string) (profile.Profile, error) {
	if err := ctx.Err(); err != nil {
		return profile.Profile{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	got, ok := p.byID[id]
	if !ok {
		return profile.Profile{}, apperrors.NotFoundf("profile %s not found", id)
	}
	return got, nil
}

// SetUsername claims in.Username for in.ProfileID, creating the profile on first use.
func (p *Profiles) SetUsername(ctx context.Context, in profile.SetUsernameInput) (profile.Profile, error) {
	if err := ctx.Err(); err != nil {
		return profile.Profile{}, err
	}
	name := profile.NormalizeUsername(in.Username)
	if msg := profile.ValidateUsername(name); msg != "" {
		return profile.Profile{}, apperrors.ValidationField("username", msg)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if owner, ok := p.owners[name]; ok && owner != in.ProfileID {
		return profile.Profile{}, apperrors.UsernameTaken(nil)
	}

	cur := p.byID[in.ProfileID]
	cur.ID = in.ProfileID
	if cur.Username != "" && cur.Username != name {
		delete(p.owners, cur.Username)
	}
	cur.Username = name
	p.byID[in.ProfileID] = cur
	p.owners[name] = in.ProfileID
	return cur, nil
}

func (p *Profiles) CheckUsernameAvailability(ctx context.Context, username string) (profile.UsernameAvailability, error) {
	if err := ctx.Err(); err != nil {
		return profile.UsernameAvailability{}, err
	}
	name := profile.NormalizeUsername(username)
	p.mu.RLock()
	_, taken := p.owners[name]
	p.mu.RUnlock()
	return profile.UsernameAvailability{Username: name, IsAvailable: !taken}, nil
}

// SetProfilePicture stores the image and points the profile at it.
func (p *Profiles) SetProfilePicture(ctx context.Context, in profile.SetProfilePictureInput) (profile.Picture, error) {
	if err := ctx.Err(); err != nil {
		return profile.Picture{}, err
	}
	if len(in.Image) == 0 {
		return profile.Picture{}, apperrors.ValidationField("picture", "picture is empty")
	}
	ct := in.ContentType
	if ct == "" {
		ct = http.DetectContentType(in.Image)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.avatars[in.ProfileID] = profile.Avatar{Data: append([]byte(nil), in.Image...), ContentType: ct}
	cur := p.byID[in.ProfileID]
	cur.ID = in.ProfileID
	cur.AvatarSrc = p.avatarBase + in.ProfileID
	p.byID[in.ProfileID] = cur
	return profile.Picture{Src: cur.AvatarSrc}, nil
}

// Avatar returns the stored picture for a profile.
func (p *Profiles) Avatar(_ context.Context, id string) (profile.Avatar, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.avatars[id]
	if !ok {
		return profile.Avatar{}, apperrors.NotFoundf("no picture for profile %s", id)
	}
	return a, nil
}
