package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/onboard-ui/config"
	"github.com/target/onboard-ui/internal/adapters/memory"
	"github.com/target/onboard-ui/internal/adapters/profileapi"
	"github.com/target/onboard-ui/internal/data"
	"github.com/target/onboard-ui/internal/ports"
)

// Backend is the set of collaborators behind accounts and profiles.
type Backend struct {
	Accounts ports.Accounts
	Profiles ports.Profiles
	// Avatars is nil when pictures are hosted by the remote backend.
	Avatars ports.AvatarStore
}

// BackendDeps groups what BuildBackend may need.
type BackendDeps struct {
	Auth    config.AuthConfig
	Backend config.BackendConfig
	DB      *sql.DB
	Logger  *slog.Logger
}

// BuildBackend picks the account and profile collaborators for the configured mode.
func BuildBackend(deps BackendDeps) (Backend, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch deps.Backend.Mode {
	case config.BackendModeMemory:
		logger.Warn("accounts and profiles are kept in memory and lost on restart")
		profiles := memory.NewProfiles(deps.Backend.AvatarBase)
		return Backend{
			Accounts: memory.NewAccounts(deps.Auth.BcryptCost),
			Profiles: profiles,
			Avatars:  profiles,
		}, nil

	case config.BackendModePostgres:
		if deps.DB == nil {
			return Backend{}, errors.New("postgres backend: database not connected")
		}
		profiles := data.NewProfileRepo(deps.DB, deps.Backend.AvatarBase)
		return Backend{
			Accounts: data.NewAccountRepo(deps.DB, deps.Auth.BcryptCost),
			Profiles: profiles,
			Avatars:  profiles,
		}, nil

	case config.BackendModeRemote:
		remote := deps.Backend.Remote
		client, err := profileapi.NewClient(profileapi.Config{
			BaseURL:     remote.BaseURL,
			APIKey:      remote.APIKey,
			Timeout:     remote.Timeout,
			Expressions: remoteExpressions(remote.Expressions),
			Logger:      logger,
		})
		if err != nil {
			return Backend{}, err
		}
		return Backend{
			Accounts: profileapi.NewAccounts(client),
			Profiles: profileapi.NewProfiles(client),
		}, nil

	default:
		return Backend{}, fmt.Errorf("unknown backend mode %q", deps.Backend.Mode)
	}
}

func remoteExpressions(e config.RemoteExpressions) profileapi.Expressions {
	return profileapi.Expressions{
		Success:     e.Success,
		Message:     e.Message,
		Code:        e.Code,
		UserID:      e.UserID,
		ProfileID:   e.ProfileID,
		Username:    e.Username,
		AvatarSrc:   e.AvatarSrc,
		IsAvailable: e.IsAvailable,
		PictureSrc:  e.PictureSrc,
	}
}
