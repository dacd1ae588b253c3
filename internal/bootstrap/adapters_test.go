package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/onboard-ui/config"
	"github.com/target/onboard-ui/internal/adapters/memory"
	"github.com/target/onboard-ui/internal/adapters/profileapi"
)

func TestBuildBackend(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		b, err := BuildBackend(BackendDeps{
			Auth:    config.AuthConfig{BcryptCost: 4},
			Backend: config.BackendConfig{Mode: config.BackendModeMemory, AvatarBase: "/media/avatars/"},
			Logger:  quietLogger(),
		})
		require.NoError(t, err)
		assert.IsType(t, &memory.Accounts{}, b.Accounts)
		assert.NotNil(t, b.Avatars)
	})

	t.Run("postgres needs a database", func(t *testing.T) {
		_, err := BuildBackend(BackendDeps{Backend: config.BackendConfig{Mode: config.BackendModePostgres}})
		require.Error(t, err)
	})

	t.Run("remote", func(t *testing.T) {
		b, err := BuildBackend(BackendDeps{
			Backend: config.BackendConfig{
				Mode: config.BackendModeRemote,
				Remote: config.RemoteConfig{
					BaseURL:     "https://profiles.example.com/api",
					Expressions: config.RemoteExpressions{IsAvailable: "result.free"},
				},
			},
			Logger: quietLogger(),
		})
		require.NoError(t, err)
		assert.IsType(t, &profileapi.Profiles{}, b.Profiles)
		assert.Nil(t, b.Avatars, "remote pictures are not served locally")
	})

	t.Run("remote with a broken expression", func(t *testing.T) {
		_, err := BuildBackend(BackendDeps{
			Backend: config.BackendConfig{
				Mode: config.BackendModeRemote,
				Remote: config.RemoteConfig{
					BaseURL:     "https://profiles.example.com",
					Expressions: config.RemoteExpressions{Success: "data.["},
				},
			},
		})
		require.Error(t, err)
	})
}
