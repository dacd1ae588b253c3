// Command onboard-admin runs maintenance tasks against the onboard backends.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/target/onboard-ui/config"
	"github.com/target/onboard-ui/internal/bootstrap"
)

// app carries what every command needs. Tests replace loadConfig and openInfra.
type app struct {
	logger     *slog.Logger
	cfg        config.AppConfig
	loadConfig func() (config.AppConfig, error)
	openInfra  func(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*infra, error)
}

func main() {
	logger := bootstrap.InitLogger()
	a := &app{
		logger:     logger,
		loadConfig: bootstrap.LoadConfig,
		openInfra:  openInfra,
	}
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "onboard-admin",
		Short: "Maintenance commands for the onboard service",
		Long: `Maintenance commands for the onboard service.

Configuration is read from the environment (and .env) exactly as the server reads it,
so BACKEND_MODE, DB_* and REDIS_* select what each command talks to.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.AddCommand(
		newMigrateCmd(a),
		newCreateAccountCmd(a),
		newCheckUsernameCmd(a),
		newRevokeSessionCmd(a),
	)
	return root
}
