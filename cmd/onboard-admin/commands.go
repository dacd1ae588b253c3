package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/target/onboard-ui/internal/bootstrap"
	domainauth "github.com/target/onboard-ui/internal/domain/auth"
	"github.com/target/onboard-ui/internal/domain/profile"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/migrate"
)

const defaultMigrationTimeout = 5 * time.Minute

func newMigrateCmd(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: a.cfg.Postgres, Logger: a.logger})
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					a.logger.Warn("db close failed", "error", closeErr)
				}
			}()

			a.logger.Info("running database migrations")
			if err := bootstrap.RunMigrations(ctx, db, a.logger); err != nil {
				return err
			}
			a.logger.Info("migrations completed successfully")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultMigrationTimeout, "maximum time to spend migrating")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List embedded migrations and whether each is applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := bootstrap.ConnectDB(cmd.Context(), bootstrap.DatabaseConfig{DBConfig: a.cfg.Postgres, Logger: a.logger})
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					a.logger.Warn("db close failed", "error", closeErr)
				}
			}()

			migrations, err := migrate.Status(cmd.Context(), db)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tAPPLIED")
			for _, m := range migrations {
				fmt.Fprintf(tw, "%s\t%t\n", m.Version, m.Applied)
			}
			return tw.Flush()
		},
	})
	return cmd
}

type createAccountOptions struct {
	Email         string
	Password      string
	PasswordStdin bool
	Username      string
}

func newCreateAccountCmd(a *app) *cobra.Command {
	var opts createAccountOptions
	cmd := &cobra.Command{
		Use:     "create-account",
		Short:   "Create an email/password account, optionally claiming a username",
		Example: `  echo "$PASSWORD" | onboard-admin create-account --email ada@example.com --password-stdin --username ada`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.PasswordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				opts.Password = strings.TrimRight(line, "\r\n")
			}
			return a.withInfra(cmd.Context(), func(in *infra) error {
				return createAccount(cmd, in, opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password; prefer --password-stdin")
	cmd.Flags().BoolVar(&opts.PasswordStdin, "password-stdin", false, "read the password from the first line of stdin")
	cmd.Flags().StringVar(&opts.Username, "username", "", "username to claim for the new profile")
	_ = cmd.MarkFlagRequired("email")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

func createAccount(cmd *cobra.Command, in *infra, opts createAccountOptions) error {
	ctx := cmd.Context()
	creds := domainauth.Credentials{Email: opts.Email, Password: opts.Password}.Normalized()
	if errs := creds.Validate(true); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for field, msg := range errs {
			msgs = append(msgs, field+": "+msg)
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if opts.Username != "" {
		if msg := profile.ValidateUsername(profile.NormalizeUsername(opts.Username)); msg != "" {
			return fmt.Errorf("username: %s", msg)
		}
	}

	res, err := in.Backend.Accounts.CreateUser(ctx, creds)
	if err != nil {
		return fmt.Errorf("create account: %s: %w", apperrors.PublicCodeOf(err), err)
	}
	if !res.Success {
		return fmt.Errorf("create account: %s", res.Message)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created account %s for %s\n", res.UserID, creds.Email)

	if opts.Username == "" {
		return nil
	}
	p, err := in.Backend.Profiles.SetUsername(ctx, profile.SetUsernameInput{ProfileID: res.UserID, Username: opts.Username})
	if err != nil {
		return fmt.Errorf("claim username: %s: %w", apperrors.PublicCodeOf(err), err)
	}
	fmt.Fprintf(out, "claimed username %s\n", p.Username)
	return nil
}

func newCheckUsernameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-username <username>",
		Short: "Report whether a username is valid and free",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := profile.NormalizeUsername(args[0])
			if msg := profile.ValidateUsername(name); msg != "" {
				return fmt.Errorf("%s: %s", name, msg)
			}
			return a.withInfra(cmd.Context(), func(in *infra) error {
				res, err := in.Backend.Profiles.CheckUsernameAvailability(cmd.Context(), name)
				if err != nil {
					return err
				}
				state := "taken"
				if res.IsAvailable {
					state = "available"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, state)
				return nil
			})
		},
	}
}

func newRevokeSessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-session <session-id>",
		Short: "Delete a persisted sign-in; the browser is signed out on its next request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withInfra(cmd.Context(), func(in *infra) error {
				if err := in.Sessions.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked session %s\n", args[0])
				return nil
			})
		},
	}
}
