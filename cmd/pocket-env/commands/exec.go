package commands

import (
	"github.com/spf13/cobra"
	"github.com/worgue/magic-pocket/internal/bootstrap"
	"github.com/worgue/magic-pocket/internal/config"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/execenv"
	"github.com/worgue/magic-pocket/internal/secure"
)

func NewExecCommand(cfg *config.Config) *cobra.Command {
	var (
		allowOverride bool
		workingDir    string
	)

	cmd := &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Bootstrap the environment and run a command",
		Long: `Run the secrets and resources phases, then execute the command with the
resulting environment. Values stay encrypted in memory until the child is
started and are never written to disk. The child's exit code is returned.

When the current environment already carries POCKET_ENVS_SECRETS_LOADED or
POCKET_ENVS_AWS_RESOURCES_LOADED set to true, that phase is skipped.

The command must be separated from pocket-env arguments with '--'.

Examples:
  pocket-env exec --stage prod -- gunicorn app.wsgi
  POCKET_STAGE=dev pocket-env exec -- python manage.py migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return dserrors.UserError{
					Message:    "No command specified",
					Suggestion: "Use: pocket-env exec -- <command> [args...]",
				}
			}
			if err := execenv.ValidateCommand(args); err != nil {
				return err
			}

			vault := secure.NewVault()
			defer vault.Destroy()

			boot := newBootstrapper(cfg, vault, bootstrap.NewSession(bootstrap.WithInheritedMarkers()))
			if err := boot.SetEnvs(cmd.Context(), cfg.Stage); err != nil {
				return err
			}

			code, err := execenv.New(logger(cfg)).Exec(cmd.Context(), execenv.ExecOptions{
				Command:       args,
				Environment:   vault,
				AllowOverride: allowOverride,
				WorkingDir:    workingDir,
				Stdin:         cmd.InOrStdin(),
				Stdout:        cmd.OutOrStdout(),
				Stderr:        cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			if code != 0 {
				return ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&allowOverride, "allow-override", false, "Let existing environment variables win over bootstrapped ones")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory for the command")

	return cmd
}
