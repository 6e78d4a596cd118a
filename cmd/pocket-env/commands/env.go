package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/worgue/magic-pocket/internal/bootstrap"
	"github.com/worgue/magic-pocket/internal/config"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/execenv"
)

// Output formats of the env command.
const (
	FormatDotenv = "dotenv"
	FormatExport = "export"
)

func NewEnvCommand(cfg *config.Config) *cobra.Command {
	var (
		reveal bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the bootstrapped environment",
		Long: `Run the secrets and resources phases into memory and print every
entry, sorted by name. Values are masked unless --reveal is given.

Examples:
  pocket-env env --stage dev
  pocket-env env --stage dev --reveal --format export > .env.sh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != FormatDotenv && format != FormatExport {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Unknown format %q", format),
					Suggestion: "Use --format dotenv or --format export",
				}
			}

			sink := bootstrap.NewMapEnv()
			boot := newBootstrapper(cfg, sink, bootstrap.NewSession())
			if err := boot.SetEnvs(cmd.Context(), cfg.Stage); err != nil {
				return err
			}

			entries := sink.Snapshot()
			if !reveal {
				logger(cfg).Warn("Values are masked; pass --reveal to print them")
			}
			return writeEntries(cmd.OutOrStdout(), sink.Keys(), entries, format, reveal)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print values in clear text")
	cmd.Flags().StringVar(&format, "format", FormatDotenv, "Output format: dotenv or export")

	return cmd
}

func writeEntries(w io.Writer, names []string, entries map[string]string, format string, reveal bool) error {
	for _, name := range names {
		value := entries[name]
		if !reveal {
			value = execenv.MaskValue(value)
		}

		var line string
		if format == FormatExport {
			line = fmt.Sprintf("export %s=%s", name, shellQuote(value))
		} else {
			line = fmt.Sprintf("%s=%s", name, dotenvQuote(value))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func dotenvQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'#$\\=") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "$", `\$`)
	return `"` + r.Replace(s) + `"`
}
