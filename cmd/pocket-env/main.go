package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/worgue/magic-pocket/cmd/pocket-env/commands"
	"github.com/worgue/magic-pocket/internal/config"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	memguard.CatchInterrupt()
	code := run()
	memguard.Purge()
	os.Exit(code)
}

func run() int {
	var (
		noColor         bool
		debug           bool
		jsonLogs        bool
		metricsTextfile string
	)

	cfg := config.FromEnv(os.Getenv)
	cfg.Metrics = metrics.New(nil)

	rootCmd := &cobra.Command{
		Use:   "pocket-env",
		Short: "Bootstrap a pocket workload's environment",
		Long: `pocket-env resolves pocket.toml for a stage, fetches its secrets and
the deployed resources of its handlers, and publishes them as environment
variables before the application starts.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Logger = logging.NewWithOptions(logging.Options{
				Debug:   debug,
				NoColor: noColor,
				JSON:    jsonLogs,
			})
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.Path, "config", cfg.Path, "Document path (default: $POCKET_CONFIG, else search pocket.toml upward)")
	flags.StringVar(&cfg.Stage, "stage", "", "Stage to resolve (default: $POCKET_STAGE)")
	flags.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "AWS endpoint override, e.g. LocalStack (default: $POCKET_AWS_ENDPOINT)")
	flags.StringVar(&cfg.Profile, "profile", cfg.Profile, "AWS shared config profile (default: $AWS_PROFILE)")
	flags.DurationVar(&cfg.CallTimeout, "call-timeout", 0, "Bound each secret store call, e.g. 30s (default: no bound)")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&jsonLogs, "json-logs", false, "Log JSON lines instead of console output")
	flags.StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		commands.NewResolveCommand(cfg),
		commands.NewEnvCommand(cfg),
		commands.NewExecCommand(cfg),
		commands.NewDoctorCommand(cfg),
	)

	err := rootCmd.Execute()

	if metricsTextfile != "" {
		if werr := cfg.Metrics.WriteToTextfile(metricsTextfile); werr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write metrics: %v\n", werr)
		}
	}
	if cfg.Logger != nil {
		_ = cfg.Logger.Sync()
	}

	var exitErr commands.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		return 1
	}
}
