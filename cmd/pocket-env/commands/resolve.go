package commands

import (
	"github.com/spf13/cobra"
	"github.com/worgue/magic-pocket/internal/config"
	"gopkg.in/yaml.v3"
)

func NewResolveCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved configuration for a stage",
		Long: `Resolve pocket.toml for the selected stage and print the result as YAML.

Only secret names and locations are shown; nothing is fetched.

Examples:
  pocket-env resolve --stage dev
  POCKET_STAGE=prod pocket-env resolve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := requireStage(cfg)
			if err != nil {
				return err
			}
			resolved, err := cfg.Load(stage)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(resolved); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
