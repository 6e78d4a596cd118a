package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/worgue/magic-pocket/internal/bootstrap"
	"github.com/worgue/magic-pocket/internal/config"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
)

// CheckResult is one line of the doctor report.
type CheckResult struct {
	Name   string
	Status string // "ok", "warn" or "error"
	Detail string
}

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the document and AWS credentials",
		Long: `Verify that bootstrapping can work from here.

This command checks:
- pocket.toml can be found and its general section is valid
- the selected stage resolves (when a stage is selected)
- AWS credentials resolve to a principal (STS GetCallerIdentity)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := runChecks(cmd.Context(), cfg)
			printResults(cmd.OutOrStdout(), results)

			failed := 0
			for _, r := range results {
				if r.Status == "error" {
					failed++
				}
			}
			if failed > 0 {
				return dserrors.UserError{
					Message:    fmt.Sprintf("%d check(s) failed", failed),
					Suggestion: "Fix the errors above and run 'pocket-env doctor' again",
				}
			}
			return nil
		},
	}
}

func runChecks(ctx context.Context, cfg *config.Config) []CheckResult {
	var results []CheckResult

	path, err := cfg.DocumentPath()
	if err != nil {
		return append(results, CheckResult{"document", "error", err.Error()})
	}
	results = append(results, CheckResult{"document", "ok", path})

	general, err := cfg.LoadGeneral()
	if err != nil {
		return append(results, CheckResult{"general", "error", dserrors.SimplifyError(err).Error()})
	}
	results = append(results, CheckResult{"general", "ok", fmt.Sprintf("project %s in %s", general.ProjectName, general.Region)})

	if stage := bootstrap.NewSession().Stage(cfg.Stage); stage == bootstrap.NoStage {
		results = append(results, CheckResult{"stage", "warn", "no stage selected; pass --stage or set POCKET_STAGE"})
	} else if resolved, err := cfg.Load(stage); err != nil {
		results = append(results, CheckResult{"stage", "error", dserrors.SimplifyError(err).Error()})
	} else {
		results = append(results, CheckResult{"stage", "ok", fmt.Sprintf("%s (%d handlers)", resolved.Stage, len(resolved.Handlers))})
	}

	identity, err := cfg.Providers().CallerIdentity(ctx, general.Region)
	if err != nil {
		results = append(results, CheckResult{"credentials", "error", dserrors.SimplifyError(err).Error()})
	} else {
		results = append(results, CheckResult{"credentials", "ok", identity.ARN})
	}

	return results
}

func printResults(w io.Writer, results []CheckResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tSTATUS\tDETAIL")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Status, r.Detail)
	}
	_ = tw.Flush()
}
