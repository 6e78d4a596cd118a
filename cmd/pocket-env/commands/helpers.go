package commands

import (
	"fmt"

	"github.com/worgue/magic-pocket/internal/bootstrap"
	"github.com/worgue/magic-pocket/internal/config"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/resources"
	"github.com/worgue/magic-pocket/internal/secrets"
)

// ExitError carries a child process exit code up to main.
type ExitError struct {
	Code int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func logger(cfg *config.Config) *logging.Logger {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return cfg.Logger
}

func newBootstrapper(cfg *config.Config, sink bootstrap.Sink, session *bootstrap.Session) *bootstrap.Bootstrapper {
	f := cfg.Providers()
	log := logger(cfg)
	return bootstrap.New(
		cfg,
		secrets.New(f, secrets.WithLogger(log), secrets.WithCallTimeout(cfg.CallTimeout)),
		resources.New(f, f, resources.WithLogger(log), resources.WithMetrics(cfg.Metrics)),
		sink,
		bootstrap.WithSession(session),
		bootstrap.WithLogger(log),
		bootstrap.WithMetrics(cfg.Metrics),
	)
}

// requireStage returns the selected stage or a user error when none is set.
func requireStage(cfg *config.Config) (string, error) {
	stage := bootstrap.NewSession().Stage(cfg.Stage)
	if stage == bootstrap.NoStage {
		return "", dserrors.UserError{
			Message:    "No stage selected",
			Suggestion: "Pass --stage or set POCKET_STAGE",
		}
	}
	return stage, nil
}
