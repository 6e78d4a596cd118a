// Package execenv runs the workload command with the bootstrapped
// environment.
package execenv

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/logging"
)

// Environ yields NAME=value entries. *secure.Vault implements it.
type Environ interface {
	Environ() ([]string, error)
}

// secretNamer is implemented by environments that know which of their
// entries are secret. Those values are redacted from logs and errors.
type secretNamer interface {
	SecretNames() []string
}

// Executor runs a child command.
type Executor struct {
	logger *logging.Logger
}

// New creates a new executor
func New(logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Executor{logger: logger}
}

// ExecOptions configures command execution
type ExecOptions struct {
	Command       []string // Command and arguments to run
	Environment   Environ  // Bootstrapped entries
	AllowOverride bool     // Existing process variables win over bootstrapped ones
	WorkingDir    string

	Stdin  io.Reader // Defaults to os.Stdin
	Stdout io.Writer // Defaults to os.Stdout
	Stderr io.Writer // Defaults to os.Stderr
}

// Exec runs the command and returns its exit code. A non-zero exit is not an
// error; err is only set when the command could not run at all.
func (e *Executor) Exec(ctx context.Context, options ExecOptions) (int, error) {
	if err := ValidateCommand(options.Command); err != nil {
		return 1, err
	}

	var overlay, secrets []string
	if options.Environment != nil {
		var err error
		overlay, err = options.Environment.Environ()
		if err != nil {
			return 1, dserrors.UserError{
				Message:    "Failed to build environment",
				Details:    err.Error(),
				Suggestion: "Check that the process may lock memory (RLIMIT_MEMLOCK)",
				Err:        err,
			}
		}
		if namer, ok := options.Environment.(secretNamer); ok {
			secrets = secretValues(overlay, namer.SecretNames())
		}
	}

	cmd := exec.CommandContext(ctx, options.Command[0], options.Command[1:]...)
	cmd.Env = MergeEnviron(os.Environ(), overlay, options.AllowOverride)
	cmd.Dir = options.WorkingDir
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if options.Stdin != nil {
		cmd.Stdin = options.Stdin
	}
	if options.Stdout != nil {
		cmd.Stdout = options.Stdout
	}
	if options.Stderr != nil {
		cmd.Stderr = options.Stderr
	}

	shown := logging.Redact(strings.Join(options.Command, " "), secrets)
	e.logger.Debug("Executing command: %s", shown)
	e.logger.Debug("Environment variables set: %d", len(overlay))

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, dserrors.CommandError{
		Command:    shown,
		Message:    logging.Redact(err.Error(), secrets),
		Suggestion: "Check the command output above for details",
	}
}

// secretValues returns the values of the entries named in names.
func secretValues(entries, names []string) []string {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	var values []string
	for _, kv := range entries {
		if name, value, ok := strings.Cut(kv, "="); ok && wanted[name] {
			values = append(values, value)
		}
	}
	return values
}

// MergeEnviron lays overlay over base. With allowOverride, entries already in
// base keep their value. The result is sorted.
func MergeEnviron(base, overlay []string, allowOverride bool) []string {
	merged := make(map[string]string, len(base)+len(overlay))
	for _, kv := range base {
		if name, value, ok := strings.Cut(kv, "="); ok {
			merged[name] = value
		}
	}
	for _, kv := range overlay {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, exists := merged[name]; exists && allowOverride {
			continue
		}
		merged[name] = value
	}

	result := make([]string, 0, len(merged))
	for name, value := range merged {
		result = append(result, name+"="+value)
	}
	sort.Strings(result)
	return result
}

// MaskValue masks a secret value for display
func MaskValue(value string) string {
	if len(value) == 0 {
		return "(empty)"
	}
	if len(value) <= 3 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
	}
	return value[:3] + strings.Repeat("*", 8) + value[len(value)-2:]
}

// ValidateCommand checks that a command was given and can be found.
func ValidateCommand(command []string) error {
	if len(command) == 0 {
		return dserrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., pocket-env exec -- gunicorn app.wsgi)",
		}
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return dserrors.WrapCommandNotFound(command[0], err)
	}
	return nil
}

