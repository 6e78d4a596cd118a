package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError represents a command execution error
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// BackendError enhances AWS backend errors with context for the user
func BackendError(service string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s error during %s", service, operation),
		Details:    err.Error(),
		Suggestion: getBackendSuggestion(service, err),
		Err:        err,
	}
}

// getBackendSuggestion returns helpful suggestions based on service and error
func getBackendSuggestion(service string, err error) string {
	errStr := err.Error()

	// Credential problems look the same regardless of service
	if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
		return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
	}

	switch service {
	case "secretsmanager":
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for secretsmanager:GetSecretValue"
		}
		if strings.Contains(errStr, "ResourceNotFoundException") {
			return "Verify the secret name and region. List secrets with: 'aws secretsmanager list-secrets'"
		}
		if strings.Contains(errStr, "ThrottlingException") {
			return "AWS rate limit exceeded. Wait a moment and try again"
		}

	case "ssm":
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for ssm:GetParametersByPath and ssm:GetParameter"
		}
		if strings.Contains(errStr, "ParameterNotFound") {
			return "Verify the parameter name and region. List parameters with: 'aws ssm describe-parameters'"
		}

	case "cloudformation":
		if strings.Contains(errStr, "does not exist") {
			return "Deploy the container stack first, or set an explicit apigateway domain"
		}

	case "sqs":
		if strings.Contains(errStr, "NonExistentQueue") || strings.Contains(errStr, "QueueDoesNotExist") {
			return "Verify the queue was deployed for this stage"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and the configured AWS endpoint"
	}

	return ""
}

// WrapCommandNotFound wraps command not found errors with helpful suggestions
func WrapCommandNotFound(command string, err error) error {
	return CommandError{
		Command:    command,
		Message:    "command not found",
		Suggestion: fmt.Sprintf("Make sure '%s' is installed in the image and in your PATH", command),
	}
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var userErr UserError
	if errors.As(err, &userErr) {
		return err
	}
	var configErr ConfigError
	if errors.As(err, &configErr) {
		return err
	}

	var stageErr *StageNotFoundError
	if errors.As(err, &stageErr) {
		suggestion := "Add the stage to general.stages in pocket.toml"
		if len(stageErr.Available) > 0 {
			suggestion = fmt.Sprintf("Available stages: %s", strings.Join(stageErr.Available, ", "))
		}
		return UserError{Message: err.Error(), Suggestion: suggestion, Err: err}
	}

	var sectionErr *MissingSectionError
	if errors.As(err, &sectionErr) {
		return UserError{
			Message:    err.Error(),
			Suggestion: fmt.Sprintf("Add a [%s] section to pocket.toml", sectionErr.Section),
			Err:        err,
		}
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return UserError{
			Message:    err.Error(),
			Suggestion: "Check field names and value types in pocket.toml",
			Err:        err,
		}
	}

	var typeErr *UnsupportedSecretTypeError
	if errors.As(err, &typeErr) {
		return UserError{
			Message:    err.Error(),
			Suggestion: "Only rsa_pem_base64 and cloudfront_signing_key secrets may hold structured values",
			Err:        err,
		}
	}

	if strings.Contains(err.Error(), "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
