package providers

import (
	"errors"

	"github.com/aws/smithy-go"
)

// Service names used in logs, metrics and user-facing errors.
const (
	serviceSecretsManager = "secretsmanager"
	serviceSSM            = "ssm"
	serviceCloudFormation = "cloudformation"
	serviceSQS            = "sqs"
	serviceSTS            = "sts"
)

// apiErrorCode returns the AWS error code carried by err, or "" when err did
// not come from an API response.
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func isAuthError(err error) bool {
	switch apiErrorCode(err) {
	case "AccessDenied", "AccessDeniedException", "UnrecognizedClientException",
		"InvalidClientTokenId", "ExpiredToken", "ExpiredTokenException", "SignatureDoesNotMatch":
		return true
	}
	return false
}
