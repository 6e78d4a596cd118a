package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/pkg/secretstore"
)

// withCallTimeout bounds a single store call. A zero timeout leaves ctx as is.
func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// timeoutError wraps a deadline failure with a hint; other errors pass through.
func timeoutError(err error, kind secretstore.Kind, timeout time.Duration) error {
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return dserrors.UserError{
		Message:    fmt.Sprintf("%s request timed out", storeLabel(kind)),
		Details:    fmt.Sprintf("Operation exceeded %s timeout", timeout),
		Suggestion: timeoutSuggestion(kind),
		Err:        err,
	}
}

func timeoutSuggestion(kind secretstore.Kind) string {
	switch kind {
	case secretstore.ParameterStore:
		return "Check connectivity to SSM (VPC endpoint or NAT) and that the region is correct"
	default:
		return "Check connectivity to Secrets Manager (VPC endpoint or NAT) and that the region is correct"
	}
}

func storeLabel(kind secretstore.Kind) string {
	if kind == secretstore.ParameterStore {
		return "Parameter Store"
	}
	return "Secrets Manager"
}
