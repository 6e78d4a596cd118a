package providers

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/metrics"
)

// STSClientAPI is the subset of the STS client used for credential checks.
type STSClientAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Identity is the principal the loaded credentials resolve to.
type Identity struct {
	Account string
	ARN     string
	UserID  string
}

// CallerIdentity checks which principal the current credentials belong to.
type CallerIdentity struct {
	client  STSClientAPI
	metrics *metrics.Metrics
}

// NewCallerIdentity wraps client. m may be nil.
func NewCallerIdentity(client STSClientAPI, m *metrics.Metrics) *CallerIdentity {
	return &CallerIdentity{client: client, metrics: m}
}

// Get calls GetCallerIdentity.
func (c *CallerIdentity) Get(ctx context.Context) (Identity, error) {
	start := time.Now()
	out, err := c.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	c.metrics.ObserveBackend(serviceSTS, "GetCallerIdentity", start, err)
	if err != nil {
		if isAuthError(err) {
			return Identity{}, dserrors.UserError{
				Message:    "AWS credentials were rejected",
				Details:    err.Error(),
				Suggestion: "Refresh your credentials (aws sso login, aws configure) or check AWS_PROFILE",
				Err:        err,
			}
		}
		return Identity{}, dserrors.BackendError(serviceSTS, "GetCallerIdentity", err)
	}

	return Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}
