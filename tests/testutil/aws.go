package testutil

import (
	"testing"

	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/metrics"
	"github.com/worgue/magic-pocket/internal/providers"
	"github.com/worgue/magic-pocket/tests/fakes"
)

// FakeAWS bundles one fake per AWS service and a Factory wired to all of
// them, so no test ever reaches for real credentials.
//
// Example usage:
//
//	aws := testutil.NewFakeAWS(t)
//	aws.SecretsManager.AddSecretString("dev-myapp-pocket", `{"dev":{"myapp":{"K":"v"}}}`)
//	orch := secrets.New(aws.Factory)
type FakeAWS struct {
	SecretsManager *fakes.FakeSecretsManagerClient
	SSM            *fakes.FakeSSMClient
	CloudFormation *fakes.FakeCloudFormationClient
	SQS            *fakes.FakeSQSClient
	STS            *fakes.FakeSTSClient

	Metrics *metrics.Metrics
	Factory *providers.Factory
}

// NewFakeAWS creates a FakeAWS with a quiet logger and a private registry.
func NewFakeAWS(t *testing.T) *FakeAWS {
	t.Helper()
	return NewFakeAWSWithLogger(t, logging.Nop())
}

// NewFakeAWSWithLogger creates a FakeAWS that logs through logger.
func NewFakeAWSWithLogger(t *testing.T, logger *logging.Logger) *FakeAWS {
	t.Helper()

	f := &FakeAWS{
		SecretsManager: fakes.NewFakeSecretsManagerClient(),
		SSM:            fakes.NewFakeSSMClient(),
		CloudFormation: fakes.NewFakeCloudFormationClient(),
		SQS:            fakes.NewFakeSQSClient(),
		STS:            &fakes.FakeSTSClient{Account: "123456789012", ARN: "arn:aws:iam::123456789012:user/test", UserID: "AIDTEST"},
		Metrics:        metrics.New(nil),
	}
	f.Factory = providers.NewFactory(
		providers.WithLogger(logger),
		providers.WithMetrics(f.Metrics),
		providers.WithSecretsManagerClient(f.SecretsManager),
		providers.WithSSMClient(f.SSM),
		providers.WithCloudFormationClient(f.CloudFormation),
		providers.WithSQSClient(f.SQS),
		providers.WithSTSClient(f.STS),
	)
	return f
}
