package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/metrics"
	"github.com/worgue/magic-pocket/pkg/secretstore"
)

// Factory hands out AWS-backed collaborators, building one set of SDK
// clients per region and reusing it for every later call. It implements
// secretstore.Opener and the resource lookups.
type Factory struct {
	awsOpts AWSOptions
	logger  *logging.Logger
	metrics *metrics.Metrics

	loadConfig func(ctx context.Context, region string, opts AWSOptions) (aws.Config, error)

	// Injected SDK clients; nil means build a real one.
	smClient  SecretsManagerClientAPI
	ssmClient SSMClientAPI
	cfnClient CloudFormationClientAPI
	sqsClient SQSClientAPI
	stsClient STSClientAPI

	mu      sync.Mutex
	regions map[string]*regionClients
}

type regionClients struct {
	secretsManager *SecretsManagerStore
	parameterStore *ParameterStore
	stackOutputs   *StackOutputsClient
	queues         *QueueLookupClient
	identity       *CallerIdentity
}

// FactoryOption is a functional option for configuring a Factory.
type FactoryOption func(*Factory)

// WithAWSOptions sets endpoint, profile and credential overrides.
func WithAWSOptions(opts AWSOptions) FactoryOption {
	return func(f *Factory) {
		f.awsOpts = opts
	}
}

// WithLogger sets the logger passed to the stores.
func WithLogger(logger *logging.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithMetrics sets where backend calls are recorded.
func WithMetrics(m *metrics.Metrics) FactoryOption {
	return func(f *Factory) {
		f.metrics = m
	}
}

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing)
func WithSecretsManagerClient(client SecretsManagerClientAPI) FactoryOption {
	return func(f *Factory) {
		f.smClient = client
	}
}

// WithSSMClient sets a custom SSM client (for testing)
func WithSSMClient(client SSMClientAPI) FactoryOption {
	return func(f *Factory) {
		f.ssmClient = client
	}
}

// WithCloudFormationClient sets a custom CloudFormation client (for testing)
func WithCloudFormationClient(client CloudFormationClientAPI) FactoryOption {
	return func(f *Factory) {
		f.cfnClient = client
	}
}

// WithSQSClient sets a custom SQS client (for testing)
func WithSQSClient(client SQSClientAPI) FactoryOption {
	return func(f *Factory) {
		f.sqsClient = client
	}
}

// WithSTSClient sets a custom STS client (for testing)
func WithSTSClient(client STSClientAPI) FactoryOption {
	return func(f *Factory) {
		f.stsClient = client
	}
}

// NewFactory creates a Factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		loadConfig: LoadAWSConfig,
		regions:    map[string]*regionClients{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logging.Nop()
	}
	return f
}

// Open implements secretstore.Opener.
func (f *Factory) Open(ctx context.Context, kind secretstore.Kind, region string) (secretstore.Store, error) {
	rc, err := f.clients(ctx, region)
	if err != nil {
		return nil, err
	}
	switch kind {
	case secretstore.ParameterStore:
		return rc.parameterStore, nil
	case secretstore.SecretsManager:
		return rc.secretsManager, nil
	}
	return nil, fmt.Errorf("unknown secret store kind %q", kind)
}

// Describe returns the outputs of stack in region.
func (f *Factory) Describe(ctx context.Context, region, stack string) (map[string]string, error) {
	rc, err := f.clients(ctx, region)
	if err != nil {
		return nil, err
	}
	return rc.stackOutputs.Describe(ctx, stack)
}

// ResolveURL returns the URL of queue in region.
func (f *Factory) ResolveURL(ctx context.Context, region, queue string) (string, error) {
	rc, err := f.clients(ctx, region)
	if err != nil {
		return "", err
	}
	return rc.queues.ResolveURL(ctx, queue)
}

// CallerIdentity reports the principal behind the credentials for region.
func (f *Factory) CallerIdentity(ctx context.Context, region string) (Identity, error) {
	rc, err := f.clients(ctx, region)
	if err != nil {
		return Identity{}, err
	}
	return rc.identity.Get(ctx)
}

func (f *Factory) clients(ctx context.Context, region string) (*regionClients, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rc, ok := f.regions[region]; ok {
		return rc, nil
	}

	smClient, ssmClient, cfnClient, sqsClient, stsClient := f.smClient, f.ssmClient, f.cfnClient, f.sqsClient, f.stsClient
	if smClient == nil || ssmClient == nil || cfnClient == nil || sqsClient == nil || stsClient == nil {
		cfg, err := f.loadConfig(ctx, region, f.awsOpts)
		if err != nil {
			return nil, err
		}
		f.logger.Debug("Loaded AWS config for region %s", region)

		if smClient == nil {
			smClient = secretsmanager.NewFromConfig(cfg)
		}
		if ssmClient == nil {
			ssmClient = ssm.NewFromConfig(cfg)
		}
		if cfnClient == nil {
			cfnClient = cloudformation.NewFromConfig(cfg)
		}
		if sqsClient == nil {
			sqsClient = sqs.NewFromConfig(cfg)
		}
		if stsClient == nil {
			stsClient = sts.NewFromConfig(cfg)
		}
	}

	rc := &regionClients{
		secretsManager: NewSecretsManagerStore(smClient, f.logger, f.metrics),
		parameterStore: NewParameterStore(ssmClient, f.logger, f.metrics),
		stackOutputs:   NewStackOutputsClient(cfnClient, f.metrics),
		queues:         NewQueueLookupClient(sqsClient, f.metrics),
		identity:       NewCallerIdentity(stsClient, f.metrics),
	}
	f.regions[region] = rc
	return rc, nil
}
