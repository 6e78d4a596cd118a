package fakes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// FakeSecretsManagerClient is a mock Secrets Manager client.
//
// Secrets listed in Deleted answer GetSecretValue with an
// InvalidRequestException until RestoreSecret is called for them.
type FakeSecretsManagerClient struct {
	mu sync.Mutex

	// Secrets maps secret names to their SecretString
	Secrets map[string]string
	// Errors maps secret names to errors to return
	Errors map[string]error
	// Deleted marks secrets that are scheduled for deletion
	Deleted map[string]bool
	// RestoreErr is returned by RestoreSecret when set
	RestoreErr error

	// GetSecretValueCalls records every requested SecretId
	GetSecretValueCalls []string
	// RestoreSecretCalls records every restored SecretId
	RestoreSecretCalls []string
}

// NewFakeSecretsManagerClient creates a new mock Secrets Manager client
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]string),
		Errors:  make(map[string]error),
		Deleted: make(map[string]bool),
	}
}

// AddSecretString adds a string secret to the mock client
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Secrets[name] = value
}

// AddError configures the mock to return an error for a specific secret
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

// MarkDeleted schedules a secret for deletion
func (f *FakeSecretsManagerClient) MarkDeleted(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted[name] = true
}

// GetSecretValue mocks the GetSecretValue operation
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secretName := aws.ToString(params.SecretId)
	f.GetSecretValueCalls = append(f.GetSecretValueCalls, secretName)

	if err, exists := f.Errors[secretName]; exists {
		return nil, err
	}
	if f.Deleted[secretName] {
		return nil, &types.InvalidRequestException{
			Message: aws.String("You can't perform this operation on the secret because it was marked for deletion."),
		}
	}

	value, exists := f.Secrets[secretName]
	if !exists {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", secretName)),
		}
	}

	return &secretsmanager.GetSecretValueOutput{
		ARN:          aws.String(fmt.Sprintf("arn:aws:secretsmanager:us-east-1:123456789012:secret:%s", secretName)),
		Name:         params.SecretId,
		SecretString: aws.String(value),
	}, nil
}

// RestoreSecret mocks the RestoreSecret operation
func (f *FakeSecretsManagerClient) RestoreSecret(ctx context.Context, params *secretsmanager.RestoreSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.RestoreSecretOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secretName := aws.ToString(params.SecretId)
	f.RestoreSecretCalls = append(f.RestoreSecretCalls, secretName)

	if f.RestoreErr != nil {
		return nil, f.RestoreErr
	}
	delete(f.Deleted, secretName)
	return &secretsmanager.RestoreSecretOutput{Name: params.SecretId}, nil
}

// FakeSSMClient is a mock SSM Parameter Store client.
type FakeSSMClient struct {
	mu sync.Mutex

	// Parameters maps parameter names to their values
	Parameters map[string]string
	// Errors maps parameter names (or paths) to errors to return
	Errors map[string]error
	// PageSize limits GetParametersByPath pages; 0 means 10, as AWS does
	PageSize int

	// ByPathCalls counts GetParametersByPath pages served
	ByPathCalls int
}

// NewFakeSSMClient creates a new mock SSM client
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Parameters: make(map[string]string),
		Errors:     make(map[string]error),
	}
}

// AddParameter adds a parameter to the mock client
func (f *FakeSSMClient) AddParameter(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Parameters[name] = value
}

// AddError configures the mock to return an error for a parameter name or path
func (f *FakeSSMClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

// GetParameter mocks the GetParameter operation
func (f *FakeSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	paramName := aws.ToString(params.Name)
	if err, exists := f.Errors[paramName]; exists {
		return nil, err
	}

	value, exists := f.Parameters[paramName]
	if !exists {
		return nil, &ssmtypes.ParameterNotFound{
			Message: aws.String(fmt.Sprintf("Parameter %s not found", paramName)),
		}
	}

	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:    aws.String(paramName),
			Type:    ssmtypes.ParameterTypeSecureString,
			Value:   aws.String(value),
			Version: 1,
		},
	}, nil
}

// GetParametersByPath mocks the GetParametersByPath operation. NextToken is
// the index of the first parameter of the page.
func (f *FakeSSMClient) GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ByPathCalls++
	path := aws.ToString(params.Path)
	if err, exists := f.Errors[path]; exists {
		return nil, err
	}

	var names []string
	for name := range f.Parameters {
		if !strings.HasPrefix(name, path) {
			continue
		}
		if !aws.ToBool(params.Recursive) && strings.Contains(name[len(path):], "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	offset := 0
	if params.NextToken != nil {
		if _, err := fmt.Sscanf(*params.NextToken, "%d", &offset); err != nil {
			return nil, fmt.Errorf("invalid next token %q", *params.NextToken)
		}
	}
	size := f.PageSize
	if size <= 0 {
		size = 10
	}
	end := min(offset+size, len(names))

	out := &ssm.GetParametersByPathOutput{}
	for _, name := range names[offset:end] {
		out.Parameters = append(out.Parameters, ssmtypes.Parameter{
			Name:  aws.String(name),
			Type:  ssmtypes.ParameterTypeSecureString,
			Value: aws.String(f.Parameters[name]),
		})
	}
	if end < len(names) {
		out.NextToken = aws.String(fmt.Sprintf("%d", end))
	}
	return out, nil
}

// FakeCloudFormationClient is a mock CloudFormation client.
type FakeCloudFormationClient struct {
	mu sync.Mutex

	// Outputs maps stack names to their output key/values
	Outputs map[string]map[string]string
	// Errors maps stack names to errors to return
	Errors map[string]error

	// DescribeStacksCalls records every requested stack name
	DescribeStacksCalls []string
}

// NewFakeCloudFormationClient creates a new mock CloudFormation client
func NewFakeCloudFormationClient() *FakeCloudFormationClient {
	return &FakeCloudFormationClient{
		Outputs: make(map[string]map[string]string),
		Errors:  make(map[string]error),
	}
}

// AddStack adds a stack with outputs to the mock client
func (f *FakeCloudFormationClient) AddStack(name string, outputs map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Outputs[name] = outputs
}

// Calls returns a copy of the recorded DescribeStacks stack names
func (f *FakeCloudFormationClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.DescribeStacksCalls...)
}

// DescribeStacks mocks the DescribeStacks operation
func (f *FakeCloudFormationClient) DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stackName := aws.ToString(params.StackName)
	f.DescribeStacksCalls = append(f.DescribeStacksCalls, stackName)

	if err, exists := f.Errors[stackName]; exists {
		return nil, err
	}
	outputs, exists := f.Outputs[stackName]
	if !exists {
		return nil, fmt.Errorf("ValidationError: Stack with id %s does not exist", stackName)
	}

	keys := make([]string, 0, len(outputs))
	for k := range outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stack := cfntypes.Stack{StackName: aws.String(stackName)}
	for _, k := range keys {
		stack.Outputs = append(stack.Outputs, cfntypes.Output{
			OutputKey:   aws.String(k),
			OutputValue: aws.String(outputs[k]),
		})
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []cfntypes.Stack{stack}}, nil
}

// FakeSQSClient is a mock SQS client.
type FakeSQSClient struct {
	mu sync.Mutex

	// QueueURLs maps queue names to URLs
	QueueURLs map[string]string
	// Errors maps queue names to errors to return
	Errors map[string]error

	// GetQueueUrlCalls records every requested queue name
	GetQueueUrlCalls []string
}

// NewFakeSQSClient creates a new mock SQS client
func NewFakeSQSClient() *FakeSQSClient {
	return &FakeSQSClient{
		QueueURLs: make(map[string]string),
		Errors:    make(map[string]error),
	}
}

// AddQueue registers a queue URL
func (f *FakeSQSClient) AddQueue(name, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueueURLs[name] = url
}

// Calls returns a copy of the recorded queue names
func (f *FakeSQSClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.GetQueueUrlCalls...)
}

// GetQueueUrl mocks the GetQueueUrl operation
func (f *FakeSQSClient) GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	queueName := aws.ToString(params.QueueName)
	f.GetQueueUrlCalls = append(f.GetQueueUrlCalls, queueName)

	if err, exists := f.Errors[queueName]; exists {
		return nil, err
	}
	url, exists := f.QueueURLs[queueName]
	if !exists {
		return nil, &sqstypes.QueueDoesNotExist{
			Message: aws.String("The specified queue does not exist."),
		}
	}
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String(url)}, nil
}

// FakeSTSClient is a mock STS client.
type FakeSTSClient struct {
	Account string
	ARN     string
	UserID  string
	Err     error
}

// GetCallerIdentity mocks the GetCallerIdentity operation
func (f *FakeSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(f.Account),
		Arn:     aws.String(f.ARN),
		UserId:  aws.String(f.UserID),
	}, nil
}
