package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/metrics"
)

// CloudFormationClientAPI is the subset of the CloudFormation client used to
// read stack outputs.
type CloudFormationClientAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// StackOutputsClient reads the outputs of a deployed stack.
type StackOutputsClient struct {
	client  CloudFormationClientAPI
	metrics *metrics.Metrics
}

// NewStackOutputsClient wraps client. m may be nil.
func NewStackOutputsClient(client CloudFormationClientAPI, m *metrics.Metrics) *StackOutputsClient {
	return &StackOutputsClient{client: client, metrics: m}
}

// Describe returns the output key/value pairs of the first stack named
// stack. A stack without outputs yields an empty map.
func (c *StackOutputsClient) Describe(ctx context.Context, stack string) (map[string]string, error) {
	start := time.Now()
	out, err := c.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stack),
	})
	c.metrics.ObserveBackend(serviceCloudFormation, "DescribeStacks", start, err)
	if err != nil {
		return nil, dserrors.BackendError(serviceCloudFormation, "DescribeStacks "+stack, err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found", stack)
	}

	outputs := make(map[string]string, len(out.Stacks[0].Outputs))
	for _, o := range out.Stacks[0].Outputs {
		if o.OutputKey == nil || o.OutputValue == nil {
			continue
		}
		outputs[*o.OutputKey] = *o.OutputValue
	}
	return outputs, nil
}
