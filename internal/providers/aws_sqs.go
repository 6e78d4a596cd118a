package providers

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/metrics"
)

// SQSClientAPI is the subset of the SQS client used for queue lookups.
type SQSClientAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
}

// QueueLookupClient resolves queue names to URLs.
type QueueLookupClient struct {
	client  SQSClientAPI
	metrics *metrics.Metrics
}

// NewQueueLookupClient wraps client. m may be nil.
func NewQueueLookupClient(client SQSClientAPI, m *metrics.Metrics) *QueueLookupClient {
	return &QueueLookupClient{client: client, metrics: m}
}

// ResolveURL returns the URL of the named queue.
func (c *QueueLookupClient) ResolveURL(ctx context.Context, queue string) (string, error) {
	start := time.Now()
	out, err := c.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queue),
	})
	c.metrics.ObserveBackend(serviceSQS, "GetQueueUrl", start, err)
	if err != nil {
		return "", dserrors.BackendError(serviceSQS, "GetQueueUrl "+queue, err)
	}
	if out.QueueUrl == nil || *out.QueueUrl == "" {
		return "", errors.New("GetQueueUrl returned no URL for " + queue)
	}
	return *out.QueueUrl, nil
}
