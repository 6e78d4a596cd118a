package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/metrics"
	"github.com/worgue/magic-pocket/pkg/secretstore"
)

// SSMClientAPI is the subset of the SSM client the store uses.
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// ParameterStore reads pocket secrets from SSM Parameter Store.
//
// Managed secrets live under /{pocket key}/. A parameter one level below the
// root is a plain string secret; a parameter two levels below is one field
// of an object secret. Deeper parameters are ignored.
type ParameterStore struct {
	client  SSMClientAPI
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewParameterStore wraps client. logger and m may be nil.
func NewParameterStore(client SSMClientAPI, logger *logging.Logger, m *metrics.Metrics) *ParameterStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ParameterStore{client: client, logger: logger, metrics: m}
}

// Kind implements secretstore.Store.
func (p *ParameterStore) Kind() secretstore.Kind {
	return secretstore.ParameterStore
}

// BulkFetch implements secretstore.Store. Stage and Project of scope are
// unused; the key already encodes them.
func (p *ParameterStore) BulkFetch(ctx context.Context, scope secretstore.Scope) (map[string]any, error) {
	root := "/" + scope.Key + "/"
	result := map[string]any{}

	paginator := ssm.NewGetParametersByPathPaginator(p.client, &ssm.GetParametersByPathInput{
		Path:           aws.String(root),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	for paginator.HasMorePages() {
		start := time.Now()
		page, err := paginator.NextPage(ctx)
		p.metrics.ObserveBackend(serviceSSM, "GetParametersByPath", start, err)
		if err != nil {
			return nil, p.handleError("GetParametersByPath", scope.Key, err)
		}

		for _, param := range page.Parameters {
			relative, ok := strings.CutPrefix(aws.ToString(param.Name), root)
			if !ok {
				continue
			}
			value := aws.ToString(param.Value)

			parts := strings.Split(relative, "/")
			switch len(parts) {
			case 1:
				result[parts[0]] = value
			case 2:
				existing, found := result[parts[0]]
				if !found {
					existing = map[string]any{}
					result[parts[0]] = existing
				}
				if obj, ok := existing.(map[string]any); ok {
					obj[parts[1]] = value
				}
			default:
				p.logger.Debug("Ignoring nested parameter %s", aws.ToString(param.Name))
			}
		}
	}

	return result, nil
}

// FetchOne implements secretstore.Store.
func (p *ParameterStore) FetchOne(ctx context.Context, name string) (string, error) {
	p.logger.Debug("Fetching parameter %s from SSM", name)

	start := time.Now()
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	p.metrics.ObserveBackend(serviceSSM, "GetParameter", start, err)
	if err != nil {
		return "", p.handleError("GetParameter", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", &secretstore.BackendError{
			Store: secretstore.ParameterStore,
			Op:    "GetParameter",
			Key:   name,
			Err:   errors.New("parameter value is empty"),
		}
	}
	return *out.Parameter.Value, nil
}

// Restore implements secretstore.Store. Parameters have no deletion window.
func (p *ParameterStore) Restore(_ context.Context, name string) error {
	return &secretstore.BackendError{
		Store:  secretstore.ParameterStore,
		Op:     "Restore",
		Key:    name,
		Reason: secretstore.ErrUnsupported,
	}
}

func (p *ParameterStore) handleError(op, name string, err error) error {
	be := &secretstore.BackendError{
		Store: secretstore.ParameterStore,
		Op:    op,
		Key:   name,
		Err:   err,
	}
	var notFound *types.ParameterNotFound
	if errors.As(err, &notFound) {
		be.Reason = secretstore.ErrNotFound
	}
	return be
}
