package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/metrics"
	"github.com/worgue/magic-pocket/pkg/secretstore"
)

// SecretsManagerClientAPI is the subset of the Secrets Manager client the
// store uses. It allows a fake to be injected in tests.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	RestoreSecret(ctx context.Context, params *secretsmanager.RestoreSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.RestoreSecretOutput, error)
}

// SecretsManagerStore reads pocket secrets from AWS Secrets Manager.
//
// Managed secrets share one secret named after the pocket key whose JSON
// body is {stage: {project: {NAME: value, ...}}}.
type SecretsManagerStore struct {
	client  SecretsManagerClientAPI
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewSecretsManagerStore wraps client. logger and m may be nil.
func NewSecretsManagerStore(client SecretsManagerClientAPI, logger *logging.Logger, m *metrics.Metrics) *SecretsManagerStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SecretsManagerStore{client: client, logger: logger, metrics: m}
}

// Kind implements secretstore.Store.
func (s *SecretsManagerStore) Kind() secretstore.Kind {
	return secretstore.SecretsManager
}

// BulkFetch implements secretstore.Store.
func (s *SecretsManagerStore) BulkFetch(ctx context.Context, scope secretstore.Scope) (map[string]any, error) {
	body, err := s.getSecretString(ctx, scope.Key)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, &secretstore.BackendError{
			Store: secretstore.SecretsManager,
			Op:    "GetSecretValue",
			Key:   scope.Key,
			Err:   fmt.Errorf("secret is not valid JSON: %w", err),
		}
	}

	// Any shape other than nested objects reads as empty.
	root, _ := doc.(map[string]any)
	stage, _ := root[scope.Stage].(map[string]any)
	entries, _ := stage[scope.Project].(map[string]any)
	if entries == nil {
		s.logger.Debug("No managed secrets for %s/%s in %s", scope.Stage, scope.Project, scope.Key)
		return map[string]any{}, nil
	}
	return entries, nil
}

// FetchOne implements secretstore.Store.
func (s *SecretsManagerStore) FetchOne(ctx context.Context, name string) (string, error) {
	return s.getSecretString(ctx, name)
}

// Restore implements secretstore.Store by cancelling a scheduled deletion.
func (s *SecretsManagerStore) Restore(ctx context.Context, name string) error {
	start := time.Now()
	_, err := s.client.RestoreSecret(ctx, &secretsmanager.RestoreSecretInput{
		SecretId: aws.String(name),
	})
	s.metrics.ObserveBackend(serviceSecretsManager, "RestoreSecret", start, err)
	if err != nil {
		return s.handleError("RestoreSecret", name, err)
	}
	s.logger.Info("Restored secret %s", name)
	return nil
}

func (s *SecretsManagerStore) getSecretString(ctx context.Context, name string) (string, error) {
	s.logger.Debug("Fetching secret %s from Secrets Manager", name)

	start := time.Now()
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	s.metrics.ObserveBackend(serviceSecretsManager, "GetSecretValue", start, err)
	if err != nil {
		return "", s.handleError("GetSecretValue", name, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", &secretstore.BackendError{
			Store: secretstore.SecretsManager,
			Op:    "GetSecretValue",
			Key:   name,
			Err:   errors.New("SecretString is empty"),
		}
	}
	return *out.SecretString, nil
}

func (s *SecretsManagerStore) handleError(op, name string, err error) error {
	be := &secretstore.BackendError{
		Store: secretstore.SecretsManager,
		Op:    op,
		Key:   name,
		Err:   err,
	}

	var notFound *types.ResourceNotFoundException
	var invalidRequest *types.InvalidRequestException
	switch {
	case errors.As(err, &notFound):
		be.Reason = secretstore.ErrNotFound
	case errors.As(err, &invalidRequest):
		be.Reason = secretstore.ErrInvalidState
	}
	return be
}
